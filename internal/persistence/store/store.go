// Package store owns the durable world document and serializes all mutation.
// Update is the only sanctioned way to mutate the world: at most one mutator
// runs at a time process-wide, and the mutated state persists only if the
// mutator returned nil.
package store

import (
	"fmt"

	"monworld.ai/internal/sim/world"
)

// Mutator runs against the current state inside the store's critical section.
// It must not perform I/O or network calls of its own; results are captured by
// closing over variables at the call site.
type Mutator func(*world.State) error

type Store interface {
	// Read returns a snapshot copy of the durable state. A missing document is
	// not an error: it decodes as the default seedable world. A malformed
	// document is.
	Read() (*world.State, error)
	// Write atomically replaces the durable state.
	Write(*world.State) error
	// Update serializes read-mutate-write against all other callers.
	Update(Mutator) error
	// InitFromSeed installs the seed document if no state exists yet and
	// returns the effective state.
	InitFromSeed(seedPath string) (*world.State, error)
	Close() error
}

// Open selects the persistence backend. mode is "json" or "sqlite".
func Open(mode, jsonPath, sqlitePath string) (Store, error) {
	switch mode {
	case "", "json":
		return NewFileStore(jsonPath), nil
	case "sqlite":
		return OpenSQLite(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown store mode %q (want json or sqlite)", mode)
	}
}
