package store

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"monworld.ai/internal/sim/world"
	"monworld.ai/schemas"
)

var stateSchema = jsonschema.MustCompileString("worldstate.schema.json", schemas.WorldState)

// decodeState validates raw bytes against the world schema and decodes them.
// Required-field violations fail loudly; optional fields get safe defaults.
func decodeState(raw []byte) (*world.State, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("world document: %w", err)
	}
	if err := stateSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("world document schema: %w", err)
	}
	var st world.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("world document: %w", err)
	}
	st.Normalize()
	return &st, nil
}

// encodeState serializes a state and re-validates it, so an invariant broken
// in memory is caught before it ever reaches disk.
func encodeState(st *world.State) ([]byte, error) {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode world document: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode world document: %w", err)
	}
	if err := stateSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("world document schema: %w", err)
	}
	return raw, nil
}
