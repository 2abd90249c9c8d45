// Command admin is the operator toolbox: inspect the data directory, query
// the sqlite backend directly and restore the world from a snapshot.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"monworld.ai/internal/persistence/snapshot"
	"monworld.ai/internal/persistence/store"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "faucet":
			faucetCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "restore":
			restoreCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// restoreCmd overwrites the durable world document with a snapshot's content.
// The server must be stopped first: the store lock only covers live mutators,
// not an operator swapping state underneath a running process.
func restoreCmd(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	mode := fs.String("store", "json", "persistence backend: json or sqlite")
	snapPath := fs.String("snapshot", "", "snapshot path (.json.zst, required)")
	_ = fs.Parse(args)

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	st, err := snapshot.Read(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	s, err := store.Open(*mode,
		filepath.Join(*dataDir, "world.state.json"),
		filepath.Join(*dataDir, "world.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := s.Write(st); err != nil {
		fmt.Fprintln(os.Stderr, "write state:", err)
		os.Exit(1)
	}
	fmt.Printf("restored world at tick=%d (%d agents, %d events)\n", st.Tick, len(st.Agents), len(st.Events))
}
