package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"monworld.ai/internal/sim/world"
)

// dbCmd reads the sqlite backend directly. Queries: summary (default),
// agents, wallets, events.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/world.db)")
	limit := fs.Int("limit", 20, "result limit (events)")
	_ = fs.Parse(args)

	q := "summary"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "world.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	var payload []byte
	if err := db.QueryRow(`SELECT payload FROM world_state WHERE id = 1`).Scan(&payload); err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	var st world.State
	if err := json.Unmarshal(payload, &st); err != nil {
		fmt.Fprintln(os.Stderr, "decode:", err)
		os.Exit(1)
	}
	st.Normalize()

	switch q {
	case "summary":
		fmt.Printf("tick=%d agents=%d wallets=%d events=%d policy=%s penalty=%.9f\n",
			st.Tick, len(st.Agents), len(st.Wallets), len(st.Events),
			st.Governance.ActivePolicy, st.Economy.AttackPenaltyMon)

	case "agents":
		ids := make([]string, 0, len(st.Agents))
		for id := range st.Agents {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			a := st.Agents[id]
			fmt.Printf("%-24s loc=%-7s energy=%2d rep=%2d inv=%d\n",
				id, a.Location, a.Energy, a.Reputation, a.InventoryUnits())
		}

	case "wallets":
		addrs := make([]string, 0, len(st.Wallets))
		for addr := range st.Wallets {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			fmt.Printf("%-40s %.6f MON\n", addr, st.Wallets[addr].MonBalance)
		}

	case "events":
		events := st.Events
		if len(events) > *limit {
			events = events[len(events)-*limit:]
		}
		for _, ev := range events {
			fmt.Printf("%s %s [%s] %s\n", ev.At, ev.ID, ev.Type, ev.Message)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (want summary, agents, wallets or events)\n", q)
		os.Exit(2)
	}
}
