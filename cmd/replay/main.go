// Command replay inspects the compressed audit trail: it walks the rotated
// events-*.jsonl.zst files in order, checks that the stream is well formed and
// prints an activity summary. With -snapshot it also cross-checks the trail
// against a world snapshot.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"monworld.ai/internal/persistence/snapshot"
	"monworld.ai/internal/sim/world"
)

var eventID = regexp.MustCompile(`^evt_t([0-9]+)_([0-9]+)$`)

func main() {
	var (
		eventsDir = flag.String("events", "./data/events", "events dir containing events-*.jsonl.zst")
		snapPath  = flag.String("snapshot", "", "world snapshot (.json.zst) to cross-check (optional)")
		typeOnly  = flag.String("type", "", "only count events of this type (optional)")
		verbose   = flag.Bool("v", false, "print every event line")
	)
	flag.Parse()

	files, err := listEventFiles(*eventsDir)
	if err != nil {
		fatalf("list events: %v", err)
	}
	if len(files) == 0 {
		fatalf("no events files found in %s", *eventsDir)
	}

	byType := map[string]int{}
	var total int
	var lastTick uint64
	var lastID string

	for _, path := range files {
		if err := walkFile(path, func(ev world.Event) error {
			m := eventID.FindStringSubmatch(ev.ID)
			if m == nil {
				return fmt.Errorf("malformed event id %q", ev.ID)
			}
			tick, _ := strconv.ParseUint(m[1], 10, 64)
			if tick < lastTick {
				return fmt.Errorf("tick regression at %s: %d after %d", ev.ID, tick, lastTick)
			}
			lastTick = tick
			lastID = ev.ID

			if *typeOnly != "" && ev.Type != *typeOnly {
				return nil
			}
			total++
			byType[ev.Type]++
			if *verbose {
				fmt.Printf("%s %s [%s] %s\n", ev.At, ev.ID, ev.Type, ev.Message)
			}
			return nil
		}); err != nil {
			fatalf("%s: %v", filepath.Base(path), err)
		}
	}

	fmt.Printf("audit trail ok: files=%d events=%d lastTick=%d lastId=%s\n", len(files), total, lastTick, lastID)
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-16s %d\n", t, byType[t])
	}

	if *snapPath == "" {
		return
	}
	st, err := snapshot.Read(*snapPath)
	if err != nil {
		fatalf("read snapshot: %v", err)
	}
	fmt.Printf("snapshot tick=%d agents=%d wallets=%d events=%d policy=%s\n",
		st.Tick, len(st.Agents), len(st.Wallets), len(st.Events), st.Governance.ActivePolicy)
	if lastTick > st.Tick {
		fmt.Printf("note: audit trail runs %d ticks past the snapshot\n", lastTick-st.Tick)
	}
}

func listEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func walkFile(path string, fn func(world.Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var ev world.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return sc.Err()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
