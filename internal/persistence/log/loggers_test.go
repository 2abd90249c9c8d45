package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"monworld.ai/internal/sim/world"
)

func TestEventLoggerWritesReadableJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)

	events := []world.Event{
		{ID: "evt_t1_1", At: "2026-01-01T00:00:00Z", AgentID: "alice", Type: "entry", Message: "Agent entered at town by paying 0.0001 MON (tx: n/a)"},
		{ID: "evt_t2_2", At: "2026-01-01T00:00:05Z", AgentID: "alice", Type: "gather", Message: "Gathered resources at town (+coin:1)"},
	}
	for _, ev := range events {
		if err := l.WriteEvent(ev); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("files = %d, want one hourly file", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "events-") || !strings.HasSuffix(name, ".jsonl.zst") {
		t.Fatalf("file name = %s", name)
	}

	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []world.Event
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var ev world.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("events = %d, want %d", len(got), len(events))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], events[i])
		}
	}
}

func TestEventLoggerAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	l := NewEventLogger(dir)
	if err := l.WriteEvent(world.Event{ID: "evt_t1_1", At: "x", AgentID: "a", Type: "rest", Message: "m"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A process restart within the same hour appends to the same file.
	l = NewEventLogger(dir)
	if err := l.WriteEvent(world.Event{ID: "evt_t2_2", At: "x", AgentID: "a", Type: "rest", Message: "m"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("files = %d, want 1", len(entries))
	}
}
