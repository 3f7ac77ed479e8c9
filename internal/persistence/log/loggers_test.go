package log

import (
	"errors"
	"path/filepath"
	"testing"

	"commons.ai/internal/sim/world"
)

func TestTickLogger_SegmentsPerEpisode(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	entries := []world.TickLogEntry{
		{Tick: 0, Episode: 1, Actions: []world.RecordedAction{{AgentID: "agent-0", Action: "FIRE"}}, Digest: "a"},
		{Tick: 1, Episode: 1, Digest: "b"},
		{Tick: 2, Episode: 2, Reset: true, Digest: "c"},
		{Tick: 2, Episode: 2, Digest: "d"},
	}
	for _, e := range entries {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Segments(dir)
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "ticks-000001.jsonl.zst" || filepath.Base(files[1]) != "ticks-000002.jsonl.zst" {
		t.Fatalf("segments: %v", files)
	}

	var got []world.TickLogEntry
	if err := ReadAll(dir, func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i].Digest != entries[i].Digest || got[i].Reset != entries[i].Reset || got[i].Episode != entries[i].Episode {
			t.Fatalf("entry %d: got %+v want %+v", i, got[i], entries[i])
		}
	}
	if len(got[0].Actions) != 1 || got[0].Actions[0].Action != "FIRE" {
		t.Fatalf("actions lost: %+v", got[0])
	}
}

type failLogger struct{ n int }

func (f *failLogger) WriteTick(world.TickLogEntry) error {
	f.n++
	return errors.New("boom")
}

func TestTee(t *testing.T) {
	a, b := &failLogger{}, &failLogger{}
	if err := Tee(a, nil, b).WriteTick(world.TickLogEntry{}); err == nil {
		t.Fatalf("expected joined error")
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("every logger must see the entry: %d %d", a.n, b.n)
	}
}
