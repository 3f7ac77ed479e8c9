package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"commons.ai/internal/sim/tuning"
	"commons.ai/internal/sim/world"
)

func TestSQLiteIndex_TicksAndEpisodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.UpsertConfig(tuning.Defaults(), []string{"@P@"}); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	entries := []world.TickLogEntry{
		{Tick: 0, Episode: 1, Actions: []world.RecordedAction{{AgentID: "agent-0", Action: "MOVE_UP"}}, Stats: world.TickStats{Harvested: 1}, Rewards: map[string]int{"agent-0": 1, "agent-1": 0}, Digest: "d0"},
		{Tick: 1, Episode: 1, Actions: []world.RecordedAction{{AgentID: "agent-1", Action: "FIRE"}}, Stats: world.TickStats{Fired: 1, Hits: 1}, Rewards: map[string]int{"agent-0": 1, "agent-1": 0}, Digest: "d1"},
		{Tick: 2, Episode: 2, Reset: true, Digest: "r2"},
		{Tick: 2, Episode: 2, Stats: world.TickStats{Harvested: 2}, Rewards: map[string]int{"agent-0": 0, "agent-1": 2}, Digest: "d2"},
	}
	for _, e := range entries {
		if err := idx.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if idx.Dropped() != 0 {
		t.Fatalf("dropped %d entries", idx.Dropped())
	}

	// Reopen to read what the writer committed.
	idx2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	eps, err := idx2.Episodes(context.Background())
	if err != nil {
		t.Fatalf("Episodes: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("episodes: %+v", eps)
	}
	if e := eps[0]; e.Episode != 1 || e.StartTick != 0 || e.LastTick != 1 || e.Ticks != 2 || e.Harvested != 1 || e.Fired != 1 || e.Hits != 1 || e.TotalReward != 1 {
		t.Fatalf("episode 1: %+v", e)
	}
	if e := eps[1]; e.Episode != 2 || e.Ticks != 1 || e.Harvested != 2 || e.TotalReward != 2 {
		t.Fatalf("episode 2: %+v", e)
	}

	rw, err := idx2.Rewards(context.Background(), 2)
	if err != nil {
		t.Fatalf("Rewards: %v", err)
	}
	if rw["agent-1"] != 2 || rw["agent-0"] != 0 {
		t.Fatalf("rewards: %v", rw)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var action string
	if err := db.QueryRow(`SELECT action FROM actions WHERE tick=1 AND agent_id='agent-1'`).Scan(&action); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if action != "FIRE" {
		t.Fatalf("action: %q", action)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM config`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("config rows: %d err=%v", n, err)
	}
}

func TestSQLiteIndex_QueueDrop(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan world.TickLogEntry, 1)}
	_ = s.WriteTick(world.TickLogEntry{Tick: 1})
	_ = s.WriteTick(world.TickLogEntry{Tick: 2})
	if s.Dropped() != 1 || s.QueueDepth() != 1 {
		t.Fatalf("dropped=%d depth=%d", s.Dropped(), s.QueueDepth())
	}
}
