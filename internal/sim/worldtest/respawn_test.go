package worldtest

import (
	"testing"

	world "commons.ai/internal/sim/world"
	"commons.ai/internal/sim/world/feature/respawn"
	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

func newRespawnHarness(t *testing.T) *Harness {
	t.Helper()
	h := New(t, world.Config{SpawnProb: respawn.DefaultTable},
		"@@@@@@",
		"@PAAA@",
		"@@@@@@",
	)
	h.SetCell(P(1, 2), model.Empty)
	return h
}

func TestRespawn_DrawBelowProbabilitySpawns(t *testing.T) {
	h := newRespawnHarness(t)
	// (1,2) sees two resources in its window: p = 0.02.
	h.Rand.Floats = []float64{0.0199, 0.99, 0.99}
	h.Step(map[string]string{})
	if h.Kind(P(1, 2)) != model.Resource {
		t.Fatalf("expected respawn at (1,2): %v", h.W.Rows())
	}
	if h.W.LastStats().Spawned != 1 {
		t.Fatalf("stats: %+v", h.W.LastStats())
	}
}

func TestRespawn_ThresholdIsStrict(t *testing.T) {
	h := newRespawnHarness(t)
	h.Rand.Floats = []float64{0.02, 0.99, 0.99}
	h.Step(map[string]string{})
	if h.Kind(P(1, 2)) != model.Empty {
		t.Fatalf("draw equal to probability must not spawn")
	}
}

func TestRespawn_NoNeighboursNeverSpawns(t *testing.T) {
	h := newRespawnHarness(t)
	h.SetCell(P(1, 3), model.Empty)
	h.SetCell(P(1, 4), model.Empty)
	h.Rand.Floats = []float64{0, 0, 0}
	h.Step(map[string]string{})
	for _, p := range h.Map.Layout.ResourceSites {
		if h.Kind(p) != model.Empty {
			t.Fatalf("spawned at %s with an empty neighbourhood", p)
		}
	}
}

func TestRespawn_SkipsOccupiedSite(t *testing.T) {
	h := New(t, world.Config{SpawnProb: respawn.DefaultTable},
		"@@@@@@",
		"@PAAA@",
		"@@@@@@",
	)
	h.Rand.Floats = []float64{0, 0, 0}
	h.Step(map[string]string{"agent-0": "MOVE_RIGHT"})
	if h.Kind(P(1, 2)) != model.Occupant {
		t.Fatalf("respawn overwrote the agent: %v", h.W.Rows())
	}
	if h.W.LastStats().Spawned != 0 {
		t.Fatalf("stats: %+v", h.W.LastStats())
	}
	if h.Agent("agent-0").Reward != 1 {
		t.Fatalf("harvest missing")
	}
}

func TestRespawn_SkipsBeamCoveredSite(t *testing.T) {
	h := New(t, world.Config{SpawnProb: []float64{1}},
		"@@@@@",
		"@P A@",
		"@@@@@",
	)
	h.SetCell(P(1, 3), model.Empty)
	h.Place("agent-0", P(1, 1), orient.Right)
	h.Rand.Floats = []float64{0}
	h.Step(map[string]string{"agent-0": "FIRE"})
	if h.Kind(P(1, 3)) != model.Beam {
		t.Fatalf("site should stay masked: %v", h.W.Rows())
	}
	h.Rand.Floats = []float64{0.5}
	h.Step(map[string]string{})
	if h.Kind(P(1, 3)) != model.Resource {
		t.Fatalf("site should respawn once uncovered: %v", h.W.Rows())
	}
}
