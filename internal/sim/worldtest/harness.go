package worldtest

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"commons.ai/internal/sim/maps"
	world "commons.ai/internal/sim/world"
	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

// Harness is a small black-box test helper for driving a world via exported APIs.
// The map is given as symbol rows; agent-i starts on the i-th 'P' in row-major
// order, facing Up. Spawning is off unless the config sets SpawnProb.
type Harness struct {
	T    *testing.T
	W    *world.World
	Map  maps.Map
	Rand *ScriptedRand
}

func New(t *testing.T, cfg world.Config, rows ...string) *Harness {
	t.Helper()

	m, err := maps.Parse(rows)
	if err != nil {
		t.Fatalf("maps.Parse: %v", err)
	}
	if cfg.NumAgents == 0 {
		cfg.NumAgents = len(m.Layout.SpawnSites)
	}
	if len(cfg.SpawnProb) == 0 {
		cfg.SpawnProb = []float64{0}
	}
	rng, _ := cfg.Rand.(*ScriptedRand)
	if cfg.Rand == nil {
		rng = &ScriptedRand{}
		cfg.Rand = rng
	}

	w, err := world.New(cfg, m.Layout)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	h := &Harness{T: t, W: w, Map: m, Rand: rng}

	place := map[string]world.Placement{}
	for i := 0; i < cfg.NumAgents && i < len(m.Layout.SpawnSites); i++ {
		place[AgentID(i)] = world.Placement{Pos: m.Layout.SpawnSites[i], Facing: orient.Up}
	}
	if err := w.DebugArrange(place); err != nil {
		t.Fatalf("DebugArrange: %v", err)
	}
	return h
}

func AgentID(i int) string { return fmt.Sprintf("agent-%d", i) }

func P(row, col int) model.Pos { return model.Pos{Row: row, Col: col} }

// Place moves one agent.
func (h *Harness) Place(id string, p model.Pos, f orient.Facing) {
	h.T.Helper()
	if err := h.W.DebugArrange(map[string]world.Placement{id: {Pos: p, Facing: f}}); err != nil {
		h.T.Fatalf("Place %s: %v", id, err)
	}
}

func (h *Harness) SetCell(p model.Pos, k model.Kind) {
	h.T.Helper()
	if err := h.W.DebugSetCell(p, k); err != nil {
		h.T.Fatalf("SetCell: %v", err)
	}
}

// Step applies one batch and fails the test on error.
func (h *Harness) Step(acts map[string]string) {
	h.T.Helper()
	if err := h.W.Step(acts); err != nil {
		h.T.Fatalf("Step(%v): %v", acts, err)
	}
}

func (h *Harness) Agent(id string) world.AgentState {
	h.T.Helper()
	a, ok := h.W.Agent(id)
	if !ok {
		h.T.Fatalf("unknown agent %q", id)
	}
	return a
}

func (h *Harness) Kind(p model.Pos) model.Kind {
	h.T.Helper()
	g := h.W.Grid()
	if p.Row < 0 || p.Row >= len(g) || p.Col < 0 || p.Col >= len(g[p.Row]) {
		h.T.Fatalf("cell %s out of bounds", p)
	}
	return g[p.Row][p.Col].Kind
}

// AssertUnique fails unless every agent sits on its own Occupant cell (or a
// Beam cell while masked).
func (h *Harness) AssertUnique() {
	h.T.Helper()
	seen := map[model.Pos]string{}
	g := h.W.Grid()
	for _, a := range h.W.Agents() {
		if other, ok := seen[a.Pos]; ok {
			h.T.Fatalf("%s and %s share %s", other, a.ID, a.Pos)
		}
		seen[a.Pos] = a.ID
		c := g[a.Pos.Row][a.Pos.Col]
		switch {
		case c.Kind == model.Occupant && c.AgentID == a.ID:
		case c.Kind == model.Beam && a.Masked:
		default:
			h.T.Fatalf("%s at %s but cell holds %v", a.ID, a.Pos, c)
		}
	}
	occupants := 0
	for _, row := range g {
		for _, c := range row {
			if c.Kind == model.Occupant {
				occupants++
			}
		}
	}
	masked := 0
	for _, a := range h.W.Agents() {
		if a.Masked {
			masked++
		}
	}
	if occupants+masked != len(seen) {
		h.T.Fatalf("grid holds %d occupant cells for %d agents (%d masked)", occupants, len(seen), masked)
	}
}

// ScriptedRand replays queued values and falls back to a seeded source once
// a queue is empty. Reset draws from it too, so queue values after New.
type ScriptedRand struct {
	Ints   []int
	Floats []float64

	fallback *rand.Rand
}

func (s *ScriptedRand) IntN(n int) int {
	if len(s.Ints) > 0 {
		v := s.Ints[0]
		s.Ints = s.Ints[1:]
		return v % n
	}
	return s.rng().IntN(n)
}

func (s *ScriptedRand) Float64() float64 {
	if len(s.Floats) > 0 {
		v := s.Floats[0]
		s.Floats = s.Floats[1:]
		return v
	}
	return s.rng().Float64()
}

func (s *ScriptedRand) rng() *rand.Rand {
	if s.fallback == nil {
		s.fallback = rand.New(rand.NewPCG(1, 2))
	}
	return s.fallback
}
