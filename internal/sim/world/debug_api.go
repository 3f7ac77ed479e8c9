package world

import (
	"fmt"

	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

// ---- Debug/Test Helpers ----
//
// These helpers exist to allow black-box tests in sibling packages (e.g. internal/sim/worldtest)
// to set up deterministic preconditions without reaching into world internals.
//
// They are NOT safe to call concurrently with Run(). Prefer using them only in tests that drive
// the world via Step(), from a single goroutine.

// Placement is a requested agent position and facing.
type Placement struct {
	Pos    model.Pos
	Facing orient.Facing
}

// DebugArrange moves the listed agents in one go. Targets must be in bounds,
// not walls, and distinct from every other agent's final cell. Whatever the
// target cell held is overwritten by the agent.
func (w *World) DebugArrange(place map[string]Placement) error {
	if w.inTick {
		return ErrTickInProgress
	}
	final := make(map[string]model.Pos, len(w.agents))
	for id, a := range w.agents {
		final[id] = a.Pos
	}
	for id, p := range place {
		if w.agents[id] == nil {
			return fmt.Errorf("%w: %q", ErrUnknownAgent, id)
		}
		if !w.passable(p.Pos) {
			return fmt.Errorf("debug arrange %s: %s is not passable", id, p.Pos)
		}
		final[id] = p.Pos
	}
	seen := make(map[model.Pos]string, len(final))
	for _, id := range w.order {
		p := final[id]
		if other, ok := seen[p]; ok {
			return fmt.Errorf("debug arrange: %s and %s both at %s", other, id, p)
		}
		seen[p] = id
	}

	for id := range place {
		a := w.agents[id]
		if c, _ := w.grid.At(a.Pos); c.Kind == model.Occupant && c.AgentID == id {
			_ = w.grid.Set(a.Pos, model.Cell{Kind: model.Empty})
		}
	}
	for id, p := range place {
		a := w.agents[id]
		a.Pos = p.Pos
		a.Facing = p.Facing
		_ = w.grid.Set(p.Pos, model.OccupiedBy(id))
	}
	return nil
}

// DebugSetCell overwrites one non-agent cell. Occupant is rejected; use DebugArrange.
func (w *World) DebugSetCell(p model.Pos, k model.Kind) error {
	if w.inTick {
		return ErrTickInProgress
	}
	if k == model.Occupant {
		return fmt.Errorf("debug set cell %s: use DebugArrange for agents", p)
	}
	if a := w.agentAt(p); a != nil {
		return fmt.Errorf("debug set cell %s: occupied by %s", p, a.ID)
	}
	return w.grid.Set(p, model.Cell{Kind: k})
}
