package beam

import (
	"commons.ai/internal/sim/world/feature/reservation"
	"commons.ai/internal/sim/world/kernel/model"
)

// DefaultLength is how many cells a beam travels in open space.
const DefaultLength = 5

// View is the read-only grid access a trace needs.
type View interface {
	At(p model.Pos) (model.Cell, bool)
}

// Trace walks from (not including) from along dir for up to length cells and
// returns the cells the beam enters. It stops before the first cell that is out
// of bounds or a wall. Cells holding a resource come back with Hidden set.
func Trace(v View, from, dir model.Pos, length int, agentID string) []reservation.Beam {
	if length <= 0 || dir == (model.Pos{}) {
		return nil
	}
	out := make([]reservation.Beam, 0, length)
	cur := from
	for i := 0; i < length; i++ {
		next := cur.Add(dir)
		c, ok := v.At(next)
		if !ok || c.Kind == model.Wall {
			break
		}
		out = append(out, reservation.Beam{At: next, Hidden: c.Kind == model.Resource, AgentID: agentID})
		cur = next
	}
	return out
}
