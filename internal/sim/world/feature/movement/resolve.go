package movement

import (
	"sort"

	"commons.ai/internal/sim/world/feature/reservation"
	"commons.ai/internal/sim/world/kernel/model"
)

// Result is the outcome of one tick of movement resolution.
type Result struct {
	// Final holds exactly one position per agent in the pre-tick map.
	Final map[string]model.Pos

	Moved     int // agents whose final cell differs from their pre-tick cell
	Contested int // cells claimed by more than one mover
	Blocked   int // moves refused by walls, bounds or a staying occupant
	Swaps     int // exact mutual swaps refused
}

// Resolve assigns a final cell to every agent.
//
// pre holds every agent's pre-tick position; claims are the tick's movement
// reservations (at most one per agent). passable reports whether a cell can be
// entered at all (in bounds and not a wall). rng breaks ties among claimants
// of the same cell.
func Resolve(pre map[string]model.Pos, claims []reservation.Move, passable func(model.Pos) bool, rng model.Rand) Result {
	res := Result{Final: make(map[string]model.Pos, len(pre))}
	for id, p := range pre {
		res.Final[id] = p
	}

	// Phase 1: geometry. Blocked claims degrade to a stay.
	byCell := map[model.Pos][]string{}
	for _, c := range claims {
		from, ok := pre[c.AgentID]
		if !ok || c.Target == from {
			continue
		}
		if passable != nil && !passable(c.Target) {
			res.Blocked++
			continue
		}
		res.Final[c.AgentID] = c.Target
		byCell[c.Target] = append(byCell[c.Target], c.AgentID)
	}

	// Phase 2: one uniformly chosen winner per contested cell; losers stay.
	cells := make([]model.Pos, 0, len(byCell))
	for p, ids := range byCell {
		if len(ids) > 1 {
			cells = append(cells, p)
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })
	for _, p := range cells {
		ids := byCell[p]
		sort.Strings(ids)
		winner := ids[rng.IntN(len(ids))]
		for _, id := range ids {
			if id != winner {
				res.Final[id] = pre[id]
			}
		}
		res.Contested++
	}

	// Phase 3: chained moves. A mover may enter an occupied cell only when the
	// occupant vacates it to somewhere other than the mover's own cell. Reverting
	// one mover can strand another, so iterate to a fixed point.
	occupant := make(map[model.Pos]string, len(pre))
	ids := make([]string, 0, len(pre))
	for id, p := range pre {
		occupant[p] = id
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for changed := true; changed; {
		changed = false
		for _, id := range ids {
			from, to := pre[id], res.Final[id]
			if to == from {
				continue
			}
			other, ok := occupant[to]
			if !ok || other == id {
				continue
			}
			switch res.Final[other] {
			case pre[other]:
				res.Final[id] = from
				res.Blocked++
				changed = true
			case from:
				res.Final[id] = from
				res.Final[other] = pre[other]
				res.Swaps++
				changed = true
			}
		}
	}

	for id, p := range res.Final {
		if p != pre[id] {
			res.Moved++
		}
	}
	return res
}
