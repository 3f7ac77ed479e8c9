package movement

import (
	"math/rand/v2"
	"testing"

	"commons.ai/internal/sim/world/feature/reservation"
	"commons.ai/internal/sim/world/kernel/model"
)

type fixedRand struct{ n int }

func (f fixedRand) IntN(k int) int   { return f.n % k }
func (f fixedRand) Float64() float64 { return 0 }

func p(r, c int) model.Pos { return model.Pos{Row: r, Col: c} }

func open(model.Pos) bool { return true }

func assertUnique(t *testing.T, final map[string]model.Pos) {
	t.Helper()
	seen := map[model.Pos]string{}
	for id, pos := range final {
		if prev, ok := seen[pos]; ok {
			t.Fatalf("%s and %s both end at %v", prev, id, pos)
		}
		seen[pos] = id
	}
}

func TestResolve_ContestedCellOneWinner(t *testing.T) {
	pre := map[string]model.Pos{"a": p(1, 0), "b": p(1, 2), "c": p(0, 1)}
	claims := []reservation.Move{
		{AgentID: "a", Target: p(1, 1)},
		{AgentID: "b", Target: p(1, 1)},
		{AgentID: "c", Target: p(1, 1)},
	}
	for pick := 0; pick < 3; pick++ {
		res := Resolve(pre, claims, open, fixedRand{n: pick})
		winners := 0
		for id, pos := range res.Final {
			switch pos {
			case p(1, 1):
				winners++
			case pre[id]:
			default:
				t.Fatalf("%s ended at unexpected %v", id, pos)
			}
		}
		if winners != 1 || res.Contested != 1 || res.Moved != 1 {
			t.Fatalf("pick=%d: winners=%d result=%+v", pick, winners, res)
		}
		assertUnique(t, res.Final)
	}
}

func TestResolve_WinnerIsUniform(t *testing.T) {
	pre := map[string]model.Pos{"a": p(1, 0), "b": p(1, 2)}
	claims := []reservation.Move{{AgentID: "a", Target: p(1, 1)}, {AgentID: "b", Target: p(1, 1)}}
	rng := rand.New(rand.NewPCG(7, 11))
	wins := 0
	const trials = 20000
	for i := 0; i < trials; i++ {
		if Resolve(pre, claims, open, rng).Final["a"] == p(1, 1) {
			wins++
		}
	}
	if wins < trials*45/100 || wins > trials*55/100 {
		t.Fatalf("a won %d of %d", wins, trials)
	}
}

func TestResolve_MutualSwapBothStay(t *testing.T) {
	pre := map[string]model.Pos{"a": p(0, 0), "b": p(0, 1)}
	claims := []reservation.Move{{AgentID: "a", Target: p(0, 1)}, {AgentID: "b", Target: p(0, 0)}}
	res := Resolve(pre, claims, open, fixedRand{})
	if res.Final["a"] != pre["a"] || res.Final["b"] != pre["b"] {
		t.Fatalf("swap was granted: %+v", res.Final)
	}
	if res.Swaps != 1 || res.Moved != 0 {
		t.Fatalf("unexpected counters: %+v", res)
	}
}

func TestResolve_ChainFollowsVacatingOccupant(t *testing.T) {
	// a -> b's cell, b -> empty cell: both move.
	pre := map[string]model.Pos{"a": p(0, 0), "b": p(0, 1)}
	claims := []reservation.Move{{AgentID: "a", Target: p(0, 1)}, {AgentID: "b", Target: p(0, 2)}}
	res := Resolve(pre, claims, open, fixedRand{})
	if res.Final["a"] != p(0, 1) || res.Final["b"] != p(0, 2) {
		t.Fatalf("chain not granted: %+v", res.Final)
	}
}

func TestResolve_StayingOccupantBlocks(t *testing.T) {
	// c does not act at all; b stays explicitly.
	pre := map[string]model.Pos{"a": p(0, 0), "b": p(0, 1), "c": p(2, 2), "d": p(2, 0)}
	claims := []reservation.Move{
		{AgentID: "a", Target: p(0, 1)},
		{AgentID: "b", Target: p(0, 1)},
		{AgentID: "d", Target: p(2, 1)},
	}
	res := Resolve(pre, claims, open, fixedRand{})
	if res.Final["a"] != pre["a"] {
		t.Fatalf("a entered a cell whose occupant stays: %+v", res.Final)
	}
	if res.Final["d"] != p(2, 1) {
		t.Fatalf("d should move into the free cell: %+v", res.Final)
	}

	claims = []reservation.Move{{AgentID: "d", Target: p(2, 2)}}
	res = Resolve(pre, claims, open, fixedRand{})
	if res.Final["d"] != pre["d"] {
		t.Fatalf("d entered the cell of an agent with no action: %+v", res.Final)
	}
}

func TestResolve_BlockedChainCascades(t *testing.T) {
	// c is blocked by a wall, so b cannot enter c's cell, so a cannot enter b's cell.
	pre := map[string]model.Pos{"a": p(0, 0), "b": p(0, 1), "c": p(0, 2)}
	wall := p(0, 3)
	claims := []reservation.Move{
		{AgentID: "a", Target: p(0, 1)},
		{AgentID: "b", Target: p(0, 2)},
		{AgentID: "c", Target: wall},
	}
	res := Resolve(pre, claims, func(q model.Pos) bool { return q != wall }, fixedRand{})
	for id, pos := range res.Final {
		if pos != pre[id] {
			t.Fatalf("%s moved to %v", id, pos)
		}
	}
	if res.Blocked != 3 {
		t.Fatalf("blocked=%d", res.Blocked)
	}
}

func TestResolve_LoserStrandsFollower(t *testing.T) {
	// a and b contest X; whoever loses stays, and c (trying to enter the loser's
	// cell) must then stay too.
	pre := map[string]model.Pos{"a": p(1, 0), "b": p(1, 2), "c": p(2, 0)}
	claims := []reservation.Move{
		{AgentID: "a", Target: p(1, 1)},
		{AgentID: "b", Target: p(1, 1)},
		{AgentID: "c", Target: p(1, 0)},
	}
	res := Resolve(pre, claims, open, fixedRand{n: 1}) // b wins
	if res.Final["b"] != p(1, 1) || res.Final["a"] != pre["a"] || res.Final["c"] != pre["c"] {
		t.Fatalf("unexpected result: %+v", res.Final)
	}
	assertUnique(t, res.Final)

	res = Resolve(pre, claims, open, fixedRand{n: 0}) // a wins, c follows
	if res.Final["a"] != p(1, 1) || res.Final["c"] != p(1, 0) || res.Final["b"] != pre["b"] {
		t.Fatalf("unexpected result: %+v", res.Final)
	}
	assertUnique(t, res.Final)
}

func TestResolve_RotationCycleAllowed(t *testing.T) {
	pre := map[string]model.Pos{"a": p(0, 0), "b": p(0, 1), "c": p(1, 1), "d": p(1, 0)}
	claims := []reservation.Move{
		{AgentID: "a", Target: p(0, 1)},
		{AgentID: "b", Target: p(1, 1)},
		{AgentID: "c", Target: p(1, 0)},
		{AgentID: "d", Target: p(0, 0)},
	}
	res := Resolve(pre, claims, open, fixedRand{})
	if res.Moved != 4 {
		t.Fatalf("expected the 4-cycle to rotate, got %+v", res)
	}
	assertUnique(t, res.Final)
}

func TestResolve_RandomBatchesKeepCellsUnique(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	steps := []model.Pos{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}, {}}
	for trial := 0; trial < 500; trial++ {
		pre := map[string]model.Pos{}
		used := map[model.Pos]bool{}
		for len(pre) < 8 {
			q := p(rng.IntN(4), rng.IntN(4))
			if used[q] {
				continue
			}
			used[q] = true
			pre[string(rune('a'+len(pre)))] = q
		}
		var claims []reservation.Move
		for id, q := range pre {
			claims = append(claims, reservation.Move{AgentID: id, Target: q.Add(steps[rng.IntN(len(steps))])})
		}
		inside := func(q model.Pos) bool { return q.Row >= 0 && q.Row < 4 && q.Col >= 0 && q.Col < 4 }
		res := Resolve(pre, claims, inside, rng)
		assertUnique(t, res.Final)
		for id, q := range res.Final {
			if !inside(q) {
				t.Fatalf("%s left the grid: %v", id, q)
			}
		}
	}
}
