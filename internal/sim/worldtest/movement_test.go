package worldtest

import (
	"testing"

	world "commons.ai/internal/sim/world"
	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

func TestMove_ContestedCellHasOneWinner(t *testing.T) {
	for winner := 0; winner < 2; winner++ {
		h := New(t, world.Config{},
			"@@@@@",
			"@P P@",
			"@@@@@",
		)
		h.Rand.Ints = []int{winner}
		h.Step(map[string]string{"agent-0": "MOVE_RIGHT", "agent-1": "MOVE_LEFT"})

		w := AgentID(winner)
		l := AgentID(1 - winner)
		if got := h.Agent(w).Pos; got != P(1, 2) {
			t.Fatalf("winner %s at %s, want (1,2)", w, got)
		}
		if got, want := h.Agent(l).Pos, h.Map.Layout.SpawnSites[1-winner]; got != want {
			t.Fatalf("loser %s at %s, want %s", l, got, want)
		}
		if st := h.W.LastStats(); st.Contested != 1 || st.Moved != 1 {
			t.Fatalf("stats: %+v", st)
		}
		h.AssertUnique()
	}
}

func TestMove_MutualSwapBothStay(t *testing.T) {
	h := New(t, world.Config{},
		"@@@@",
		"@PP@",
		"@@@@",
	)
	h.Step(map[string]string{"agent-0": "MOVE_RIGHT", "agent-1": "MOVE_LEFT"})
	if got := h.Agent("agent-0").Pos; got != P(1, 1) {
		t.Fatalf("agent-0 moved to %s", got)
	}
	if got := h.Agent("agent-1").Pos; got != P(1, 2) {
		t.Fatalf("agent-1 moved to %s", got)
	}
	if h.W.LastStats().Swaps != 1 {
		t.Fatalf("expected one refused swap, got %+v", h.W.LastStats())
	}
	h.AssertUnique()
}

func TestMove_ChainFollowsVacatingOccupant(t *testing.T) {
	h := New(t, world.Config{},
		"@@@@@",
		"@PP @",
		"@@@@@",
	)
	h.Step(map[string]string{"agent-0": "MOVE_RIGHT", "agent-1": "MOVE_RIGHT"})
	if got := h.Agent("agent-0").Pos; got != P(1, 2) {
		t.Fatalf("agent-0 at %s", got)
	}
	if got := h.Agent("agent-1").Pos; got != P(1, 3) {
		t.Fatalf("agent-1 at %s", got)
	}
	if h.Kind(P(1, 1)) != model.Empty {
		t.Fatalf("vacated cell not cleared: %v", h.Kind(P(1, 1)))
	}
	h.AssertUnique()
}

func TestMove_StayingOccupantBlocks(t *testing.T) {
	h := New(t, world.Config{},
		"@@@@@",
		"@PP @",
		"@@@@@",
	)
	h.Step(map[string]string{"agent-0": "MOVE_RIGHT", "agent-1": "STAY"})
	if got := h.Agent("agent-0").Pos; got != P(1, 1) {
		t.Fatalf("agent-0 entered an occupied cell: %s", got)
	}
	h.Step(map[string]string{"agent-0": "MOVE_RIGHT"})
	if got := h.Agent("agent-0").Pos; got != P(1, 1) {
		t.Fatalf("agent-0 entered the cell of an idle agent: %s", got)
	}
	h.AssertUnique()
}

func TestMove_WallsNeverMove(t *testing.T) {
	h := New(t, world.Config{},
		"@@@",
		"@P@",
		"@@@",
	)
	before := h.W.Rows()
	for _, a := range []string{"MOVE_UP", "MOVE_DOWN", "MOVE_LEFT", "MOVE_RIGHT"} {
		h.Step(map[string]string{"agent-0": a})
		if got := h.Agent("agent-0").Pos; got != P(1, 1) {
			t.Fatalf("%s: agent moved into wall: %s", a, got)
		}
		if h.W.LastStats().Blocked != 1 {
			t.Fatalf("%s: expected blocked claim, got %+v", a, h.W.LastStats())
		}
	}
	after := h.W.Rows()
	for r := range before {
		if before[r] != after[r] {
			t.Fatalf("row %d changed: %q -> %q", r, before[r], after[r])
		}
	}
}

func TestMove_OutOfBoundsBlocked(t *testing.T) {
	h := New(t, world.Config{}, "P ")
	h.Step(map[string]string{"agent-0": "MOVE_UP"})
	h.Step(map[string]string{"agent-0": "MOVE_LEFT"})
	if got := h.Agent("agent-0").Pos; got != P(0, 0) {
		t.Fatalf("agent left the grid: %s", got)
	}
}

func TestMove_RelativeToFacing(t *testing.T) {
	cases := []struct {
		facing orient.Facing
		action string
		want   model.Pos
	}{
		{orient.Up, "MOVE_UP", P(1, 2)},
		{orient.Right, "MOVE_UP", P(2, 3)},
		{orient.Down, "MOVE_UP", P(3, 2)},
		{orient.Left, "MOVE_UP", P(2, 1)},
		{orient.Right, "MOVE_LEFT", P(1, 2)},
		{orient.Left, "MOVE_RIGHT", P(1, 2)},
		{orient.Down, "MOVE_DOWN", P(1, 2)},
		{orient.Up, "STAY", P(2, 2)},
	}
	for _, c := range cases {
		h := New(t, world.Config{},
			"@@@@@",
			"@   @",
			"@ P @",
			"@   @",
			"@@@@@",
		)
		h.Place("agent-0", P(2, 2), c.facing)
		h.Step(map[string]string{"agent-0": c.action})
		if got := h.Agent("agent-0").Pos; got != c.want {
			t.Fatalf("facing %s %s: got %s want %s", c.facing, c.action, got, c.want)
		}
		if got := h.Agent("agent-0").Facing; got != c.facing {
			t.Fatalf("movement changed facing to %s", got)
		}
	}
}

func TestTurn(t *testing.T) {
	h := New(t, world.Config{}, "@P@")
	h.Step(map[string]string{"agent-0": "TURN_CLOCKWISE"})
	if f := h.Agent("agent-0").Facing; f != orient.Right {
		t.Fatalf("after cw: %s", f)
	}
	h.Step(map[string]string{"agent-0": "TURN_COUNTERCLOCKWISE"})
	h.Step(map[string]string{"agent-0": "TURN_COUNTERCLOCKWISE"})
	if f := h.Agent("agent-0").Facing; f != orient.Left {
		t.Fatalf("after two ccw: %s", f)
	}
	if got := h.Agent("agent-0").Pos; got != P(0, 1) {
		t.Fatalf("turning moved the agent: %s", got)
	}
}

func TestHarvest_RewardAndRemoval(t *testing.T) {
	h := New(t, world.Config{},
		"@@@@",
		"@PA@",
		"@@@@",
	)
	before := h.W.LastStats().Resources
	h.Step(map[string]string{"agent-0": "MOVE_RIGHT"})
	a := h.Agent("agent-0")
	if a.Pos != P(1, 2) || a.Reward != 1 {
		t.Fatalf("unexpected agent after harvest: %+v", a)
	}
	if h.Kind(P(1, 2)) != model.Occupant {
		t.Fatalf("harvested cell should hold the agent")
	}
	st := h.W.LastStats()
	if st.Harvested != 1 || st.Resources != before-1 {
		t.Fatalf("stats: %+v (before %d)", st, before)
	}
	h.Step(map[string]string{"agent-0": "MOVE_LEFT"})
	if h.Kind(P(1, 2)) != model.Empty {
		t.Fatalf("resource came back without respawn: %v", h.Kind(P(1, 2)))
	}
}

func TestHarvest_ConfigurableReward(t *testing.T) {
	h := New(t, world.Config{ResourceReward: 3}, "PA")
	h.Place("agent-0", P(0, 0), orient.Up)
	h.Step(map[string]string{"agent-0": "MOVE_RIGHT"})
	if r := h.Agent("agent-0").Reward; r != 3 {
		t.Fatalf("reward %d, want 3", r)
	}
}
