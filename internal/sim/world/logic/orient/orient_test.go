package orient

import (
	"testing"

	"commons.ai/internal/sim/world/kernel/model"
)

func TestRotate_ForwardMatchesFacing(t *testing.T) {
	forward := model.Pos{Row: -1}
	for _, f := range All {
		if got := Rotate(forward, f); got != f.Vector() {
			t.Fatalf("facing %s: forward rotated to %v, want %v", f, got, f.Vector())
		}
	}
}

func TestRotate_Table(t *testing.T) {
	left := model.Pos{Col: -1}
	cases := []struct {
		f    Facing
		want model.Pos
	}{
		{Up, model.Pos{Col: -1}},
		{Right, model.Pos{Row: -1}},
		{Down, model.Pos{Col: 1}},
		{Left, model.Pos{Row: 1}},
	}
	for _, c := range cases {
		if got := Rotate(left, c.f); got != c.want {
			t.Fatalf("MOVE_LEFT facing %s: got %v want %v", c.f, got, c.want)
		}
	}
	if got := Rotate(model.Pos{}, Down); got != (model.Pos{}) {
		t.Fatalf("zero vector must stay zero, got %v", got)
	}
}

func TestTurnCycle(t *testing.T) {
	cw := map[Facing]Facing{Left: Up, Up: Right, Right: Down, Down: Left}
	for from, to := range cw {
		if got := from.Clockwise(); got != to {
			t.Fatalf("%s clockwise: got %s want %s", from, got, to)
		}
		if got := to.CounterClockwise(); got != from {
			t.Fatalf("%s counter-clockwise: got %s want %s", to, got, from)
		}
	}
}

func TestParse(t *testing.T) {
	for _, f := range All {
		got, err := Parse(f.String())
		if err != nil || got != f {
			t.Fatalf("Parse(%s): got %v err=%v", f, got, err)
		}
	}
	if _, err := Parse("NORTH"); err == nil {
		t.Fatalf("expected error for unknown facing")
	}
}
