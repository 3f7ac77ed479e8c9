package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"commons.ai/internal/sim/world"
	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

func TestDraw(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(40, 12)

	f := Frame{
		Tick:    7,
		Episode: 2,
		Cells: [][]model.Cell{
			{{Kind: model.Wall}, {Kind: model.Wall}, {Kind: model.Wall}, {Kind: model.Wall}},
			{{Kind: model.Wall}, model.OccupiedBy("agent-0"), {Kind: model.Beam}, {Kind: model.Resource}},
			{{Kind: model.Wall}, {}, model.OccupiedBy("agent-1"), {Kind: model.Wall}},
		},
		Agents: []world.AgentState{
			{ID: "agent-0", Pos: model.Pos{Row: 1, Col: 1}, Facing: orient.Right, Reward: 3},
			{ID: "agent-1", Pos: model.Pos{Row: 2, Col: 2}, Facing: orient.Down, Masked: true},
		},
	}
	Draw(screen, f)
	screen.Show()

	want := []string{
		"####",
		"#>*o",
		"# v#",
	}
	for y, row := range want {
		for x, r := range row {
			mainc, _, _, _ := screen.GetContent(x, y)
			if mainc != r {
				t.Fatalf("cell (%d,%d) = %q, want %q", x, y, mainc, r)
			}
		}
	}

	_, _, style, _ := screen.GetContent(2, 2)
	if fg, _, _ := style.Decompose(); fg != tcell.ColorDarkGray {
		t.Fatalf("masked agent fg = %v", fg)
	}

	// Status line starts one row below the grid.
	hud := ""
	for x := 0; x < 4; x++ {
		mainc, _, _, _ := screen.GetContent(x, 4)
		hud += string(mainc)
	}
	if hud != "tick" {
		t.Fatalf("hud = %q", hud)
	}
}

func TestGlyph_UnknownAgent(t *testing.T) {
	if g := Glyph(model.OccupiedBy("ghost"), nil); g != '?' {
		t.Fatalf("glyph = %q", g)
	}
	if g := Glyph(model.Cell{}, nil); g != ' ' {
		t.Fatalf("empty glyph = %q", g)
	}
}
