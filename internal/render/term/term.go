// Package term draws a harvest grid onto a tcell screen.
package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"commons.ai/internal/sim/world"
	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

// Frame is everything Draw needs for one picture.
type Frame struct {
	Tick    uint64
	Episode uint64
	Cells   [][]model.Cell
	Agents  []world.AgentState
}

// FrameOf snapshots w. Call it from the goroutine that steps w.
func FrameOf(w *world.World) Frame {
	return Frame{Tick: w.CurrentTick(), Episode: w.Episode(), Cells: w.Grid(), Agents: w.Agents()}
}

var (
	styleWall     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleResource = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleBeam     = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleMasked   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)

	agentColors = []tcell.Color{
		tcell.ColorRed, tcell.ColorBlue, tcell.ColorPurple, tcell.ColorTeal,
		tcell.ColorOrange, tcell.ColorFuchsia, tcell.ColorAqua, tcell.ColorOlive,
	}
)

// Glyph returns the rune drawn for c. Agents are drawn as an arrow in the
// direction they face.
func Glyph(c model.Cell, agents map[string]world.AgentState) rune {
	switch c.Kind {
	case model.Wall:
		return '#'
	case model.Resource:
		return 'o'
	case model.Beam:
		return '*'
	case model.Occupant:
		a, ok := agents[c.AgentID]
		if !ok {
			return '?'
		}
		switch a.Facing {
		case orient.Up:
			return '^'
		case orient.Right:
			return '>'
		case orient.Down:
			return 'v'
		case orient.Left:
			return '<'
		}
		return '?'
	default:
		return ' '
	}
}

// Draw clears s and paints f with the grid at the top-left corner and a
// status line per agent below it. It does not call Show.
func Draw(s tcell.Screen, f Frame) {
	s.Clear()

	byID := make(map[string]world.AgentState, len(f.Agents))
	index := make(map[string]int, len(f.Agents))
	for i, a := range f.Agents {
		byID[a.ID] = a
		index[a.ID] = i
	}

	for r, row := range f.Cells {
		for c, cell := range row {
			s.SetContent(c, r, Glyph(cell, byID), nil, cellStyle(cell, byID, index))
		}
	}

	y := len(f.Cells) + 1
	drawText(s, 0, y, styleHUD, fmt.Sprintf("tick %d  episode %d", f.Tick, f.Episode))
	for i, a := range f.Agents {
		st := tcell.StyleDefault.Foreground(agentColors[i%len(agentColors)])
		line := fmt.Sprintf("%-8s %5d  %s", a.ID, a.Reward, a.Facing)
		if a.Masked {
			line += "  masked"
		}
		drawText(s, 0, y+1+i, st, line)
	}
}

func cellStyle(c model.Cell, agents map[string]world.AgentState, index map[string]int) tcell.Style {
	switch c.Kind {
	case model.Wall:
		return styleWall
	case model.Resource:
		return styleResource
	case model.Beam:
		return styleBeam
	case model.Occupant:
		if a, ok := agents[c.AgentID]; ok && a.Masked {
			return styleMasked
		}
		return tcell.StyleDefault.Foreground(agentColors[index[c.AgentID]%len(agentColors)]).Bold(true)
	}
	return tcell.StyleDefault
}

func drawText(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, st)
	}
}
