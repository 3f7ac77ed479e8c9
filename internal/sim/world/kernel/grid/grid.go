package grid

import (
	"errors"
	"fmt"

	"commons.ai/internal/sim/world/kernel/model"
)

var ErrOutOfBounds = errors.New("out of bounds")

// Grid is a dense row-major array of cells.
type Grid struct {
	width  int
	height int
	cells  []model.Cell
}

func New(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{width: width, height: height, cells: make([]model.Cell, width*height)}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(p model.Pos) bool {
	return p.Row >= 0 && p.Row < g.height && p.Col >= 0 && p.Col < g.width
}

func (g *Grid) At(p model.Pos) (model.Cell, bool) {
	if !g.InBounds(p) {
		return model.Cell{}, false
	}
	return g.cells[p.Row*g.width+p.Col], true
}

// Kind reports the symbol at p; out-of-bounds positions read as Wall.
func (g *Grid) Kind(p model.Pos) model.Kind {
	c, ok := g.At(p)
	if !ok {
		return model.Wall
	}
	return c.Kind
}

func (g *Grid) Set(p model.Pos, c model.Cell) error {
	if !g.InBounds(p) {
		return fmt.Errorf("set %s: %w", p, ErrOutOfBounds)
	}
	if c.Kind != model.Occupant {
		c.AgentID = ""
	}
	g.cells[p.Row*g.width+p.Col] = c
	return nil
}

// Count returns how many cells of kind k lie in the square window of the given
// radius around center. The window is clipped to the grid.
func (g *Grid) Count(center model.Pos, radius int, k model.Kind) int {
	n := 0
	for r := center.Row - radius; r <= center.Row+radius; r++ {
		if r < 0 || r >= g.height {
			continue
		}
		for c := center.Col - radius; c <= center.Col+radius; c++ {
			if c < 0 || c >= g.width {
				continue
			}
			if g.cells[r*g.width+c].Kind == k {
				n++
			}
		}
	}
	return n
}

// CountAll returns how many cells of kind k the grid holds.
func (g *Grid) CountAll(k model.Kind) int {
	n := 0
	for _, c := range g.cells {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Rows returns a copy of the grid as a 2D array.
func (g *Grid) Rows() [][]model.Cell {
	out := make([][]model.Cell, g.height)
	for r := 0; r < g.height; r++ {
		row := make([]model.Cell, g.width)
		copy(row, g.cells[r*g.width:(r+1)*g.width])
		out[r] = row
	}
	return out
}

// Symbols renders each row using the map alphabet.
func (g *Grid) Symbols() []string {
	out := make([]string, g.height)
	buf := make([]byte, g.width)
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			buf[c] = g.cells[r*g.width+c].Kind.Symbol()
		}
		out[r] = string(buf)
	}
	return out
}
