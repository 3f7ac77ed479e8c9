package model

import "fmt"

// Pos is a grid coordinate. It doubles as a (dRow, dCol) offset.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) Add(o Pos) Pos { return Pos{Row: p.Row + o.Row, Col: p.Col + o.Col} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Less orders positions row-major.
func (p Pos) Less(o Pos) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// Rand is the seedable random source injected into the stochastic parts of a tick.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}
