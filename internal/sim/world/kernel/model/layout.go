package model

// Layout is the static geography of a map. It never changes after construction;
// a full reset rebuilds the grid from it.
type Layout struct {
	Width  int
	Height int

	Walls         []Pos
	ResourceSites []Pos
	SpawnSites    []Pos
}

func (l Layout) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < l.Height && p.Col >= 0 && p.Col < l.Width
}
