// Package reservation holds the per-tick buffer of pending cell effects.
package reservation

import "commons.ai/internal/sim/world/kernel/model"

// Reservation is one of Move, Spawn or Beam.
type Reservation interface {
	Cell() model.Pos
	sealed()
}

// Move claims Target for AgentID. A claim on the agent's own cell is a stay.
type Move struct {
	Target  model.Pos
	AgentID string
}

// Spawn places a resource at a resource site.
type Spawn struct {
	At model.Pos
}

// Beam marks a traversed cell. Hidden is set when the cell held a resource.
type Beam struct {
	At      model.Pos
	Hidden  bool
	AgentID string
}

func (m Move) Cell() model.Pos  { return m.Target }
func (s Spawn) Cell() model.Pos { return s.At }
func (b Beam) Cell() model.Pos  { return b.At }

func (Move) sealed()  {}
func (Spawn) sealed() {}
func (Beam) sealed()  {}

// Buffer accumulates reservations in arrival order. Commit applies the
// not-yet-committed non-movement entries; movement claims are consumed by the
// conflict resolver instead.
type Buffer struct {
	items     []Reservation
	committed int
}

func (b *Buffer) Add(rs ...Reservation) { b.items = append(b.items, rs...) }

func (b *Buffer) Len() int { return len(b.items) }

func (b *Buffer) Moves() []Move {
	var out []Move
	for _, r := range b.items {
		if m, ok := r.(Move); ok {
			out = append(out, m)
		}
	}
	return out
}

// Commit calls apply for every pending Spawn/Beam in order and marks them committed.
func (b *Buffer) Commit(apply func(Reservation)) int {
	n := 0
	for _, r := range b.items[b.committed:] {
		switch r.(type) {
		case Move:
			continue
		case Spawn, Beam:
			apply(r)
			n++
		}
	}
	b.committed = len(b.items)
	return n
}

func (b *Buffer) Reset() {
	clear(b.items)
	b.items = b.items[:0]
	b.committed = 0
}
