package orient

import (
	"fmt"

	"commons.ai/internal/sim/world/kernel/model"
)

// Facing is one of the four discrete orientations. The values follow the
// clockwise cycle so that a clockwise turn is +1 mod 4.
type Facing uint8

const (
	Up Facing = iota
	Right
	Down
	Left
)

var All = [4]Facing{Up, Right, Down, Left}

func (f Facing) String() string {
	switch f {
	case Up:
		return "UP"
	case Right:
		return "RIGHT"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	default:
		return fmt.Sprintf("FACING(%d)", uint8(f))
	}
}

func Parse(s string) (Facing, error) {
	switch s {
	case "UP":
		return Up, nil
	case "RIGHT":
		return Right, nil
	case "DOWN":
		return Down, nil
	case "LEFT":
		return Left, nil
	default:
		return 0, fmt.Errorf("unknown facing %q", s)
	}
}

// Vector is the unit step for f in (row, col). Rows grow downwards.
func (f Facing) Vector() model.Pos {
	switch f & 3 {
	case Up:
		return model.Pos{Row: -1}
	case Right:
		return model.Pos{Col: 1}
	case Down:
		return model.Pos{Row: 1}
	default: // Left
		return model.Pos{Col: -1}
	}
}

// Clockwise follows Left→Up→Right→Down→Left.
func (f Facing) Clockwise() Facing { return (f + 1) & 3 }

func (f Facing) CounterClockwise() Facing { return (f + 3) & 3 }

// Rotate maps an action vector expressed for an Up-facing agent into the
// absolute frame of an agent facing f.
func Rotate(v model.Pos, f Facing) model.Pos {
	switch f & 3 {
	case Up:
		return v
	case Left:
		return rotateCCW(v)
	case Right:
		return rotateCW(v)
	default: // Down
		return rotateCCW(rotateCCW(v))
	}
}

// rotateCW turns (dRow, dCol) a quarter turn clockwise on screen.
func rotateCW(v model.Pos) model.Pos { return model.Pos{Row: v.Col, Col: -v.Row} }

func rotateCCW(v model.Pos) model.Pos { return model.Pos{Row: -v.Col, Col: v.Row} }

func (f Facing) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Facing) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
