package actions

import (
	"errors"
	"fmt"

	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

// Name is an action from the harness vocabulary.
type Name string

const (
	MoveLeft             Name = "MOVE_LEFT"
	MoveRight            Name = "MOVE_RIGHT"
	MoveUp               Name = "MOVE_UP"
	MoveDown             Name = "MOVE_DOWN"
	Stay                 Name = "STAY"
	TurnClockwise        Name = "TURN_CLOCKWISE"
	TurnCounterclockwise Name = "TURN_COUNTERCLOCKWISE"
	Fire                 Name = "FIRE"
)

// Names lists the vocabulary in its canonical order.
var Names = []Name{MoveLeft, MoveRight, MoveUp, MoveDown, Stay, TurnClockwise, TurnCounterclockwise, Fire}

var ErrInvalidAction = errors.New("invalid action")

func Parse(s string) (Name, error) {
	n := Name(s)
	switch n {
	case MoveLeft, MoveRight, MoveUp, MoveDown, Stay, TurnClockwise, TurnCounterclockwise, Fire:
		return n, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// EffectKind tells the orchestrator what an action does this tick.
type EffectKind uint8

const (
	EffectMove EffectKind = iota + 1
	EffectTurn
	EffectFire
)

func (k EffectKind) String() string {
	switch k {
	case EffectMove:
		return "MOVE"
	case EffectTurn:
		return "TURN"
	case EffectFire:
		return "FIRE"
	default:
		return "NONE"
	}
}

// Effect is the interpreted form of one agent's action.
//   - EffectMove: Target is the cell to reserve (equal to the position for STAY).
//   - EffectTurn: Facing is the new orientation.
//   - EffectFire: Target is the firing position and Facing the beam direction.
type Effect struct {
	Kind   EffectKind
	Target model.Pos
	Facing orient.Facing
}

// moveVector is expressed for an Up-facing agent.
func moveVector(n Name) (model.Pos, bool) {
	switch n {
	case MoveLeft:
		return model.Pos{Col: -1}, true
	case MoveRight:
		return model.Pos{Col: 1}, true
	case MoveUp:
		return model.Pos{Row: -1}, true
	case MoveDown:
		return model.Pos{Row: 1}, true
	case Stay:
		return model.Pos{}, true
	default:
		return model.Pos{}, false
	}
}

// Interpret converts an action into exactly one effect for an agent at pos facing f.
func Interpret(n Name, pos model.Pos, f orient.Facing) (Effect, error) {
	if v, ok := moveVector(n); ok {
		return Effect{Kind: EffectMove, Target: pos.Add(orient.Rotate(v, f)), Facing: f}, nil
	}
	switch n {
	case TurnClockwise:
		return Effect{Kind: EffectTurn, Target: pos, Facing: f.Clockwise()}, nil
	case TurnCounterclockwise:
		return Effect{Kind: EffectTurn, Target: pos, Facing: f.CounterClockwise()}, nil
	case Fire:
		return Effect{Kind: EffectFire, Target: pos, Facing: f}, nil
	default:
		return Effect{}, fmt.Errorf("%w: %q", ErrInvalidAction, string(n))
	}
}
