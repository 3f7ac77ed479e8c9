package world

import (
	"errors"

	"commons.ai/internal/sim/world/feature/actions"
)

var (
	// ErrInvalidAction rejects an action name outside the vocabulary.
	ErrInvalidAction = actions.ErrInvalidAction
	// ErrUnknownAgent rejects an action addressed to an agent that does not exist.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrMapInconsistency is returned when the layout cannot host the configured agents.
	ErrMapInconsistency = errors.New("map inconsistency")
	// ErrTickInProgress is returned when Step or Reset is called during a tick.
	ErrTickInProgress = errors.New("tick in progress")
)
