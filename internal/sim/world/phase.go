package world

// Phase is the tick stage the world is in. Phases always run in declaration
// order and return to Idle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseClearBeams
	PhaseInterpretActions
	PhaseResolveMovement
	PhaseApplyRotations
	PhasePropagateBeams
	PhaseSpawnAndRespawn
	PhaseCommitReservations
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseClearBeams:
		return "ClearBeams"
	case PhaseInterpretActions:
		return "InterpretActions"
	case PhaseResolveMovement:
		return "ResolveMovement"
	case PhaseApplyRotations:
		return "ApplyRotations"
	case PhasePropagateBeams:
		return "PropagateBeams"
	case PhaseSpawnAndRespawn:
		return "SpawnAndRespawn"
	case PhaseCommitReservations:
		return "CommitReservations"
	default:
		return "Unknown"
	}
}
