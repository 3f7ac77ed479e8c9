package model

// Kind is the symbol held by a grid cell.
type Kind uint8

const (
	Empty Kind = iota
	Wall
	Resource
	Occupant
	Beam
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "EMPTY"
	case Wall:
		return "WALL"
	case Resource:
		return "RESOURCE"
	case Occupant:
		return "OCCUPANT"
	case Beam:
		return "BEAM"
	default:
		return "UNKNOWN"
	}
}

// Symbol is the single-character map form of k.
func (k Kind) Symbol() byte {
	switch k {
	case Wall:
		return '@'
	case Resource:
		return 'A'
	case Occupant:
		return 'P'
	case Beam:
		return 'F'
	default:
		return ' '
	}
}

// Cell is one grid square. AgentID is set only when Kind is Occupant.
type Cell struct {
	Kind    Kind   `json:"kind"`
	AgentID string `json:"agent_id,omitempty"`
}

func OccupiedBy(id string) Cell { return Cell{Kind: Occupant, AgentID: id} }
