package world

import (
	"fmt"

	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

type Agent struct {
	ID     string
	Index  int
	Pos    model.Pos
	Facing orient.Facing
	Reward int

	// Masked is set while another agent's beam covers this agent's cell.
	Masked bool
}

// AgentState is the read-only view handed out of the world.
type AgentState struct {
	ID     string        `json:"id"`
	Pos    model.Pos     `json:"pos"`
	Facing orient.Facing `json:"facing"`
	Reward int           `json:"reward"`
	Masked bool          `json:"masked,omitempty"`
}

func (a *Agent) State() AgentState {
	return AgentState{ID: a.ID, Pos: a.Pos, Facing: a.Facing, Reward: a.Reward, Masked: a.Masked}
}

func agentID(i int) string { return fmt.Sprintf("agent-%d", i) }
