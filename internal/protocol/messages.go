package protocol

// HELLO (client -> server). AgentID optionally requests a specific agent;
// empty takes the first agent without a controller.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentID         string `json:"agent_id,omitempty"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	AgentID         string      `json:"agent_id"`
	WorldParams     WorldParams `json:"world_params"`
	Actions         []string    `json:"actions"`
}

type WorldParams struct {
	WorldID      string `json:"world_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NumAgents    int    `json:"num_agents"`
	TickRateHz   int    `json:"tick_rate_hz"`
	EpisodeTicks int    `json:"episode_ticks"`
	BeamLength   int    `json:"beam_length"`
	ViewRadius   int    `json:"view_radius,omitempty"`
	Seed         int64  `json:"seed"`
}

// ACT (client -> server). One action for the sender's agent; the latest ACT
// received before a tick boundary wins.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick,omitempty"`
	Action          string `json:"action"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}
