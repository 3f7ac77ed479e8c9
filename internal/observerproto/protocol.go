package observerproto

import "commons.ai/internal/protocol"

// Version is the observer protocol version (separate from the agent WS protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: also send the symbol rows each tick.
	WithRows bool `json:"with_rows,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string               `json:"protocol_version"`
	WorldID         string               `json:"world_id"`
	Tick            uint64               `json:"tick"`
	Episode         uint64               `json:"episode"`
	WorldParams     protocol.WorldParams `json:"world_params"`
	MapDigest       string               `json:"map_digest,omitempty"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Episode         uint64 `json:"episode"`
	Reset           bool   `json:"reset,omitempty"`

	Grid    protocol.GridObs    `json:"grid"`
	Rows    []string            `json:"rows,omitempty"`
	Agents  []protocol.AgentObs `json:"agents"`
	Actions []RecordedAction    `json:"actions,omitempty"`
	Stats   TickStats           `json:"stats"`
}

type RecordedAction struct {
	AgentID string `json:"agent_id"`
	Action  string `json:"action"`
}

type TickStats struct {
	Moved     int `json:"moved"`
	Contested int `json:"contested"`
	Harvested int `json:"harvested"`
	Fired     int `json:"fired"`
	Hits      int `json:"hits"`
	Spawned   int `json:"spawned"`
	Resources int `json:"resources"`
}
