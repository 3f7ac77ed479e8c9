package protocol

// ObsMsg is sent to each controlling client after every tick.
type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Episode         uint64 `json:"episode"`
	AgentID         string `json:"agent_id"`

	Self   AgentObs   `json:"self"`
	Grid   GridObs    `json:"grid"`
	Agents []AgentObs `json:"agents"`
	// View is set when the world runs with a view radius.
	View *GridObs `json:"view,omitempty"`
}

type AgentObs struct {
	ID     string `json:"id"`
	Pos    [2]int `json:"pos"` // row, col
	Facing string `json:"facing"`
	Reward int    `json:"reward"`
	// Masked is set while another agent's beam covers this agent.
	Masked bool `json:"masked,omitempty"`
}

// GridObs carries the full grid as RLE-encoded cell codes:
// 0 empty, 1 wall, 2 resource, 3 beam, 4+i agent with index i.
type GridObs struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Encoding string `json:"encoding"`
	Data     string `json:"data"`
}

const (
	CodeEmpty    = 0
	CodeWall     = 1
	CodeResource = 2
	CodeBeam     = 3
	CodeAgent0   = 4
)
