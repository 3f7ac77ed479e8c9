package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session routing.
	ErrWorldBusy    = "E_WORLD_BUSY"
	ErrAgentTaken   = "E_AGENT_TAKEN"
	ErrUnknownAgent = "E_UNKNOWN_AGENT"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidAction = "E_INVALID_ACTION"
	ErrStale         = "E_STALE"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrAgentTaken:      {},
	ErrUnknownAgent:    {},
	ErrBadRequest:      {},
	ErrInvalidAction:   {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
