package world

import (
	"commons.ai/internal/sim/world/feature/respawn"
	"commons.ai/internal/sim/world/kernel/model"
)

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick        uint64 `json:"tick"`
	Episode     uint64 `json:"episode"`
	EpisodeTick uint64 `json:"episode_tick"`

	Agents    int `json:"agents"`
	Clients   int `json:"clients"`
	Observers int `json:"observers"`

	Resources         int     `json:"resources"`
	ResourceOccupancy float64 `json:"resource_occupancy"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS   float64        `json:"step_ms"`
	LastTick TickStats      `json:"last_tick"`
	Rewards  map[string]int `json:"rewards"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
	Reset int `json:"reset"`
}

func (w *World) publishMetrics(stepMS float64) {
	w.metrics.Store(WorldMetrics{
		Tick:              w.tick.Load(),
		Episode:           w.episode.Load(),
		EpisodeTick:       w.EpisodeTick(),
		Agents:            len(w.agents),
		Clients:           len(w.clients),
		Observers:         len(w.observers),
		Resources:         w.grid.CountAll(model.Resource),
		ResourceOccupancy: respawn.Occupancy(w.grid, w.layout.ResourceSites),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
			Reset: len(w.resetReq),
		},
		StepMS:   stepMS,
		LastTick: w.lastStats,
		Rewards:  w.rewards(),
	})
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
