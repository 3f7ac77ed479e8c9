package world

import (
	"commons.ai/internal/sim/tuning"
	"commons.ai/internal/sim/world/feature/beam"
	"commons.ai/internal/sim/world/feature/respawn"
	"commons.ai/internal/sim/world/kernel/model"
)

type Config struct {
	ID           string
	Seed         int64
	NumAgents    int
	TickRateHz   int
	EpisodeTicks int // 0 disables automatic episode resets in Run

	BeamLength     int
	ResourceRadius int
	ViewRadius     int // 0 sends only the full grid in OBS
	SpawnProb      []float64
	SpawnAttempts  int

	ResourceReward int
	FireCost       int
	HitPenalty     int

	// Rand overrides the seeded source. Tests inject scripted sources here.
	Rand model.Rand
}

// ConfigFromTuning maps tuning.yaml values onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) Config {
	return Config{
		ID:             id,
		Seed:           t.Seed,
		NumAgents:      t.NumAgents,
		TickRateHz:     t.TickRateHz,
		EpisodeTicks:   t.EpisodeTicks,
		BeamLength:     t.BeamLength,
		ResourceRadius: t.ResourceRadius,
		ViewRadius:     t.ViewRadius,
		SpawnProb:      append([]float64(nil), t.SpawnProb...),
		SpawnAttempts:  t.SpawnAttempts,
		ResourceReward: t.ResourceReward,
		FireCost:       t.FireCost,
		HitPenalty:     t.HitPenalty,
	}
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "harvest"
	}
	if c.NumAgents <= 0 {
		c.NumAgents = 1
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.EpisodeTicks < 0 {
		c.EpisodeTicks = 0
	}
	if c.BeamLength <= 0 {
		c.BeamLength = beam.DefaultLength
	}
	if c.ResourceRadius <= 0 {
		c.ResourceRadius = respawn.DefaultRadius
	}
	if c.ViewRadius < 0 {
		c.ViewRadius = 0
	}
	if len(c.SpawnProb) == 0 {
		c.SpawnProb = append([]float64(nil), respawn.DefaultTable...)
	}
	if c.SpawnAttempts <= 0 {
		c.SpawnAttempts = 1000
	}
	if c.ResourceReward == 0 {
		c.ResourceReward = 1
	}
}
