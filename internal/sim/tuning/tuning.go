package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the on-disk form of a world's parameters (tuning.yaml).
// Zero values fall back to Defaults when merged by Load.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	MapPath      string `yaml:"map_path"`
	NumAgents    int    `yaml:"num_agents"`
	Seed         int64  `yaml:"seed"`
	TickRateHz   int    `yaml:"tick_rate_hz"`
	EpisodeTicks int    `yaml:"episode_ticks"`

	BeamLength     int       `yaml:"beam_length"`
	ResourceRadius int       `yaml:"resource_radius"`
	ViewRadius     int       `yaml:"view_radius"` // 0 sends only the full grid
	SpawnProb      []float64 `yaml:"spawn_prob"`
	SpawnAttempts  int       `yaml:"spawn_attempts"`

	ResourceReward int `yaml:"resource_reward"`
	FireCost       int `yaml:"fire_cost"`
	HitPenalty     int `yaml:"hit_penalty"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		NumAgents:       5,
		Seed:            1,
		TickRateHz:      5,
		EpisodeTicks:    1000,
		BeamLength:      5,
		ResourceRadius:  2,
		SpawnProb:       []float64{0, 0.005, 0.02, 0.05},
		SpawnAttempts:   1000,
		ResourceReward:  1,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.NumAgents <= 0 {
		errs = append(errs, fmt.Errorf("num_agents must be > 0, got %d", t.NumAgents))
	}
	if t.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate_hz must be > 0, got %d", t.TickRateHz))
	}
	if t.EpisodeTicks < 0 {
		errs = append(errs, fmt.Errorf("episode_ticks must be >= 0, got %d", t.EpisodeTicks))
	}
	if t.BeamLength <= 0 {
		errs = append(errs, fmt.Errorf("beam_length must be > 0, got %d", t.BeamLength))
	}
	if t.ResourceRadius <= 0 {
		errs = append(errs, fmt.Errorf("resource_radius must be > 0, got %d", t.ResourceRadius))
	}
	if t.ViewRadius < 0 {
		errs = append(errs, fmt.Errorf("view_radius must be >= 0, got %d", t.ViewRadius))
	}
	if len(t.SpawnProb) == 0 {
		errs = append(errs, errors.New("spawn_prob must not be empty"))
	}
	prev := 0.0
	for i, p := range t.SpawnProb {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("spawn_prob[%d] out of [0,1]: %v", i, p))
		}
		if p < prev {
			errs = append(errs, fmt.Errorf("spawn_prob must be non-decreasing at %d", i))
		}
		prev = p
	}
	if t.SpawnAttempts <= 0 {
		errs = append(errs, fmt.Errorf("spawn_attempts must be > 0, got %d", t.SpawnAttempts))
	}
	return errors.Join(errs...)
}
