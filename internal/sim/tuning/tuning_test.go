package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	body := "num_agents: 3\nseed: 42\nspawn_prob: [0, 0.1, 0.2]\nfire_cost: 1\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.NumAgents != 3 || tu.Seed != 42 || tu.FireCost != 1 {
		t.Fatalf("unexpected tuning: %+v", tu)
	}
	if tu.BeamLength != 5 || tu.ResourceRadius != 2 || tu.TickRateHz != 5 {
		t.Fatalf("defaults not kept: %+v", tu)
	}
	if len(tu.SpawnProb) != 3 || tu.SpawnProb[2] != 0.2 {
		t.Fatalf("spawn_prob: %v", tu.SpawnProb)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("num_agents: 0\nspawn_prob: [0.5, 0.1]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestValidate_RejectsZeroRadius(t *testing.T) {
	tu := Defaults()
	tu.ResourceRadius = 0
	if err := tu.Validate(); err == nil {
		t.Fatalf("resource_radius 0 accepted")
	}
	tu = Defaults()
	tu.ViewRadius = -1
	if err := tu.Validate(); err == nil {
		t.Fatalf("negative view_radius accepted")
	}
}
