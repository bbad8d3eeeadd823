package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") = %v", err)
	}

	if cfg.World.Width != 800 || cfg.World.Height != 600 {
		t.Errorf("world = %vx%v, want 800x600", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Population.Cap != 5000 {
		t.Errorf("population cap = %d, want 5000", cfg.Population.Cap)
	}
	if cfg.Microbe.InitialEnergy != 80 {
		t.Errorf("initial energy = %v, want 80", cfg.Microbe.InitialEnergy)
	}
	if cfg.Reproduction.MaturityAge != 120 {
		t.Errorf("maturity age = %d, want 120", cfg.Reproduction.MaturityAge)
	}
	if cfg.Mutation.Span != 0.1 {
		t.Errorf("mutation span = %v, want 0.1", cfg.Mutation.Span)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	override := `
population:
  cap: 250
scheduler:
  workers: 3
`
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.Population.Cap != 250 {
		t.Errorf("cap = %d, want overridden 250", cfg.Population.Cap)
	}
	if cfg.Derived.Workers != 3 {
		t.Errorf("derived workers = %d, want 3", cfg.Derived.Workers)
	}
	// Untouched sections keep their defaults.
	if cfg.Population.Initial != 150 {
		t.Errorf("initial = %d, want default 150", cfg.Population.Initial)
	}
	if cfg.Food.MaxCount != 200 {
		t.Errorf("food max = %d, want default 200", cfg.Food.MaxCount)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestComputeDerived(t *testing.T) {
	cfg := Default()

	// workers: 0 resolves to the available parallelism
	if cfg.Derived.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("workers = %d, want GOMAXPROCS %d", cfg.Derived.Workers, runtime.GOMAXPROCS(0))
	}
	if cfg.Derived.ShutdownGrace != time.Second || cfg.Derived.ShutdownForce != time.Second {
		t.Errorf("shutdown waits = (%v, %v), want 1s each",
			cfg.Derived.ShutdownGrace, cfg.Derived.ShutdownForce)
	}

	cfg.Scheduler.ParallelThreshold = 0
	cfg.Reproduction.ClaimAttempts = 0
	cfg.computeDerived()
	if cfg.Scheduler.ParallelThreshold != 1 {
		t.Errorf("parallel threshold = %d, want floor 1", cfg.Scheduler.ParallelThreshold)
	}
	if cfg.Reproduction.ClaimAttempts != 1 {
		t.Errorf("claim attempts = %d, want floor 1", cfg.Reproduction.ClaimAttempts)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	cfg := Default()
	cfg.Population.Cap = 777
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML() = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if loaded.Population.Cap != 777 {
		t.Errorf("round-tripped cap = %d, want 777", loaded.Population.Cap)
	}
}
