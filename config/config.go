// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters. A Config is built
// once by Load and passed explicitly to the engine; there is no global
// instance.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Microbe      MicrobeConfig      `yaml:"microbe"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Food         FoodConfig         `yaml:"food"`
	Environment  EnvironmentConfig  `yaml:"environment"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions in world units.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"` // Microbes seeded at world creation
	Cap     int `yaml:"cap"`     // Hard population ceiling enforced every tick
}

// MicrobeConfig holds per-microbe vitals and movement parameters.
type MicrobeConfig struct {
	MaxHealth             float64 `yaml:"max_health"`
	MaxEnergy             float64 `yaml:"max_energy"`
	InitialEnergy         float64 `yaml:"initial_energy"`
	MoveCost              float64 `yaml:"move_cost"`               // Base energy cost per tick, scaled by (1 + speed)
	DamageFactor          float64 `yaml:"damage_factor"`           // Environmental damage scale factor
	DirectionChangeChance float64 `yaml:"direction_change_chance"` // Chance per tick to re-randomize heading
	VelocityScale         float64 `yaml:"velocity_scale"`          // Velocity magnitude = speed trait * this
	Radius                float64 `yaml:"radius"`
	AncestryDepth         int     `yaml:"ancestry_depth"` // Max retained ancestor snapshots
}

// ReproductionConfig holds reproduction eligibility and budget parameters.
type ReproductionConfig struct {
	MaturityAge    int     `yaml:"maturity_age"` // Minimum age in ticks
	MinEnergy      float64 `yaml:"min_energy"`
	EnergyCost     float64 `yaml:"energy_cost"`
	HealthCostFrac float64 `yaml:"health_cost_fraction"` // Fraction of max health deducted at reproduction
	SpawnOffset    float64 `yaml:"spawn_offset"`         // Child spawns within +/- this on each axis
	ClaimAttempts  int     `yaml:"claim_attempts"`       // Total CAS attempts on the budget counter
	FastRetries    int     `yaml:"fast_retries"`         // CAS attempts before yielding the thread
}

// MutationConfig holds trait mutation parameters.
type MutationConfig struct {
	Span float64 `yaml:"span"` // Total width of the uniform delta, i.e. +/- span/2
}

// FoodConfig holds food pellet parameters.
type FoodConfig struct {
	Radius      float64 `yaml:"radius"`
	EnergyValue float64 `yaml:"energy_value"`
	SpawnRate   float64 `yaml:"spawn_rate"` // Per-tick spawn probability in [0, 1]
	MaxCount    int     `yaml:"max_count"`  // Ceiling on live pellets
}

// EnvironmentConfig holds initial environmental conditions.
type EnvironmentConfig struct {
	Temperature float64 `yaml:"temperature"`
	Toxicity    float64 `yaml:"toxicity"`
}

// SchedulerConfig holds worker pool and shutdown parameters.
type SchedulerConfig struct {
	Workers           int     `yaml:"workers"`            // 0 = available CPU parallelism
	ParallelThreshold int     `yaml:"parallel_threshold"` // Below this population, process single-threaded
	ShutdownGraceSec  float64 `yaml:"shutdown_grace_sec"`
	ShutdownForceSec  float64 `yaml:"shutdown_force_sec"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowTicks int `yaml:"window_ticks"` // Ticks per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Workers       int           // Resolved worker count
	ShutdownGrace time.Duration // Graceful shutdown wait
	ShutdownForce time.Duration // Forced shutdown wait
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: invalid embedded defaults: %v", err))
	}
	return cfg
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	workers := c.Scheduler.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c.Derived.Workers = workers

	if c.Scheduler.ParallelThreshold < 1 {
		c.Scheduler.ParallelThreshold = 1
	}
	if c.Reproduction.ClaimAttempts < 1 {
		c.Reproduction.ClaimAttempts = 1
	}

	c.Derived.ShutdownGrace = time.Duration(c.Scheduler.ShutdownGraceSec * float64(time.Second))
	c.Derived.ShutdownForce = time.Duration(c.Scheduler.ShutdownForceSec * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
