// Package sim implements the simulation core: the microbe and food models,
// the population store, and the parallel tick engine that advances them.
package sim

import (
	"sync"

	"github.com/biolab-sim/biolab/genes"
)

// Environment holds the shared environmental scalars. Setters clamp to
// [0, 1] and are safe to call from any goroutine at any time; the engine
// reads a single snapshot at the start of each tick and never re-reads the
// live values mid-tick.
type Environment struct {
	mu          sync.Mutex
	temperature float64
	toxicity    float64
}

// NewEnvironment creates an environment with clamped initial conditions.
func NewEnvironment(temperature, toxicity float64) *Environment {
	return &Environment{
		temperature: genes.Clamp01(temperature),
		toxicity:    genes.Clamp01(toxicity),
	}
}

// Temperature returns the current temperature in [0, 1].
func (e *Environment) Temperature() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.temperature
}

// SetTemperature sets the temperature, clamped to [0, 1].
func (e *Environment) SetTemperature(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.temperature = genes.Clamp01(v)
}

// Toxicity returns the current toxicity in [0, 1].
func (e *Environment) Toxicity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toxicity
}

// SetToxicity sets the toxicity, clamped to [0, 1].
func (e *Environment) SetToxicity(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toxicity = genes.Clamp01(v)
}

// snapshot returns both scalars under a single lock acquisition.
func (e *Environment) snapshot() (temperature, toxicity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.temperature, e.toxicity
}
