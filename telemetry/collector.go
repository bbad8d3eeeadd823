// Package telemetry accumulates simulation events into windowed statistics
// and writes them to structured logs and CSV output.
package telemetry

import "sync/atomic"

// Collector accumulates events within tick windows and produces WindowStats.
// Feeding, budget-denial, and worker-fault events are recorded from worker
// goroutines and use atomic counters; commit events are recorded only by the
// single tick driver.
type Collector struct {
	windowTicks int64
	windowStart int64

	// Recorded concurrently during DISPATCH.
	feedings     atomic.Int64
	budgetDenied atomic.Int64
	workerFaults atomic.Int64

	// Recorded by the driver at COMMIT.
	births    int
	deaths    int
	discarded int
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// RecordFeeding records one successful pellet consumption.
func (c *Collector) RecordFeeding() {
	c.feedings.Add(1)
}

// RecordBudgetDenied records a reproduction attempt abandoned because the
// budget was exhausted or CAS attempts ran out.
func (c *Collector) RecordBudgetDenied() {
	c.budgetDenied.Add(1)
}

// RecordWorkerFault records a recovered panic in a chunk worker.
func (c *Collector) RecordWorkerFault() {
	c.workerFaults.Add(1)
}

// RecordCommit records the outcome of one COMMIT phase.
func (c *Collector) RecordCommit(deaths, births, discarded int) {
	c.deaths += deaths
	c.births += births
	c.discarded += discarded
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStart >= c.windowTicks
}

// TraitSamples carries per-microbe values sampled at window end for
// distribution statistics.
type TraitSamples struct {
	HeatResistance  []float64
	ToxinResistance []float64
	Speed           []float64
	Energy          []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, population, foodCount int, samples TraitSamples) WindowStats {
	heatMean, heatStd := ComputeTraitStats(samples.HeatResistance)
	toxinMean, toxinStd := ComputeTraitStats(samples.ToxinResistance)
	speedMean, speedStd := ComputeTraitStats(samples.Speed)
	energyMean, energyP10, energyP50, energyP90 := ComputeEnergyStats(samples.Energy)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   currentTick,

		Population: population,
		FoodCount:  foodCount,

		Births:            c.births,
		Deaths:            c.deaths,
		NewbornsDiscarded: c.discarded,
		Feedings:          int(c.feedings.Swap(0)),
		BudgetDenied:      int(c.budgetDenied.Swap(0)),
		WorkerFaults:      int(c.workerFaults.Swap(0)),

		HeatResMean:  heatMean,
		HeatResStd:   heatStd,
		ToxinResMean: toxinMean,
		ToxinResStd:  toxinStd,
		SpeedMean:    speedMean,
		SpeedStd:     speedStd,

		EnergyMean: energyMean,
		EnergyP10:  energyP10,
		EnergyP50:  energyP50,
		EnergyP90:  energyP90,
	}

	c.windowStart = currentTick
	c.births = 0
	c.deaths = 0
	c.discarded = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
