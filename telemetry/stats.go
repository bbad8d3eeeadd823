package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one tick window.
type WindowStats struct {
	WindowStart int64 `csv:"-"`
	WindowEnd   int64 `csv:"window_end"`

	// Counts at window end
	Population int `csv:"population"`
	FoodCount  int `csv:"food"`

	// Events during window
	Births            int `csv:"births"`
	Deaths            int `csv:"deaths"`
	NewbornsDiscarded int `csv:"newborns_discarded"`
	Feedings          int `csv:"feedings"`
	BudgetDenied      int `csv:"budget_denied"`
	WorkerFaults      int `csv:"worker_faults"`

	// Trait distribution (sampled at window end)
	HeatResMean  float64 `csv:"heat_res_mean"`
	HeatResStd   float64 `csv:"heat_res_std"`
	ToxinResMean float64 `csv:"toxin_res_mean"`
	ToxinResStd  float64 `csv:"toxin_res_std"`
	SpeedMean    float64 `csv:"speed_mean"`
	SpeedStd     float64 `csv:"speed_std"`

	// Energy distribution
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
}

// ComputeTraitStats calculates mean and standard deviation of trait values.
// Returns zeros for empty input; standard deviation is zero for a single
// sample.
func ComputeTraitStats(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	return mean, std
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStart),
		slog.Int64("window_end", s.WindowEnd),
		slog.Int("population", s.Population),
		slog.Int("food", s.FoodCount),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("newborns_discarded", s.NewbornsDiscarded),
		slog.Int("feedings", s.Feedings),
		slog.Int("budget_denied", s.BudgetDenied),
		slog.Int("worker_faults", s.WorkerFaults),
		slog.Float64("heat_res_mean", s.HeatResMean),
		slog.Float64("heat_res_std", s.HeatResStd),
		slog.Float64("toxin_res_mean", s.ToxinResMean),
		slog.Float64("toxin_res_std", s.ToxinResStd),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
