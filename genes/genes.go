// Package genes defines the heritable trait model for microbes: the trait
// vector itself, the mutation function applied at reproduction time, and the
// bounded ancestry trail used for lineage inspection.
package genes

import "math/rand/v2"

// Genome holds the three heritable traits. Each value lies in [0, 1].
// A genome is immutable once a microbe is created; children derive theirs
// through Mutate.
type Genome struct {
	HeatResistance  float64
	ToxinResistance float64
	Speed           float64
}

// NewRandomGenome draws each trait uniformly from [0, 1).
func NewRandomGenome(rng *rand.Rand) Genome {
	return Genome{
		HeatResistance:  rng.Float64(),
		ToxinResistance: rng.Float64(),
		Speed:           rng.Float64(),
	}
}

// Mutate returns a child genome where each trait is perturbed by an
// independent uniform delta in [-span/2, +span/2], then clamped to [0, 1].
func (g Genome) Mutate(rng *rand.Rand, span float64) Genome {
	return Genome{
		HeatResistance:  mutate(rng, g.HeatResistance, span),
		ToxinResistance: mutate(rng, g.ToxinResistance, span),
		Speed:           mutate(rng, g.Speed, span),
	}
}

func mutate(rng *rand.Rand, v, span float64) float64 {
	return Clamp01(v + (rng.Float64()-0.5)*span)
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
