package sim

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/biolab-sim/biolab/config"
	"github.com/biolab-sim/biolab/genes"
)

// Microbe is one simulated organism. During a tick, exactly one worker
// mutates a microbe in place; the store owns its lifetime and only the
// single-threaded COMMIT phase removes it, so a microbe that dies mid-tick
// stays visible until the tick ends.
type Microbe struct {
	ID uuid.UUID

	X, Y       float64
	VelX, VelY float64
	Radius     float64

	Genome   genes.Genome
	Ancestry genes.Trail

	Health float64
	Energy float64
	Age    int

	// Selected is a UI concern carried for the rendering collaborator.
	// Simulation logic never reads it.
	Selected bool
}

// NewMicrobe creates a founder microbe with random traits and full vitals.
func NewMicrobe(rng *rand.Rand, x, y float64, cfg *config.Config) *Microbe {
	m := &Microbe{
		ID:     uuid.New(),
		X:      x,
		Y:      y,
		Radius: cfg.Microbe.Radius,
		Genome: genes.NewRandomGenome(rng),
		Health: cfg.Microbe.MaxHealth,
		Energy: cfg.Microbe.InitialEnergy,
	}
	m.randomizeVelocity(rng, cfg.Microbe.VelocityScale)
	return m
}

// Reproduce creates a mutated child at (x, y) with full vitals and the
// parent prepended to its ancestry trail. The parent is not modified;
// callers apply ResetReproduction separately after a successful budget claim.
func (m *Microbe) Reproduce(rng *rand.Rand, x, y float64, cfg *config.Config) *Microbe {
	child := &Microbe{
		ID:       uuid.New(),
		X:        x,
		Y:        y,
		Radius:   cfg.Microbe.Radius,
		Genome:   m.Genome.Mutate(rng, cfg.Mutation.Span),
		Ancestry: m.Ancestry.Extend(m.Genome, cfg.Microbe.AncestryDepth),
		Health:   cfg.Microbe.MaxHealth,
		Energy:   cfg.Microbe.InitialEnergy,
	}
	child.randomizeVelocity(rng, cfg.Microbe.VelocityScale)
	return child
}

// randomizeVelocity picks a uniform heading with magnitude scaled by the
// speed trait.
func (m *Microbe) randomizeVelocity(rng *rand.Rand, scale float64) {
	angle := rng.Float64() * 2 * math.Pi
	mag := m.Genome.Speed * scale
	m.VelX = math.Cos(angle) * mag
	m.VelY = math.Sin(angle) * mag
}

// Move advances position by velocity, reflecting off world boundaries, and
// deducts the movement energy cost scaled by (1 + speed). A small fixed
// chance re-randomizes the heading for more organic drift.
func (m *Microbe) Move(rng *rand.Rand, worldW, worldH float64, mc *config.MicrobeConfig) {
	m.Energy = clamp(m.Energy-mc.MoveCost*(1+m.Genome.Speed), 0, mc.MaxEnergy)

	m.X += m.VelX
	m.Y += m.VelY

	if m.X < 0 || m.X > worldW {
		m.VelX = -m.VelX
		m.X = clamp(m.X, 0, worldW)
	}
	if m.Y < 0 || m.Y > worldH {
		m.VelY = -m.VelY
		m.Y = clamp(m.Y, 0, worldH)
	}

	if rng.Float64() < mc.DirectionChangeChance {
		m.randomizeVelocity(rng, mc.VelocityScale)
	}
}

// UpdateHealth applies environmental damage and advances age. Resistance
// traits reduce damage linearly; this is the sole selection mechanism.
func (m *Microbe) UpdateHealth(temperature, toxicity float64, mc *config.MicrobeConfig) {
	heatDamage := temperature * (1 - m.Genome.HeatResistance) * mc.DamageFactor
	toxinDamage := toxicity * (1 - m.Genome.ToxinResistance) * mc.DamageFactor

	m.Health = clamp(m.Health-(heatDamage+toxinDamage), 0, mc.MaxHealth)
	m.Age++
}

// IsDead reports whether the microbe has run out of health or energy.
func (m *Microbe) IsDead() bool {
	return m.Health <= 0 || m.Energy <= 0
}

// CanReproduce reports whether the microbe is mature, healthy, and
// energetic enough to spawn a child this tick.
func (m *Microbe) CanReproduce(cfg *config.Config) bool {
	return m.Age >= cfg.Reproduction.MaturityAge &&
		m.Health > cfg.Microbe.MaxHealth*0.5 &&
		m.Energy >= cfg.Reproduction.MinEnergy
}

// ResetReproduction zeroes age and deducts the reproduction overhead.
func (m *Microbe) ResetReproduction(cfg *config.Config) {
	m.Age = 0
	m.Health = clamp(m.Health-cfg.Microbe.MaxHealth*cfg.Reproduction.HealthCostFrac, 0, cfg.Microbe.MaxHealth)
	m.Energy = clamp(m.Energy-cfg.Reproduction.EnergyCost, 0, cfg.Microbe.MaxEnergy)
}

// Eat increases energy, clamped to the maximum.
func (m *Microbe) Eat(gain, maxEnergy float64) {
	m.Energy = clamp(m.Energy+gain, 0, maxEnergy)
}

// Contains reports whether the point lies within the microbe's radius.
// Used for pointer selection only.
func (m *Microbe) Contains(px, py float64) bool {
	dx := px - m.X
	dy := py - m.Y
	return math.Sqrt(dx*dx+dy*dy) <= m.Radius
}

// clamp clamps x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
