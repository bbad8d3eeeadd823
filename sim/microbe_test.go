package sim

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/biolab-sim/biolab/config"
	"github.com/biolab-sim/biolab/genes"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 0))
}

func TestNewMicrobeVitals(t *testing.T) {
	cfg := config.Default()
	m := NewMicrobe(testRNG(), 10, 20, cfg)

	if m.Health != cfg.Microbe.MaxHealth {
		t.Errorf("health = %v, want %v", m.Health, cfg.Microbe.MaxHealth)
	}
	if m.Energy != cfg.Microbe.InitialEnergy {
		t.Errorf("energy = %v, want %v", m.Energy, cfg.Microbe.InitialEnergy)
	}
	if m.Age != 0 {
		t.Errorf("age = %d, want 0", m.Age)
	}
	if len(m.Ancestry) != 0 {
		t.Errorf("founder ancestry length = %d, want 0", len(m.Ancestry))
	}

	speed := math.Hypot(m.VelX, m.VelY)
	want := m.Genome.Speed * cfg.Microbe.VelocityScale
	if math.Abs(speed-want) > 1e-9 {
		t.Errorf("velocity magnitude = %v, want %v", speed, want)
	}
}

func TestMoveReflectsAtBoundaries(t *testing.T) {
	mc := &config.MicrobeConfig{
		MaxEnergy:             100,
		MoveCost:              0.05,
		DirectionChangeChance: 0, // deterministic
		VelocityScale:         2,
	}

	tests := []struct {
		name           string
		x, y, vx, vy   float64
		wantX, wantY   float64
		wantVX, wantVY float64
	}{
		{"reflect left", 1, 50, -5, 0, 0, 50, 5, 0},
		{"reflect right", 99, 50, 5, 0, 100, 50, -5, 0},
		{"reflect top", 50, 1, 0, -5, 50, 0, 0, 5},
		{"reflect bottom", 50, 99, 0, 5, 50, 100, 0, -5},
		{"interior", 50, 50, 3, -4, 53, 46, 3, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Microbe{X: tt.x, Y: tt.y, VelX: tt.vx, VelY: tt.vy, Energy: 80}
			m.Move(testRNG(), 100, 100, mc)

			if m.X != tt.wantX || m.Y != tt.wantY {
				t.Errorf("position = (%v, %v), want (%v, %v)", m.X, m.Y, tt.wantX, tt.wantY)
			}
			if m.VelX != tt.wantVX || m.VelY != tt.wantVY {
				t.Errorf("velocity = (%v, %v), want (%v, %v)", m.VelX, m.VelY, tt.wantVX, tt.wantVY)
			}
		})
	}
}

func TestMoveEnergyCostScalesWithSpeed(t *testing.T) {
	mc := &config.MicrobeConfig{MaxEnergy: 100, MoveCost: 0.05, VelocityScale: 2}

	slow := &Microbe{Energy: 80, Genome: genes.Genome{Speed: 0}}
	fast := &Microbe{Energy: 80, Genome: genes.Genome{Speed: 1}}
	slow.Move(testRNG(), 100, 100, mc)
	fast.Move(testRNG(), 100, 100, mc)

	if got, want := slow.Energy, 80-0.05; math.Abs(got-want) > 1e-9 {
		t.Errorf("slow energy = %v, want %v", got, want)
	}
	if got, want := fast.Energy, 80-0.10; math.Abs(got-want) > 1e-9 {
		t.Errorf("fast energy = %v, want %v", got, want)
	}
}

func TestUpdateHealthDamageAndAge(t *testing.T) {
	mc := &config.MicrobeConfig{MaxHealth: 100, DamageFactor: 0.5}

	tests := []struct {
		name       string
		genome     genes.Genome
		temp, tox  float64
		wantHealth float64
	}{
		{"fully resistant", genes.Genome{HeatResistance: 1, ToxinResistance: 1}, 1, 1, 100},
		{"no resistance", genes.Genome{}, 1, 1, 99},
		{"heat only", genes.Genome{HeatResistance: 0.2}, 1, 0, 100 - 0.4},
		{"mild both", genes.Genome{HeatResistance: 0.5, ToxinResistance: 0.5}, 0.5, 0.5, 100 - 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Microbe{Health: 100, Energy: 80, Genome: tt.genome}
			m.UpdateHealth(tt.temp, tt.tox, mc)

			if math.Abs(m.Health-tt.wantHealth) > 1e-9 {
				t.Errorf("health = %v, want %v", m.Health, tt.wantHealth)
			}
			if m.Age != 1 {
				t.Errorf("age = %d, want 1", m.Age)
			}
		})
	}
}

func TestVitalsAlwaysClamped(t *testing.T) {
	mc := &config.MicrobeConfig{MaxHealth: 100, MaxEnergy: 100, DamageFactor: 0.5, MoveCost: 0.05}

	m := &Microbe{Health: 0.1, Energy: 0.01}
	for i := 0; i < 100; i++ {
		m.Move(testRNG(), 100, 100, mc)
		m.UpdateHealth(1, 1, mc)
		m.Eat(1000, mc.MaxEnergy)

		if m.Health < 0 || m.Health > 100 {
			t.Fatalf("health out of range: %v", m.Health)
		}
		if m.Energy < 0 || m.Energy > 100 {
			t.Fatalf("energy out of range: %v", m.Energy)
		}
	}
}

func TestIsDead(t *testing.T) {
	tests := []struct {
		name           string
		health, energy float64
		want           bool
	}{
		{"alive", 50, 50, false},
		{"no health", 0, 50, true},
		{"no energy", 50, 0, true},
		{"both zero", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Microbe{Health: tt.health, Energy: tt.energy}
			if got := m.IsDead(); got != tt.want {
				t.Errorf("IsDead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanReproduce(t *testing.T) {
	cfg := config.Default() // maturity 120, min energy 60, health > 50

	tests := []struct {
		name           string
		age            int
		health, energy float64
		want           bool
	}{
		{"eligible", 120, 100, 80, true},
		{"too young", 119, 100, 80, false},
		{"low health", 120, 50, 80, false},
		{"low energy", 120, 100, 59.9, false},
		{"old and strong", 500, 51, 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Microbe{Age: tt.age, Health: tt.health, Energy: tt.energy}
			if got := m.CanReproduce(cfg); got != tt.want {
				t.Errorf("CanReproduce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetReproduction(t *testing.T) {
	cfg := config.Default() // health cost 30%, energy cost 40

	m := &Microbe{Age: 130, Health: 100, Energy: 80}
	m.ResetReproduction(cfg)

	if m.Age != 0 {
		t.Errorf("age = %d, want 0", m.Age)
	}
	if m.Health != 70 {
		t.Errorf("health = %v, want 70", m.Health)
	}
	if m.Energy != 40 {
		t.Errorf("energy = %v, want 40", m.Energy)
	}

	// Costs clamp at zero rather than going negative.
	weak := &Microbe{Age: 130, Health: 10, Energy: 10}
	weak.ResetReproduction(cfg)
	if weak.Health != 0 || weak.Energy != 0 {
		t.Errorf("vitals = (%v, %v), want (0, 0)", weak.Health, weak.Energy)
	}
}

func TestReproduceBuildsChild(t *testing.T) {
	cfg := config.Default()
	rng := testRNG()

	parent := NewMicrobe(rng, 50, 50, cfg)
	parent.Age = 200
	parent.Health = 80
	parent.Energy = 70

	child := parent.Reproduce(rng, 55, 45, cfg)

	if child.Health != cfg.Microbe.MaxHealth || child.Energy != cfg.Microbe.InitialEnergy {
		t.Errorf("child vitals = (%v, %v), want full", child.Health, child.Energy)
	}
	if child.Age != 0 {
		t.Errorf("child age = %d, want 0", child.Age)
	}
	if child.ID == parent.ID {
		t.Error("child must get its own identity")
	}

	if len(child.Ancestry) != 1 {
		t.Fatalf("child ancestry length = %d, want 1", len(child.Ancestry))
	}
	if child.Ancestry[0].Genome != parent.Genome || child.Ancestry[0].Generation != 0 {
		t.Error("child ancestry[0] must snapshot the parent at generation 0")
	}

	// Mutated traits stay near the parent's.
	if math.Abs(child.Genome.HeatResistance-parent.Genome.HeatResistance) > cfg.Mutation.Span/2 {
		t.Error("heat resistance mutated beyond the configured span")
	}

	// Parent is untouched by Reproduce itself.
	if parent.Age != 200 || parent.Health != 80 || parent.Energy != 70 {
		t.Error("Reproduce must not modify the parent")
	}
}

func TestReproduceAncestryDepthCapped(t *testing.T) {
	cfg := config.Default()
	rng := testRNG()

	m := NewMicrobe(rng, 50, 50, cfg)
	for i := 0; i < 10; i++ {
		m = m.Reproduce(rng, 50, 50, cfg)
	}

	if len(m.Ancestry) != cfg.Microbe.AncestryDepth {
		t.Fatalf("ancestry length = %d, want %d", len(m.Ancestry), cfg.Microbe.AncestryDepth)
	}
	for i, snap := range m.Ancestry {
		if snap.Generation != i {
			t.Errorf("ancestry[%d].Generation = %d, want %d", i, snap.Generation, i)
		}
	}
}

func TestContains(t *testing.T) {
	m := &Microbe{X: 100, Y: 100, Radius: 5}

	if !m.Contains(103, 100) {
		t.Error("point inside radius should be contained")
	}
	if !m.Contains(105, 100) {
		t.Error("point on radius edge should be contained")
	}
	if m.Contains(106, 100) {
		t.Error("point outside radius should not be contained")
	}
}
