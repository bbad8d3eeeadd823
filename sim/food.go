package sim

import (
	"math"
	"sync/atomic"
)

// Pellet is a static food item. Consumption is a one-shot atomic flag flip:
// once consumed, a pellet fails all further collision checks and is inert
// until the COMMIT phase purges it. Workers from different chunks may race
// on the same pellet; the CAS in TryConsume guarantees it pays out at most
// once.
type Pellet struct {
	X, Y     float64
	Radius   float64
	Energy   float64
	consumed atomic.Bool
}

// NewPellet creates an unconsumed pellet at (x, y).
func NewPellet(x, y, radius, energy float64) *Pellet {
	return &Pellet{X: x, Y: y, Radius: radius, Energy: energy}
}

// Collides reports whether m is close enough to eat the pellet. Always
// false once the pellet has been consumed.
func (p *Pellet) Collides(m *Microbe) bool {
	if p.consumed.Load() {
		return false
	}
	dx := m.X - p.X
	dy := m.Y - p.Y
	return math.Sqrt(dx*dx+dy*dy) < p.Radius+m.Radius
}

// TryConsume atomically claims the pellet, returning the energy payout and
// whether this caller won the flag. Losers of a concurrent claim get (0, false).
func (p *Pellet) TryConsume() (float64, bool) {
	if p.consumed.CompareAndSwap(false, true) {
		return p.Energy, true
	}
	return 0, false
}

// Consumed reports whether the pellet has been eaten.
func (p *Pellet) Consumed() bool {
	return p.consumed.Load()
}
