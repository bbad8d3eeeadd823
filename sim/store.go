package sim

import (
	"sync"

	"github.com/google/uuid"

	"github.com/biolab-sim/biolab/genes"
)

// Store owns every live microbe and food pellet. Its concurrency discipline
// mirrors the tick phases: workers mutate microbes in place through slice
// views handed out at DISPATCH, but the slices are resized only by the
// single-threaded Commit, so per-index access never races a reallocation.
// Count accessors take the read lock and are safe from any goroutine.
type Store struct {
	mu       sync.RWMutex
	microbes []*Microbe
	food     []*Pellet
}

// NewStore creates an empty store with capacity hints sized to the
// population cap and food ceiling.
func NewStore(microbeCap, foodCap int) *Store {
	if microbeCap < 0 {
		microbeCap = 0
	}
	if foodCap < 0 {
		foodCap = 0
	}
	return &Store{
		microbes: make([]*Microbe, 0, microbeCap),
		food:     make([]*Pellet, 0, foodCap),
	}
}

// AddMicrobe inserts a microbe. Never call while a tick is in flight.
func (s *Store) AddMicrobe(m *Microbe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.microbes = append(s.microbes, m)
}

// AddPellet inserts a food pellet. Never call while a tick is in flight.
func (s *Store) AddPellet(p *Pellet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.food = append(s.food, p)
}

// Len returns the number of microbes, dead-but-unpurged included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.microbes)
}

// FoodLen returns the number of pellets, consumed-but-unpurged included.
func (s *Store) FoodLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.food)
}

// tickView returns the slices workers iterate for the current tick. The
// returned headers stay valid for the whole tick because resizing is
// exclusive to Commit, which runs after the barrier.
func (s *Store) tickView() ([]*Microbe, []*Pellet) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.microbes, s.food
}

// Microbes returns the live slice under the read lock. Callers must treat
// it as read-only and must not hold it across a Commit.
func (s *Store) Microbes() []*Microbe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.microbes
}

// Commit applies the end-of-tick mutations single-threaded: dead microbes
// and consumed pellets are purged, then newborns are admitted in buffer
// order until the population cap is reached. Newborns that do not fit are
// discarded, not deferred.
func (s *Store) Commit(newborns []*Microbe, popCap int) (deaths, admitted, discarded int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevLen := len(s.microbes)
	live := s.microbes[:0]
	for _, m := range s.microbes {
		if m.IsDead() {
			deaths++
			continue
		}
		live = append(live, m)
	}

	for _, c := range newborns {
		if len(live) >= popCap {
			discarded++
			continue
		}
		live = append(live, c)
		admitted++
	}

	// Release purged entries left in the old tail for GC.
	for i := len(live); i < prevLen; i++ {
		s.microbes[i] = nil
	}
	s.microbes = live

	prevFood := len(s.food)
	keep := s.food[:0]
	for _, p := range s.food {
		if p.Consumed() {
			continue
		}
		keep = append(keep, p)
	}
	for i := len(keep); i < prevFood; i++ {
		s.food[i] = nil
	}
	s.food = keep

	return deaths, admitted, discarded
}

// MicrobeView is a point-in-time copy of one microbe, safe to iterate and
// render without locking.
type MicrobeView struct {
	ID         uuid.UUID
	X, Y       float64
	VelX, VelY float64
	Radius     float64
	Genome     genes.Genome
	Ancestry   genes.Trail
	Health     float64
	Energy     float64
	Age        int
	Selected   bool
}

// PelletView is a point-in-time copy of one food pellet.
type PelletView struct {
	X, Y     float64
	Radius   float64
	Energy   float64
	Consumed bool
}

// SnapshotMicrobes copies the current population into views. The ancestry
// trail is deep-copied so the caller can hold the snapshot indefinitely.
func (s *Store) SnapshotMicrobes() []MicrobeView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MicrobeView, len(s.microbes))
	for i, m := range s.microbes {
		out[i] = MicrobeView{
			ID:       m.ID,
			X:        m.X,
			Y:        m.Y,
			VelX:     m.VelX,
			VelY:     m.VelY,
			Radius:   m.Radius,
			Genome:   m.Genome,
			Ancestry: m.Ancestry.Clone(),
			Health:   m.Health,
			Energy:   m.Energy,
			Age:      m.Age,
			Selected: m.Selected,
		}
	}
	return out
}

// SnapshotFood copies the current pellets into views.
func (s *Store) SnapshotFood() []PelletView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PelletView, len(s.food))
	for i, p := range s.food {
		out[i] = PelletView{
			X:        p.X,
			Y:        p.Y,
			Radius:   p.Radius,
			Energy:   p.Energy,
			Consumed: p.Consumed(),
		}
	}
	return out
}
