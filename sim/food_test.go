package sim

import (
	"sync"
	"testing"
)

func TestPelletCollides(t *testing.T) {
	p := NewPellet(100, 100, 6, 30)

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"overlapping", 102, 100, true},
		{"touching edge", 111, 100, false}, // distance == sum of radii, strict less-than
		{"just inside", 110.9, 100, true},
		{"far away", 200, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Microbe{X: tt.x, Y: tt.y, Radius: 5}
			if got := p.Collides(m); got != tt.want {
				t.Errorf("Collides at (%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestPelletConsumedFailsCollision(t *testing.T) {
	p := NewPellet(100, 100, 6, 30)
	m := &Microbe{X: 100, Y: 100, Radius: 5}

	if !p.Collides(m) {
		t.Fatal("expected collision before consumption")
	}

	gain, ok := p.TryConsume()
	if !ok || gain != 30 {
		t.Fatalf("TryConsume() = (%v, %v), want (30, true)", gain, ok)
	}

	if p.Collides(m) {
		t.Error("consumed pellet must fail all collision checks")
	}
	if gain, ok := p.TryConsume(); ok || gain != 0 {
		t.Errorf("second TryConsume() = (%v, %v), want (0, false)", gain, ok)
	}
}

func TestPelletConsumedExactlyOnceUnderContention(t *testing.T) {
	p := NewPellet(0, 0, 6, 30)

	const claimants = 32
	var wg sync.WaitGroup
	wins := make(chan float64, claimants)

	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gain, ok := p.TryConsume(); ok {
				wins <- gain
			}
		}()
	}
	wg.Wait()
	close(wins)

	var total float64
	count := 0
	for gain := range wins {
		total += gain
		count++
	}
	if count != 1 || total != 30 {
		t.Errorf("pellet paid out %d times for %v energy, want once for 30", count, total)
	}
}
