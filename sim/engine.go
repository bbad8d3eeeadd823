package sim

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/biolab-sim/biolab/config"
	"github.com/biolab-sim/biolab/telemetry"
)

// Engine advances the population through discrete ticks. Each tick runs the
// SNAPSHOT, DISPATCH, BARRIER, and COMMIT phases in order: environment
// scalars and the reproduction budget are captured once, chunk work fans out
// to the worker pool, the driver blocks until every chunk completes, then
// the single-threaded commit purges the dead, admits newborns under the
// population cap, and spawns food.
//
// Tick must be driven from a single goroutine. Snapshot accessors, the
// environment handle, and Shutdown are safe to call from any goroutine.
type Engine struct {
	cfg   *config.Config
	store *Store
	env   *Environment

	// mu serializes ticks against snapshots and selection.
	mu  sync.Mutex
	rng *rand.Rand // driver-only: food spawn rolls and placement

	pool        *workerPool
	reproBudget atomic.Int64
	newborns    newbornBuffer
	foodRate    atomic.Uint64 // spawn probability as float bits

	tick      atomic.Int64
	collector *telemetry.Collector

	stopping     atomic.Bool
	shutdownOnce sync.Once
}

// newbornBuffer is the append-only buffer shared by workers during DISPATCH
// and drained exclusively by COMMIT.
type newbornBuffer struct {
	mu    sync.Mutex
	items []*Microbe
}

func (b *newbornBuffer) append(m *Microbe) {
	b.mu.Lock()
	b.items = append(b.items, m)
	b.mu.Unlock()
}

// drain returns the buffered newborns and clears the buffer.
func (b *newbornBuffer) drain() []*Microbe {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items
	b.items = nil
	return items
}

// NewEngine creates an engine, seeds the initial population at random
// positions, and prepares (but does not start) the worker pool.
func NewEngine(cfg *config.Config, seed int64) *Engine {
	e := &Engine{
		cfg:       cfg,
		store:     NewStore(cfg.Population.Cap, cfg.Food.MaxCount),
		env:       NewEnvironment(cfg.Environment.Temperature, cfg.Environment.Toxicity),
		rng:       rand.New(rand.NewPCG(uint64(seed), 0)),
		pool:      newWorkerPool(cfg.Derived.Workers, cfg.Scheduler.ParallelThreshold, seed),
		collector: telemetry.NewCollector(cfg.Telemetry.WindowTicks),
	}
	e.SetFoodSpawnRate(cfg.Food.SpawnRate)

	for i := 0; i < cfg.Population.Initial; i++ {
		x := e.rng.Float64() * cfg.World.Width
		y := e.rng.Float64() * cfg.World.Height
		e.store.AddMicrobe(NewMicrobe(e.rng, x, y, cfg))
	}

	return e
}

// Tick advances the simulation by one step. The caller controls pacing;
// Tick never sleeps. After shutdown has begun, Tick is a logged no-op.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopping.Load() {
		slog.Warn("tick requested after shutdown; ignoring", "tick", e.tick.Load())
		return
	}

	temperature, toxicity, spawnFood := e.snapshotPhase()
	e.dispatchPhase(temperature, toxicity)
	e.commitPhase(spawnFood)

	e.tick.Add(1)
}

// snapshotPhase captures the environment, resets the reproduction budget
// from the current population, and rolls the food-spawn coin flip.
func (e *Engine) snapshotPhase() (temperature, toxicity float64, spawnFood bool) {
	temperature, toxicity = e.env.snapshot()

	budget := e.cfg.Population.Cap - e.store.Len()
	if budget < 0 {
		budget = 0
	}
	e.reproBudget.Store(int64(budget))

	spawnFood = e.rng.Float64() < e.FoodSpawnRate() && e.store.FoodLen() < e.cfg.Food.MaxCount
	return temperature, toxicity, spawnFood
}

// dispatchPhase fans the population out to the worker pool and blocks until
// every chunk completes (the BARRIER step).
func (e *Engine) dispatchPhase(temperature, toxicity float64) {
	microbes, food := e.store.tickView()
	if len(microbes) == 0 {
		return
	}
	e.pool.run(e, microbes, food, temperature, toxicity)
}

// commitPhase purges the dead and consumed, admits newborns under the cap,
// and inserts the food pellet decided at SNAPSHOT.
func (e *Engine) commitPhase(spawnFood bool) {
	deaths, admitted, discarded := e.store.Commit(e.newborns.drain(), e.cfg.Population.Cap)
	e.collector.RecordCommit(deaths, admitted, discarded)

	if spawnFood && e.store.FoodLen() < e.cfg.Food.MaxCount {
		x := e.rng.Float64() * e.cfg.World.Width
		y := e.rng.Float64() * e.cfg.World.Height
		e.store.AddPellet(NewPellet(x, y, e.cfg.Food.Radius, e.cfg.Food.EnergyValue))
	}
}

// processChunk runs one worker's share of the tick: movement, environmental
// damage, feeding, and the reproduction attempt for every microbe in the
// chunk. A panic abandons the rest of the chunk but never the tick; shared
// state stays consistent because the chunk's microbes belong exclusively to
// this worker and cross-chunk contention goes through the atomic budget,
// pellet flags, and the newborn buffer only.
func (e *Engine) processChunk(c workChunk, rng *rand.Rand) {
	defer func() {
		if r := recover(); r != nil {
			e.collector.RecordWorkerFault()
			slog.Error("worker fault, abandoning chunk remainder",
				"recovered", r, "chunk_size", len(c.microbes))
		}
	}()

	mc := &e.cfg.Microbe
	for _, m := range c.microbes {
		m.Move(rng, e.cfg.World.Width, e.cfg.World.Height, mc)
		m.UpdateHealth(c.temperature, c.toxicity, mc)

		// One feeding per microbe per tick, first unconsumed match wins. A
		// lost TryConsume means another worker ate the pellet between our
		// collision check and the claim; keep scanning.
		for _, p := range c.food {
			if !p.Collides(m) {
				continue
			}
			if gain, ok := p.TryConsume(); ok {
				m.Eat(gain, mc.MaxEnergy)
				e.collector.RecordFeeding()
				break
			}
		}

		if m.CanReproduce(e.cfg) && e.claimReproduction() {
			e.newborns.append(e.spawnChild(m, rng))
			m.ResetReproduction(e.cfg)
		}
	}
}

// claimReproduction decrements the shared budget with a bounded CAS retry
// loop. Exhaustion is not an error: the microbe stays eligible and tries
// again next tick. After the fast-retry window, contended attempts yield
// the thread before retrying.
func (e *Engine) claimReproduction() bool {
	attempts := e.cfg.Reproduction.ClaimAttempts
	for attempt := 0; attempt < attempts; attempt++ {
		cur := e.reproBudget.Load()
		if cur <= 0 {
			e.collector.RecordBudgetDenied()
			return false
		}
		if e.reproBudget.CompareAndSwap(cur, cur-1) {
			return true
		}
		if attempt+1 >= e.cfg.Reproduction.FastRetries {
			runtime.Gosched()
		}
	}
	e.collector.RecordBudgetDenied()
	return false
}

// spawnChild creates the claimed child at a randomly offset position.
func (e *Engine) spawnChild(parent *Microbe, rng *rand.Rand) *Microbe {
	off := e.cfg.Reproduction.SpawnOffset
	x := clamp(parent.X+(rng.Float64()-0.5)*2*off, 0, e.cfg.World.Width)
	y := clamp(parent.Y+(rng.Float64()-0.5)*2*off, 0, e.cfg.World.Height)
	return parent.Reproduce(rng, x, y, e.cfg)
}

// SnapshotMicrobes returns a point-in-time copy of the population, safe to
// iterate without locking. Intended for the rendering collaborator between
// ticks.
func (e *Engine) SnapshotMicrobes() []MicrobeView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SnapshotMicrobes()
}

// SnapshotFood returns a point-in-time copy of the food pellets.
func (e *Engine) SnapshotFood() []PelletView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SnapshotFood()
}

// Environment returns the shared environment handle. Its setters are safe
// from any goroutine at any time.
func (e *Engine) Environment() *Environment {
	return e.env
}

// PopulationCount returns the current number of microbes.
func (e *Engine) PopulationCount() int {
	return e.store.Len()
}

// FoodCount returns the current number of food pellets.
func (e *Engine) FoodCount() int {
	return e.store.FoodLen()
}

// SetFoodSpawnRate sets the per-tick food spawn probability, clamped to
// [0, 1]. Safe from any goroutine.
func (e *Engine) SetFoodSpawnRate(rate float64) {
	e.foodRate.Store(math.Float64bits(clamp(rate, 0, 1)))
}

// FoodSpawnRate returns the current food spawn probability.
func (e *Engine) FoodSpawnRate() float64 {
	return math.Float64frombits(e.foodRate.Load())
}

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() int64 {
	return e.tick.Load()
}

// SelectAt marks the first microbe containing the point as selected and
// clears the flag on every other microbe. Returns the selected view, if
// any. Selection is a UI concern and never influences simulation logic.
func (e *Engine) SelectAt(x, y float64) (MicrobeView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var selected *Microbe
	for _, m := range e.store.Microbes() {
		if selected == nil && m.Contains(x, y) {
			m.Selected = true
			selected = m
			continue
		}
		m.Selected = false
	}
	if selected == nil {
		return MicrobeView{}, false
	}
	return MicrobeView{
		ID:       selected.ID,
		X:        selected.X,
		Y:        selected.Y,
		VelX:     selected.VelX,
		VelY:     selected.VelY,
		Radius:   selected.Radius,
		Genome:   selected.Genome,
		Ancestry: selected.Ancestry.Clone(),
		Health:   selected.Health,
		Energy:   selected.Energy,
		Age:      selected.Age,
		Selected: true,
	}, true
}

// ShouldFlushStats reports whether a full stats window has elapsed.
func (e *Engine) ShouldFlushStats() bool {
	return e.collector.ShouldFlush(e.tick.Load())
}

// FlushStats samples the live population and produces the window's
// statistics. Call from the tick driver between ticks.
func (e *Engine) FlushStats() telemetry.WindowStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	microbes := e.store.Microbes()
	samples := telemetry.TraitSamples{
		HeatResistance:  make([]float64, 0, len(microbes)),
		ToxinResistance: make([]float64, 0, len(microbes)),
		Speed:           make([]float64, 0, len(microbes)),
		Energy:          make([]float64, 0, len(microbes)),
	}
	for _, m := range microbes {
		samples.HeatResistance = append(samples.HeatResistance, m.Genome.HeatResistance)
		samples.ToxinResistance = append(samples.ToxinResistance, m.Genome.ToxinResistance)
		samples.Speed = append(samples.Speed, m.Genome.Speed)
		samples.Energy = append(samples.Energy, m.Energy)
	}

	return e.collector.Flush(e.tick.Load(), len(microbes), e.store.FoodLen(), samples)
}
