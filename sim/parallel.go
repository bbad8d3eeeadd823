package sim

import (
	"math/rand/v2"
	"runtime"
	"sync"
)

// workChunk is one worker's share of a tick: an exclusive contiguous slice
// of microbes, the shared food collection, and the tick's environment
// snapshot.
type workChunk struct {
	microbes []*Microbe
	food     []*Pellet

	temperature float64
	toxicity    float64
}

// workerPool holds the fixed set of persistent worker goroutines reused
// across all ticks. Each worker owns an independent RNG stream so the
// parallel phase never contends on a shared random source.
type workerPool struct {
	numWorkers int
	threshold  int // below this population, process single-threaded
	rngs       []*rand.Rand

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal chunk completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

func newWorkerPool(numWorkers, threshold int, seed int64) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	rngs := make([]*rand.Rand, numWorkers)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewPCG(uint64(seed), uint64(i)+1))
	}
	return &workerPool{
		numWorkers: numWorkers,
		threshold:  threshold,
		rngs:       rngs,
	}
}

// start launches the persistent worker goroutines.
func (p *workerPool) start(e *Engine) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(e, i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(e *Engine, workerID int) {
	defer p.wg.Done()
	rng := p.rngs[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			e.processChunk(chunk, rng)
			p.doneChan <- struct{}{}
		}
	}
}

// run partitions the population into contiguous chunks of roughly
// ceil(N / workers) microbes, dispatches them, and blocks until every chunk
// completes. Small populations run inline on the driver: goroutine handoff
// costs more than it saves below the threshold.
func (p *workerPool) run(e *Engine, microbes []*Microbe, food []*Pellet, temperature, toxicity float64) {
	n := len(microbes)
	if n < p.threshold {
		e.processChunk(workChunk{
			microbes:    microbes,
			food:        food,
			temperature: temperature,
			toxicity:    toxicity,
		}, p.rngs[0])
		return
	}

	if !p.running {
		p.start(e)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		p.workChan <- workChunk{
			microbes:    microbes[start:end],
			food:        food,
			temperature: temperature,
			toxicity:    toxicity,
		}
		dispatched++
	}

	// BARRIER: every dispatched chunk must finish, including faulted ones,
	// before the commit phase may run.
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
