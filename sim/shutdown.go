package sim

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrShutdownTimeout is returned when the worker pool fails to quiesce
// within both the graceful and the forced wait periods.
var ErrShutdownTimeout = errors.New("sim: worker pool failed to quiesce")

// Shutdown stops the engine: no further ticks start, the in-flight tick (if
// any) is waited out, and the worker pool is asked to quiesce within the
// graceful period, escalating to a second bounded forced wait. Context
// cancellation interrupts either wait but still leaves the engine stopped
// and the cancellation signal preserved in the returned error.
//
// Shutdown is safe to call from any goroutine, including one other than the
// tick driver. Only the first call acts; later calls return nil immediately.
func (e *Engine) Shutdown(ctx context.Context) error {
	var err error
	e.shutdownOnce.Do(func() {
		err = e.doShutdown(ctx)
	})
	return err
}

func (e *Engine) doShutdown(ctx context.Context) error {
	e.stopping.Store(true)
	slog.Info("engine shutting down", "tick", e.tick.Load(), "population", e.store.Len())

	// Quiesce off the caller's goroutine so both phases stay bounded even
	// if a worker is stuck mid-chunk.
	done := make(chan struct{})
	go func() {
		e.mu.Lock() // waits for an in-flight tick to finish
		defer e.mu.Unlock()
		e.pool.stop()
		close(done)
	}()

	interrupted := false

	select {
	case <-done:
		slog.Info("engine stopped")
		return nil
	case <-time.After(e.cfg.Derived.ShutdownGrace):
		slog.Warn("graceful shutdown timed out, forcing", "grace", e.cfg.Derived.ShutdownGrace)
	case <-ctx.Done():
		interrupted = true
		slog.Warn("shutdown interrupted, forcing", "cause", ctx.Err())
	}

	// Forced phase: one more bounded wait. Goroutines cannot be killed, so
	// a worker that never returns is abandoned and reported. A cancelled
	// context no longer cuts this phase short; the wait itself is bounded.
	select {
	case <-done:
		if interrupted {
			return ctx.Err()
		}
		slog.Info("engine stopped after forced wait")
		return nil
	case <-time.After(e.cfg.Derived.ShutdownForce):
		slog.Error("forced shutdown timed out, abandoning worker pool", "force", e.cfg.Derived.ShutdownForce)
		if interrupted {
			return ctx.Err()
		}
		return ErrShutdownTimeout
	}
}
