// Package simulation drives a population of simulated wallets against a
// verified parameter bundle. What a wallet does on each step is supplied by
// the caller; the harness owns scheduling, cancellation and the shared
// random source.
package simulation

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"

	"github.com/Manta-Network/cli/internal/logging"
	"github.com/Manta-Network/cli/internal/parameters"
)

// DefaultWorkers is the size of the worker pool.
const DefaultWorkers = 4

// Runner runs a simulation to completion.
type Runner interface {
	Run(ctx context.Context, bundle *parameters.Bundle, rng io.Reader) error
}

// Event is one step of one actor.
type Event struct {
	Actor  int
	Step   int
	Bundle *parameters.Bundle
	Rand   io.Reader
}

// Step performs ev. Returning an error stops the whole simulation.
type Step func(ctx context.Context, ev Event) error

// Config sizes a simulation.
type Config struct {
	Actors   int
	Lifetime int // steps per actor
	Workers  int
}

// Harness runs Actors actors for Lifetime steps each on a pool of Workers
// goroutines.
type Harness struct {
	cfg    Config
	step   Step
	logger *logging.Logger
}

var _ Runner = (*Harness)(nil)

// NewHarness creates a harness. A zero Workers uses DefaultWorkers.
func NewHarness(cfg Config, step Step, logger *logging.Logger) *Harness {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Harness{cfg: cfg, step: step, logger: logger}
}

// Run implements Runner. Each actor's steps run in order; actors run
// concurrently. The first failing step cancels the rest.
func (h *Harness) Run(ctx context.Context, bundle *parameters.Bundle, rng io.Reader) error {
	if bundle == nil {
		return fmt.Errorf("simulation requires a parameter bundle")
	}
	if h.cfg.Actors <= 0 || h.cfg.Lifetime <= 0 {
		return fmt.Errorf("simulation needs at least one actor and one step (actors %d, lifetime %d)",
			h.cfg.Actors, h.cfg.Lifetime)
	}

	shared := &lockedReader{r: rng}
	var completed atomic.Int64
	start := time.Now()

	h.logger.Info("Starting simulation: %d actors, %d steps each, %d workers",
		h.cfg.Actors, h.cfg.Lifetime, h.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Workers)
	for actor := 0; actor < h.cfg.Actors; actor++ {
		g.Go(func() error {
			for step := 0; step < h.cfg.Lifetime; step++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ev := Event{Actor: actor, Step: step, Bundle: bundle, Rand: shared}
				if err := h.step(gctx, ev); err != nil {
					return fmt.Errorf("actor %d, step %d: %w", actor, step, err)
				}
				completed.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()

	h.logger.Info("Simulation finished: %d steps in %s", completed.Load(), time.Since(start).Round(time.Millisecond))
	return err
}

// lockedReader serializes access to a random source shared by workers.
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

// DryStep samples one scalar per step and otherwise does nothing. It checks
// the plumbing without generating transactions. A zero scalar means the
// random source is broken.
func DryStep(_ context.Context, ev Event) error {
	var buf [fr.Bytes]byte
	if _, err := io.ReadFull(ev.Rand, buf[:]); err != nil {
		return fmt.Errorf("sample randomness: %w", err)
	}
	var e fr.Element
	if e.SetBytes(buf[:]).IsZero() {
		return fmt.Errorf("actor %d sampled a zero scalar", ev.Actor)
	}
	return nil
}
