// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
)

type (
	// Probe repeatedly runs a registered check in isolated execution units
	// until it reports the expected value or a budget runs out. A Probe runs at
	// most one poll at a time and can be reused once that poll has finished.
	Probe struct {
		cfg      Config
		args     json.RawMessage
		expected []byte

		logger   *log.Logger
		clock    Clock
		spawner  Spawner
		observer Observer

		state atomic.Int32

		mu   sync.Mutex
		bg   *background
		last Result
	}

	// Option configures a Probe.
	Option func(*Probe)

	// Observer is notified about attempts and finished runs.
	// Implementations must be safe for concurrent use.
	Observer interface {
		AttemptStarted(check string, attempt int)
		RunFinished(check string, res Result)
	}

	nopObserver struct{}
)

// New validates cfg and returns a Probe for it. The Probe keeps its own copy
// of cfg.
func New(cfg Config, opts ...Option) (*Probe, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	raw, err := encodeValue(cfg.ExpectedValue)
	if err != nil {
		return nil, err
	}
	expected, err := canonicalJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize expected value: %w", err)
	}
	var args json.RawMessage
	if cfg.Args != nil {
		if args, err = encodeValue(cfg.Args); err != nil {
			return nil, err
		}
	}

	p := &Probe{
		cfg:      cfg,
		args:     args,
		expected: expected,
		clock:    realClock{},
		spawner:  &ProcessSpawner{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "probe",
			Level:  log.WarnLevel,
		})
	}
	return p, nil
}

// WithLogger sets the logger used for attempt and outcome reporting.
func WithLogger(l *log.Logger) Option {
	return func(p *Probe) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces the wall clock. Intended for tests.
func WithClock(c Clock) Option {
	return func(p *Probe) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithSpawner replaces the default ProcessSpawner.
func WithSpawner(s Spawner) Option {
	return func(p *Probe) {
		if s != nil {
			p.spawner = s
		}
	}
}

// WithObserver registers an Observer for attempts and finished runs.
func WithObserver(o Observer) Option {
	return func(p *Probe) {
		if o != nil {
			p.observer = o
		}
	}
}

// Config returns a copy of the probe's effective configuration.
func (p *Probe) Config() Config {
	return p.cfg.withDefaults()
}

// Run polls in the foreground and blocks until the run is terminal. The
// returned error is nil on success and a *RunError otherwise. Run returns
// ErrBusy without spawning anything when another run is in flight.
func (p *Probe) Run(ctx context.Context) (Result, error) {
	if !p.acquire(nil) {
		return Result{}, ErrBusy
	}
	defer p.release()

	res := p.execute(ctx)
	return res, res.Err
}

// IsAlive reports whether a run is in flight. It never blocks.
func (p *Probe) IsAlive() bool {
	return p.State() == StateRunning
}

// State returns the current lifecycle state.
func (p *Probe) State() State {
	return State(p.state.Load())
}

// LastResult returns the result of the most recently finished run, or a zero
// Result with OutcomeNone.
func (p *Probe) LastResult() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// acquire flips the probe to running and installs bg as the handle Terminate
// and Join act on, in one critical section. A foreground run passes nil,
// which discards any unjoined handle of an earlier background run.
func (p *Probe) acquire(bg *background) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return false
	}
	p.bg = bg
	return true
}

func (p *Probe) release() {
	p.state.Store(int32(StateIdle))
}

// execute performs one complete run. The caller holds the running state.
func (p *Probe) execute(ctx context.Context) Result {
	runID := ulid.Make().String()
	if p.cfg.Unbounded() {
		p.logger.Warn("probe has neither timeout nor count; it only stops on success, error or cancellation",
			"run", runID, "check", p.cfg.Check)
	}

	l := &loop{
		cfg:      p.cfg,
		runID:    runID,
		args:     p.args,
		expected: p.expected,
		spawner:  p.spawner,
		clock:    p.clock,
		logger:   p.logger,
		observer: p.observer,
	}
	res := l.run(ctx)

	p.mu.Lock()
	p.last = res
	p.mu.Unlock()

	p.observer.RunFinished(p.cfg.Check, res)
	if res.Outcome == OutcomeSuccess {
		p.logger.Debug("probe succeeded", "run", runID, "check", p.cfg.Check, "attempts", res.Attempts, "elapsed", res.Elapsed)
	} else {
		p.logger.Warn("probe is unsuccessful", "run", runID, "check", p.cfg.Check,
			"outcome", res.Outcome, "attempts", res.Attempts, "err", res.Err)
	}
	return res
}

func (nopObserver) AttemptStarted(string, int) {}
func (nopObserver) RunFinished(string, Result) {}
