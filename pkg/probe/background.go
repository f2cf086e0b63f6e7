// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"errors"
)

var errTerminated = errors.New("probe terminated")

// background is the handle of a detached run.
type background struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
	res    Result
}

// RunInBackground starts a run in its own goroutine and returns immediately.
// It returns ErrBusy when another run is in flight.
func (p *Probe) RunInBackground(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	bg := &background{cancel: cancel, done: make(chan struct{})}
	if !p.acquire(bg) {
		cancel(nil)
		return ErrBusy
	}

	go func() {
		bg.res = p.execute(ctx)
		cancel(nil)
		// Released before done closes so Run right after Join never sees ErrBusy.
		p.release()
		close(bg.done)
	}()
	return nil
}

// Terminate cancels the background run, killing its active execution unit.
// It does not wait for the run to finish; use Join for that. It is a no-op
// when no background run exists.
func (p *Probe) Terminate() {
	p.mu.Lock()
	bg := p.bg
	p.mu.Unlock()
	if bg != nil {
		bg.cancel(errTerminated)
	}
}

// Join waits for the background run and consumes its outcome. It returns nil
// after success or cancellation and the run's *RunError otherwise; use
// LastResult to tell success from cancellation. Join returns nil immediately
// when there is no background run to consume. Starting another run discards
// an outcome that was never joined.
func (p *Probe) Join() error {
	p.mu.Lock()
	bg := p.bg
	p.mu.Unlock()
	if bg == nil {
		return nil
	}

	<-bg.done

	p.mu.Lock()
	if p.bg == bg {
		p.bg = nil
	}
	p.mu.Unlock()

	switch bg.res.Outcome {
	case OutcomeSuccess, OutcomeCancelled:
		return nil
	default:
		return bg.res.Err
	}
}
