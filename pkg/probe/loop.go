// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// loop drives execution units of one run strictly one after another.
type loop struct {
	cfg      Config
	runID    string
	args     json.RawMessage
	expected []byte

	spawner  Spawner
	clock    Clock
	logger   *log.Logger
	observer Observer
}

// run polls until the check reports the expected value, a budget runs out,
// the check fails unexpectedly or ctx is cancelled. Any unit still running
// when run returns has been killed and reaped.
func (l *loop) run(ctx context.Context) Result {
	start := l.clock.Now()
	res := Result{RunID: l.runID}

	var active Unit
	tries := 1

	finish := func(outcome Outcome, err error) Result {
		l.stop(active)
		res.Outcome = outcome
		res.Elapsed = l.clock.Since(start)
		if err != nil {
			res.Err = &RunError{
				RunID:    l.runID,
				Check:    l.cfg.Check,
				Outcome:  outcome,
				Attempts: res.Attempts,
				Elapsed:  res.Elapsed,
				Err:      err,
			}
		}
		return res
	}

	for l.withinBudget(tries, l.clock.Since(start)) {
		if ctx.Err() != nil {
			return finish(OutcomeCancelled, ErrCancelled)
		}

		if active == nil {
			u, err := l.spawner.Spawn(ctx, UnitRequest{
				RunID:          l.runID,
				Attempt:        tries,
				Check:          l.cfg.Check,
				Args:           l.args,
				ExpectedErrors: l.cfg.ExpectedErrors,
			})
			if err != nil {
				return finish(OutcomeUnexpectedError, fmt.Errorf("attempt %d: %w", tries, err))
			}
			active = u
			res.Attempts++
			l.observer.AttemptStarted(l.cfg.Check, tries)
			l.logger.Debug("attempt started", "run", l.runID, "check", l.cfg.Check, "attempt", tries, "pid", u.PID())
		}

		if active.Alive() {
			select {
			case <-ctx.Done():
				return finish(OutcomeCancelled, ErrCancelled)
			case <-l.clock.After(l.cfg.Pause):
			}
			continue
		}

		msg, err := active.Result()
		_ = active.Wait()
		active = nil
		if err != nil {
			return finish(OutcomeUnexpectedError, &CheckError{
				Check:   l.cfg.Check,
				Attempt: tries,
				Kind:    KindUnitCrashed,
				Message: err.Error(),
			})
		}

		switch msg.Kind {
		case MessageError:
			return finish(OutcomeUnexpectedError, &CheckError{
				Check:   l.cfg.Check,
				Attempt: tries,
				Kind:    msg.ErrorKind,
				Message: msg.Error,
			})
		case MessageValue:
			if l.matches(msg.Value) {
				return finish(OutcomeSuccess, nil)
			}
			l.logger.Debug("unexpected value", "run", l.runID, "attempt", tries, "value", string(msg.Value))
		case MessageNotReady:
			l.logger.Debug("not ready", "run", l.runID, "attempt", tries, "kind", msg.ErrorKind, "err", msg.Error)
		}
		tries++
	}

	if l.cfg.Count != Unbounded && tries > l.cfg.Count {
		return finish(OutcomeCountExceeded, ErrCountExceeded)
	}
	return finish(OutcomeTimeoutExceeded, ErrTimeoutExceeded)
}

// withinBudget reports whether attempt number tries may still run.
func (l *loop) withinBudget(tries int, elapsed time.Duration) bool {
	countOK := l.cfg.Count == Unbounded || tries <= l.cfg.Count
	timeOK := l.cfg.Timeout == Unbounded || elapsed <= l.cfg.Timeout
	return countOK && timeOK
}

func (l *loop) matches(raw json.RawMessage) bool {
	got, err := canonicalJSON(raw)
	if err != nil {
		return false
	}
	return bytes.Equal(got, l.expected)
}

// stop kills and reaps u.
func (l *loop) stop(u Unit) {
	if u == nil {
		return
	}
	if err := u.Kill(); err != nil {
		l.logger.Warn("failed to kill execution unit", "run", l.runID, "pid", u.PID(), "err", err)
	}
	_ = u.Wait()
	l.logger.Debug("execution unit reaped", "run", l.runID, "pid", u.PID())
}
