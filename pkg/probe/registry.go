// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Error kinds produced by the probe machinery itself.
const (
	KindDeadline     = "deadline"
	KindPanic        = "panic"
	KindUnitCrashed  = "unit-crashed"
	KindUnknownCheck = "unknown-check"
	KindInvalidArgs  = "invalid-args"
	KindBadResult    = "bad-result"
)

var (
	// ErrCheckPanicked is the error kind target for a check that panicked.
	ErrCheckPanicked = errors.New("check panicked")
	// ErrUnitCrashed is the error kind target for an execution unit that exited
	// without publishing a result.
	ErrUnitCrashed = errors.New("execution unit exited without a result")
	// ErrUnknownCheck is returned when a check name is not registered.
	ErrUnknownCheck = errors.New("unknown check")
	// ErrBadResult is the error kind target for a check result that cannot be encoded.
	ErrBadResult = errors.New("check result is not JSON-serializable")
)

type (
	// CheckFunc is a pollable condition. Its result must be JSON-serializable.
	// The context is never cancelled by the probe: a stuck check is killed
	// together with its execution unit.
	CheckFunc func(ctx context.Context, args Args) (any, error)

	// UnknownCheckError is returned when a check name is not registered.
	// It wraps ErrUnknownCheck for errors.Is() compatibility.
	UnknownCheckError struct {
		Name string
	}
)

var registry = struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	kinds  map[string]error
}{
	checks: make(map[string]CheckFunc),
	kinds:  make(map[string]error),
}

func init() {
	RegisterErrorKind(KindDeadline, context.DeadlineExceeded)
	RegisterErrorKind(KindPanic, ErrCheckPanicked)
	RegisterErrorKind(KindUnitCrashed, ErrUnitCrashed)
	RegisterErrorKind(KindUnknownCheck, ErrUnknownCheck)
	RegisterErrorKind(KindInvalidArgs, ErrInvalidArg)
	RegisterErrorKind(KindBadResult, ErrBadResult)
}

// Register makes a check available under name. It must be called from an init
// function so that re-executed execution units see the same table.
// Register panics if name is empty, fn is nil, or name is already taken.
func Register(name string, fn CheckFunc) {
	if name == "" {
		panic("probe: Register called with empty name")
	}
	if fn == nil {
		panic("probe: Register check is nil: " + name)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, dup := registry.checks[name]; dup {
		panic("probe: Register called twice for check " + name)
	}
	registry.checks[name] = fn
}

// RegisterErrorKind names a sentinel error so it can be listed in
// Config.ExpectedErrors and matched with errors.Is after crossing the process
// boundary. Like Register, it belongs in an init function.
func RegisterErrorKind(kind string, target error) {
	if kind == "" {
		panic("probe: RegisterErrorKind called with empty kind")
	}
	if target == nil {
		panic("probe: RegisterErrorKind target is nil: " + kind)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, dup := registry.kinds[kind]; dup {
		panic("probe: RegisterErrorKind called twice for kind " + kind)
	}
	registry.kinds[kind] = target
}

// Checks returns the sorted names of all registered checks.
func Checks() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.checks))
	for name := range registry.checks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ErrorKinds returns the sorted names of all registered error kinds.
func ErrorKinds() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	kinds := make([]string, 0, len(registry.kinds))
	for kind := range registry.kinds {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

func lookupCheck(name string) (CheckFunc, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	fn, ok := registry.checks[name]
	return fn, ok
}

func lookupErrorKind(kind string) (error, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	target, ok := registry.kinds[kind]
	return target, ok
}

// matchErrorKind returns the first of kinds whose target err matches.
func matchErrorKind(err error, kinds []string) string {
	for _, kind := range kinds {
		if target, ok := lookupErrorKind(kind); ok && errors.Is(err, target) {
			return kind
		}
	}
	return ""
}

// classifyError returns the registered kind of err, or "" when none matches.
// Kinds are tried in sorted order so the result is deterministic.
func classifyError(err error) string {
	return matchErrorKind(err, ErrorKinds())
}

// Error implements the error interface for UnknownCheckError.
func (e *UnknownCheckError) Error() string {
	return fmt.Sprintf("unknown check %q", e.Name)
}

// Unwrap returns ErrUnknownCheck for errors.Is() compatibility.
func (e *UnknownCheckError) Unwrap() error { return ErrUnknownCheck }
