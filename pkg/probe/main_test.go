// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var (
	errNotReadyYet = errors.New("not ready yet")
	errBoom        = errors.New("boom")
	errUnlisted    = errors.New("nobody registered me")
)

// Checks used by the tests run inside re-executed copies of the test binary,
// so they are registered at init time like production checks.
func init() {
	RegisterErrorKind("test.not-ready", errNotReadyYet)
	RegisterErrorKind("test.boom", errBoom)

	Register("test.true", func(context.Context, Args) (any, error) { return true, nil })
	Register("test.false", func(context.Context, Args) (any, error) { return false, nil })
	Register("test.not-ready", func(context.Context, Args) (any, error) {
		return nil, fmt.Errorf("waiting: %w", errNotReadyYet)
	})
	Register("test.boom", func(context.Context, Args) (any, error) { return nil, errBoom })
	Register("test.unlisted", func(context.Context, Args) (any, error) { return nil, errUnlisted })
	Register("test.hang", func(context.Context, Args) (any, error) {
		time.Sleep(24 * time.Hour)
		return true, nil
	})
	Register("test.panic", func(context.Context, Args) (any, error) { panic("kaboom") })
	Register("test.exit", func(context.Context, Args) (any, error) {
		os.Exit(3)
		return nil, nil
	})
	Register("test.noisy", func(context.Context, Args) (any, error) {
		fmt.Println(`{"kind":"error","error":"printed, not published"}`)
		fmt.Fprintln(os.Stderr, "noise on stderr")
		return true, nil
	})
	Register("test.echo", func(_ context.Context, args Args) (any, error) { return args["value"], nil })
	Register("test.chan", func(context.Context, Args) (any, error) { return make(chan int), nil })
	Register("test.counter", counterCheck)
}

// counterCheck increments the number stored in args["path"] and reports
// whether it reached args["target"].
func counterCheck(_ context.Context, args Args) (any, error) {
	path, err := args.String("path")
	if err != nil {
		return nil, err
	}
	target, err := args.Int("target")
	if err != nil {
		return nil, err
	}
	n := 0
	if data, err := os.ReadFile(path); err == nil {
		n, _ = strconv.Atoi(strings.TrimSpace(string(data)))
	}
	n++
	if err := os.WriteFile(path, []byte(strconv.Itoa(n)), 0o600); err != nil {
		return nil, err
	}
	return n >= target, nil
}

func TestMain(m *testing.M) {
	Init()
	os.Exit(m.Run())
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestProbe(t *testing.T, cfg Config, opts ...Option) *Probe {
	t.Helper()
	p, err := New(cfg, append([]Option{WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}
