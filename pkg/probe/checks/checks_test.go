// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"conu-cli/internal/container"
	"conu-cli/pkg/probe"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

func TestMain(m *testing.M) {
	probe.Init()
	os.Exit(m.Run())
}

// closedAddr returns a loopback address nobody listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "ready")
	if err := os.WriteFile(present, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    probe.Args
		want    any
		wantErr error
	}{
		{name: "present", args: probe.Args{"path": present}, want: true},
		{name: "missing", args: probe.Args{"path": filepath.Join(dir, "nope")}, want: false},
		{name: "no path", args: probe.Args{}, wantErr: probe.ErrMissingArg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := fileExists(t.Context(), tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("fileExists() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("fileExists() = %v, %v, want %v", got, err, tt.want)
			}
		})
	}
}

func TestHTTPCheck(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/teapot":
			w.WriteHeader(http.StatusTeapot)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name string
		args probe.Args
		want bool
	}{
		{name: "2xx", args: probe.Args{"url": srv.URL + "/ok"}, want: true},
		{name: "5xx", args: probe.Args{"url": srv.URL + "/down"}, want: false},
		{name: "explicit status", args: probe.Args{"url": srv.URL + "/teapot", "status": 418}, want: true},
		{name: "explicit status mismatch", args: probe.Args{"url": srv.URL + "/ok", "status": 204}, want: false},
		{name: "head", args: probe.Args{"url": srv.URL + "/ok", "method": "head"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := httpCheck(t.Context(), tt.args)
			if err != nil {
				t.Fatalf("httpCheck() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("httpCheck() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPCheck_ConnectionRefused(t *testing.T) {
	t.Parallel()

	_, err := httpCheck(t.Context(), probe.Args{"url": "http://" + closedAddr(t) + "/"})
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Errorf("httpCheck() error = %v, want ECONNREFUSED", err)
	}
}

func TestTCPCheck(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	got, err := tcpCheck(t.Context(), probe.Args{"address": ln.Addr().String()})
	if err != nil || got != true {
		t.Errorf("tcpCheck(open) = %v, %v", got, err)
	}
	if _, err := tcpCheck(t.Context(), probe.Args{"address": closedAddr(t)}); !errors.Is(err, syscall.ECONNREFUSED) {
		t.Errorf("tcpCheck(closed) error = %v, want ECONNREFUSED", err)
	}
}

func TestShellCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    probe.Args
		want    any
		wantErr error
	}{
		{name: "exit 0", args: probe.Args{"script": "true"}, want: true},
		{name: "exit 3", args: probe.Args{"script": "exit 3"}, want: false},
		{name: "dir and env", args: probe.Args{
			"script": `[ "$GREETING" = hello ] && [ -e marker ]`,
			"dir":    dir,
			"env":    map[string]any{"GREETING": "hello"},
		}, want: true},
		{name: "syntax error", args: probe.Args{"script": "if then fi ("}, wantErr: probe.ErrInvalidArg},
		{name: "bad env", args: probe.Args{"script": "true", "env": []any{"A=1"}}, wantErr: probe.ErrInvalidArg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := shellCheck(t.Context(), tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("shellCheck() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("shellCheck() = %v, %v, want %v", got, err, tt.want)
			}
		})
	}
}

func TestRedisPing(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	mr.Set("phase", "ready")

	got, err := redisPing(t.Context(), probe.Args{"address": mr.Addr()})
	if err != nil || got != true {
		t.Errorf("redisPing(ping) = %v, %v", got, err)
	}

	got, err = redisPing(t.Context(), probe.Args{"address": mr.Addr(), "key": "phase", "value": "ready"})
	if err != nil || got != true {
		t.Errorf("redisPing(key match) = %v, %v", got, err)
	}
	got, err = redisPing(t.Context(), probe.Args{"address": mr.Addr(), "key": "phase", "value": "done"})
	if err != nil || got != false {
		t.Errorf("redisPing(key mismatch) = %v, %v", got, err)
	}

	if _, err := redisPing(t.Context(), probe.Args{"address": mr.Addr(), "key": "missing"}); !errors.Is(err, redis.Nil) {
		t.Errorf("redisPing(missing key) error = %v, want redis.Nil", err)
	}
}

func TestRedisPing_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := redisPing(t.Context(), probe.Args{"address": closedAddr(t), "dial_timeout": "200ms"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("redisPing() error = %v, want ErrUnavailable", err)
	}
}

func TestMongoPing(t *testing.T) {
	t.Parallel()

	_, err := mongoPing(t.Context(), probe.Args{
		"uri":                      "mongodb://" + closedAddr(t) + "/?connect=direct",
		"server_selection_timeout": "200ms",
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("mongoPing(unreachable) error = %v, want ErrUnavailable", err)
	}

	if _, err := mongoPing(t.Context(), probe.Args{"uri": "postgres://localhost"}); !errors.Is(err, probe.ErrInvalidArg) {
		t.Errorf("mongoPing(bad uri) error = %v, want ErrInvalidArg", err)
	}
}

type fakeEngine struct {
	state    container.State
	exitCode int
	err      error
	lastExec []string
}

func (e *fakeEngine) Name() string                            { return "fake" }
func (e *fakeEngine) Available() bool                         { return true }
func (e *fakeEngine) Version(context.Context) (string, error) { return "1.0", nil }
func (e *fakeEngine) State(context.Context, string) (container.State, error) {
	return e.state, e.err
}

func (e *fakeEngine) Exec(_ context.Context, _ string, command []string) (*container.ExecResult, error) {
	e.lastExec = command
	if e.err != nil {
		return nil, e.err
	}
	return &container.ExecResult{ExitCode: e.exitCode}, nil
}

// withEngine swaps the engine factory. Tests using it must not run in parallel.
func withEngine(t *testing.T, engine container.Engine, err error) *container.EngineType {
	t.Helper()
	var requested container.EngineType
	old := newEngine
	newEngine = func(et container.EngineType) (container.Engine, error) {
		requested = et
		return engine, err
	}
	t.Cleanup(func() { newEngine = old })
	return &requested
}

func TestContainerState(t *testing.T) {
	engine := &fakeEngine{state: container.StateRunning}
	requested := withEngine(t, engine, nil)

	got, err := containerState(t.Context(), probe.Args{"container": "web", "engine": "podman"})
	if err != nil || got != "running" {
		t.Errorf("containerState() = %v, %v", got, err)
	}
	if *requested != container.EngineTypePodman {
		t.Errorf("engine type = %q, want podman", *requested)
	}
}

func TestContainerState_Errors(t *testing.T) {
	tests := []struct {
		name      string
		engineErr error
		stateErr  error
		args      probe.Args
		want      error
	}{
		{name: "not found", stateErr: container.ErrContainerNotFound, args: probe.Args{"container": "web"}, want: container.ErrContainerNotFound},
		{name: "transient", stateErr: errors.New("OCI runtime error: boom"), args: probe.Args{"container": "web"}, want: ErrEngineTransient},
		{name: "no engine", engineErr: container.ErrEngineNotAvailable, args: probe.Args{"container": "web"}, want: ErrUnavailable},
		{name: "bad engine", args: probe.Args{"container": "web", "engine": "lxc"}, want: probe.ErrInvalidArg},
		{name: "no container", args: probe.Args{}, want: probe.ErrMissingArg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEngine(t, &fakeEngine{err: tt.stateErr}, tt.engineErr)
			_, err := containerState(t.Context(), tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("containerState() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestContainerFile(t *testing.T) {
	engine := &fakeEngine{}
	withEngine(t, engine, nil)

	got, err := containerFile(t.Context(), probe.Args{"container": "web", "path": "/ready"})
	if err != nil || got != true {
		t.Errorf("containerFile(present) = %v, %v", got, err)
	}
	if want := []string{"test", "-e", "/ready"}; len(engine.lastExec) != 3 || engine.lastExec[2] != want[2] {
		t.Errorf("exec command = %v, want %v", engine.lastExec, want)
	}

	engine.exitCode = 1
	got, err = containerFile(t.Context(), probe.Args{"container": "web", "path": "/ready"})
	if err != nil || got != false {
		t.Errorf("containerFile(missing) = %v, %v", got, err)
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	checks := probe.Checks()
	for _, name := range []string{FileExists, HTTP, TCP, Shell, ContainerState, ContainerFile, MongoPing, RedisPing} {
		found := false
		for _, c := range checks {
			found = found || c == name
		}
		if !found {
			t.Errorf("check %q is not registered", name)
		}
	}
}

func quietProbe(t *testing.T, cfg probe.Config) *probe.Probe {
	t.Helper()
	p, err := probe.New(cfg, probe.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("probe.New() error = %v", err)
	}
	return p
}

func TestProbe_WaitsForMarkerFile(t *testing.T) {
	t.Parallel()

	marker := filepath.Join(t.TempDir(), "ready")
	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = os.WriteFile(marker, nil, 0o600)
	}()

	p := quietProbe(t, probe.Config{
		Check:   FileExists,
		Args:    probe.Args{"path": marker},
		Timeout: 20 * time.Second,
		Pause:   50 * time.Millisecond,
	})
	res, err := p.Run(t.Context())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Attempts < 2 {
		t.Errorf("Attempts = %d, want the marker to be missing at first", res.Attempts)
	}
}

func TestProbe_ExpectedConnectionRefused(t *testing.T) {
	t.Parallel()

	p := quietProbe(t, probe.Config{
		Check:          TCP,
		Args:           probe.Args{"address": closedAddr(t)},
		Timeout:        probe.Unbounded,
		Pause:          20 * time.Millisecond,
		Count:          2,
		ExpectedErrors: []string{KindConnectionRefused},
	})
	if _, err := p.Run(t.Context()); !errors.Is(err, probe.ErrCountExceeded) {
		t.Errorf("Run() error = %v, want ErrCountExceeded", err)
	}

	// Without the expectation the same failure is fatal and keeps its identity.
	p = quietProbe(t, probe.Config{
		Check:   TCP,
		Args:    probe.Args{"address": closedAddr(t)},
		Timeout: probe.Unbounded,
		Pause:   20 * time.Millisecond,
		Count:   2,
	})
	_, err := p.Run(context.Background())
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Errorf("Run() error = %v, want ECONNREFUSED across the process boundary", err)
	}
}
