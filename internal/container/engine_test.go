// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"testing"
)

func TestState(t *testing.T) {
	t.Parallel()

	engine, rec := newMockEngine(t, "running\n", "", 0)
	state, err := engine.State(t.Context(), "web")
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != StateRunning {
		t.Errorf("State() = %q, want running", state)
	}
	rec.AssertArgs(t, "container", "inspect", "--format", "{{.State.Status}}", "web")
}

func TestState_NotFound(t *testing.T) {
	t.Parallel()

	engine, _ := newMockEngine(t, "", "Error: No such container: web", 1)
	_, err := engine.State(t.Context(), "web")
	if !errors.Is(err, ErrContainerNotFound) {
		t.Fatalf("State() error = %v, want ErrContainerNotFound", err)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Stderr == "" {
		t.Errorf("error %v does not carry the engine's stderr", err)
	}
}

func TestExec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		stderr       string
		exitCode     int
		wantExitCode int
		wantErr      error
	}{
		{name: "success", exitCode: 0, wantExitCode: 0},
		{name: "command fails", exitCode: 1, wantExitCode: 1},
		{name: "container missing", stderr: "Error response from daemon: No such container: web", exitCode: 1, wantErr: ErrContainerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, rec := newMockEngine(t, "", tt.stderr, tt.exitCode)
			res, err := engine.Exec(t.Context(), "web", []string{"test", "-e", "/ready"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Exec() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Exec() error = %v", err)
			}
			if res.ExitCode != tt.wantExitCode {
				t.Errorf("ExitCode = %d, want %d", res.ExitCode, tt.wantExitCode)
			}
			rec.AssertArgs(t, "exec", "web", "test", "-e", "/ready")
		})
	}
}

func TestExec_EngineFailureIsTransient(t *testing.T) {
	t.Parallel()

	engine, _ := newMockEngine(t, "", "OCI runtime error: unable to start", 125)
	_, err := engine.Exec(t.Context(), "web", []string{"true"})
	if err == nil {
		t.Fatal("Exec() error = nil for engine exit code 125")
	}
	if !IsTransientError(err) {
		t.Errorf("IsTransientError(%v) = false", err)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	engine, rec := newMockEngine(t, "27.3.1\n", "", 0)
	v, err := engine.Version(t.Context())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != "27.3.1" {
		t.Errorf("Version() = %q", v)
	}
	rec.AssertArgs(t, "version", "--format", "{{.Server.Version}}")
	if !engine.Available() {
		t.Error("Available() = false with a working binary")
	}
}

func TestAvailable_NoBinary(t *testing.T) {
	t.Parallel()

	engine := NewPodmanEngine(WithBinaryPath(""))
	if engine.Available() {
		t.Error("Available() = true without a binary")
	}
	if engine.Name() != "podman" {
		t.Errorf("Name() = %q", engine.Name())
	}
}

func TestParseEngineType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    EngineType
		wantErr bool
	}{
		{in: "", want: EngineTypeAuto},
		{in: "auto", want: EngineTypeAuto},
		{in: "Docker", want: EngineTypeDocker},
		{in: " podman ", want: EngineTypePodman},
		{in: "containerd", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseEngineType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidEngineType) {
				t.Errorf("ParseEngineType(%q) error = %v, want ErrInvalidEngineType", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseEngineType(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNewEngine_InvalidType(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine("lxc"); !errors.Is(err, ErrInvalidEngineType) {
		t.Errorf("NewEngine(lxc) error = %v, want ErrInvalidEngineType", err)
	}
}

func TestStateIsStopped(t *testing.T) {
	t.Parallel()

	for _, s := range []State{StateExited, StateDead, StateStopped} {
		if !s.IsStopped() {
			t.Errorf("%s.IsStopped() = false", s)
		}
	}
	for _, s := range []State{StateRunning, StateCreated, StatePaused, StateRestarting} {
		if s.IsStopped() {
			t.Errorf("%s.IsStopped() = true", s)
		}
	}
}
