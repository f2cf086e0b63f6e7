// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// EngineTypePodman selects the podman CLI.
	EngineTypePodman EngineType = "podman"
	// EngineTypeDocker selects the docker CLI.
	EngineTypeDocker EngineType = "docker"
	// EngineTypeAuto picks whichever engine is available.
	EngineTypeAuto EngineType = "auto"
)

const (
	StateCreated    State = "created"
	StateRunning    State = "running"
	StatePaused     State = "paused"
	StateRestarting State = "restarting"
	StateRemoving   State = "removing"
	StateExited     State = "exited"
	StateDead       State = "dead"
	// StateStopped is reported by podman for containers stopped after running.
	StateStopped State = "stopped"
)

var (
	// ErrEngineNotAvailable is the sentinel error wrapped by EngineNotAvailableError.
	ErrEngineNotAvailable = errors.New("container engine not available")
	// ErrContainerNotFound is returned when the engine does not know the container.
	ErrContainerNotFound = errors.New("no such container")
	// ErrInvalidEngineType is the sentinel error wrapped by InvalidEngineTypeError.
	ErrInvalidEngineType = errors.New("invalid container engine type")
)

type (
	// Engine defines the container operations the checks need.
	Engine interface {
		// Name returns the engine name (docker or podman)
		Name() string
		// Available checks if the engine is available on the system
		Available() bool
		// Version returns the engine version
		Version(ctx context.Context) (string, error)
		// State returns the status of a container, e.g. "running".
		State(ctx context.Context, containerID string) (State, error)
		// Exec runs a command in a running container.
		Exec(ctx context.Context, containerID string, command []string) (*ExecResult, error)
	}

	// EngineType identifies the container engine type
	EngineType string

	// State is a container status as reported by the engine's inspect output.
	State string

	// ExecResult contains the result of running a command in a container.
	ExecResult struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// EngineNotAvailableError is returned when a container engine is not available.
	// It wraps ErrEngineNotAvailable for errors.Is() compatibility.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}

	// InvalidEngineTypeError is returned when an engine type string is not recognized.
	InvalidEngineTypeError struct {
		Value string
	}
)

// ParseEngineType converts a user-supplied engine name. The empty string
// means EngineTypeAuto.
func ParseEngineType(s string) (EngineType, error) {
	switch t := EngineType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", EngineTypeAuto:
		return EngineTypeAuto, nil
	case EngineTypeDocker, EngineTypePodman:
		return t, nil
	default:
		return "", &InvalidEngineTypeError{Value: s}
	}
}

// NewEngine creates a new container engine based on preference
func NewEngine(preferredType EngineType, opts ...Option) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine(opts...)
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Docker
		dockerEngine := NewDockerEngine(opts...)
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine(opts...)
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Podman
		podmanEngine := NewPodmanEngine(opts...)
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	case EngineTypeAuto, "":
		return AutoDetectEngine(opts...)

	default:
		return nil, &InvalidEngineTypeError{Value: string(preferredType)}
	}
}

// AutoDetectEngine tries to find an available container engine
func AutoDetectEngine(opts ...Option) (Engine, error) {
	// Try Podman first (more commonly available in rootless setups)
	podman := NewPodmanEngine(opts...)
	if podman.Available() {
		return podman, nil
	}

	docker := NewDockerEngine(opts...)
	if docker.Available() {
		return docker, nil
	}

	return nil, &EngineNotAvailableError{
		Engine: "any",
		Reason: "no container engine (podman or docker) is available on this system",
	}
}

// IsStopped reports whether the container has stopped running for good.
func (s State) IsStopped() bool {
	return s == StateExited || s == StateDead || s == StateStopped
}

func (s State) String() string { return string(s) }

func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrEngineNotAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

func (e *InvalidEngineTypeError) Error() string {
	return fmt.Sprintf("invalid container engine type %q (valid: auto, docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidEngineType for errors.Is() compatibility.
func (e *InvalidEngineTypeError) Unwrap() error { return ErrInvalidEngineType }
