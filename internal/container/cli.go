// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a CLI-based engine.
	Option func(*cliEngine)

	// CommandError is returned when an engine command fails. Stderr is kept so
	// IsTransientError can classify the failure.
	CommandError struct {
		Engine string
		Args   []string
		Stderr string
		Err    error
	}

	// cliEngine provides the implementation shared by the docker and podman
	// CLIs; the concrete engines only differ in name and version template.
	cliEngine struct {
		name          string
		binaryPath    string
		versionFormat string
		execCommand   ExecCommandFunc
	}
)

// WithExecCommand replaces exec.CommandContext.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(e *cliEngine) {
		if fn != nil {
			e.execCommand = fn
		}
	}
}

// WithBinaryPath skips PATH lookup and uses path for the engine binary.
func WithBinaryPath(path string) Option {
	return func(e *cliEngine) {
		e.binaryPath = path
	}
}

func newCLIEngine(name, versionFormat string, opts ...Option) *cliEngine {
	path, _ := exec.LookPath(name)
	e := &cliEngine{
		name:          name,
		binaryPath:    path,
		versionFormat: versionFormat,
		execCommand:   exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *cliEngine) Name() string {
	return e.name
}

// BinaryPath returns the resolved engine binary, or "" when it is not installed.
func (e *cliEngine) BinaryPath() string {
	return e.binaryPath
}

// Available checks if the engine binary exists and its daemon answers.
func (e *cliEngine) Available() bool {
	if e.binaryPath == "" {
		return false
	}
	_, err := e.RunCommandWithOutput(context.Background(), "version", "--format", e.versionFormat)
	return err == nil
}

// Version returns the engine version.
func (e *cliEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", e.versionFormat)
	if err != nil {
		return "", fmt.Errorf("failed to get %s version: %w", e.name, err)
	}
	return strings.TrimSpace(out), nil
}

// State returns the container status from `inspect`.
func (e *cliEngine) State(ctx context.Context, containerID string) (State, error) {
	out, err := e.RunCommandWithOutput(ctx, "container", "inspect", "--format", "{{.State.Status}}", containerID)
	if err != nil {
		return "", err
	}
	return State(strings.TrimSpace(out)), nil
}

// Exec runs command inside a running container. A non-zero exit status of the
// command itself is reported in the result, not as an error; engine failures
// (exit codes 125 and above, unknown container) are errors.
func (e *cliEngine) Exec(ctx context.Context, containerID string, command []string) (*ExecResult, error) {
	args := append([]string{"exec", containerID}, command...)
	cmd := e.CreateCommand(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, e.commandError(args, stderr.String(), err)
	}
	if isNotFound(stderr.String()) || exitErr.ExitCode() >= 125 {
		return nil, e.commandError(args, stderr.String(), err)
	}
	result.ExitCode = exitErr.ExitCode()
	return result, nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *cliEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return "", e.commandError(args, errOut.String(), err)
	}
	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
func (e *cliEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

func (e *cliEngine) commandError(args []string, stderr string, err error) error {
	cerr := &CommandError{Engine: e.name, Args: args, Stderr: strings.TrimSpace(stderr), Err: err}
	if isNotFound(stderr) {
		return fmt.Errorf("%w: %w", ErrContainerNotFound, cerr)
	}
	return cerr
}

func isNotFound(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no such container") || strings.Contains(s, "no such object")
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command %s %v failed: %v", e.Engine, e.Args, e.Err)
	}
	return fmt.Sprintf("command %s %v failed: %v: %s", e.Engine, e.Args, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }
