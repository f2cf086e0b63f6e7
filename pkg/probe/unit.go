// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// UnitEnvVar marks a process as an execution unit. Init serves the attempt and
// exits when it is set.
const UnitEnvVar = "CONU_PROBE_UNIT"

type (
	// Unit is one running attempt of a check.
	Unit interface {
		// PID identifies the unit in logs.
		PID() int
		// Alive reports whether the unit is still running. It never blocks.
		Alive() bool
		// Result returns the unit's single message. It must only be called once
		// Alive reports false.
		Result() (UnitMessage, error)
		// Kill terminates the unit unconditionally. It is safe to call more than once.
		Kill() error
		// Wait blocks until the unit has been reaped.
		Wait() error
	}

	// Spawner starts execution units.
	Spawner interface {
		Spawn(ctx context.Context, req UnitRequest) (Unit, error)
	}

	// ProcessSpawner runs every attempt in a child process. The request is
	// written to the child's stdin and the result is read from file descriptor
	// 3, so anything the check prints cannot corrupt it.
	ProcessSpawner struct {
		// Path is the executable to start. Defaults to os.Executable().
		Path string
		// Args are passed to the executable, e.g. a hidden subcommand that calls
		// ServeStdio. With no Args the child must call Init early in main.
		Args []string
		// Env is appended to the parent's environment.
		Env []string
		// Stdout and Stderr receive the check's own output. Nil discards it.
		Stdout io.Writer
		Stderr io.Writer
	}

	processUnit struct {
		cmd *exec.Cmd

		exited  chan struct{}
		waitErr error

		drained chan struct{}
		payload []byte
		readErr error

		killOnce sync.Once
		killErr  error
	}
)

// Spawn starts a child process for req.
func (s *ProcessSpawner) Spawn(_ context.Context, req UnitRequest) (Unit, error) {
	path := s.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable for execution unit: %w", err)
		}
		path = exe
	}

	payload, err := encodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("encode unit request: %w", err)
	}

	resultR, resultW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create result pipe: %w", err)
	}

	// The child is killed explicitly, never through a context.
	cmd := exec.Command(path, s.Args...) //nolint:gosec,noctx // path is the probe binary itself
	cmd.Env = append(append(os.Environ(), s.Env...), UnitEnvVar+"=1")
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	cmd.ExtraFiles = []*os.File{resultW}
	configureUnitProcess(cmd)

	if err := cmd.Start(); err != nil {
		_ = resultR.Close()
		_ = resultW.Close()
		return nil, fmt.Errorf("start execution unit: %w", err)
	}
	// Only the child may hold the write end, otherwise EOF never arrives.
	_ = resultW.Close()

	u := &processUnit{
		cmd:     cmd,
		exited:  make(chan struct{}),
		drained: make(chan struct{}),
	}
	go u.drain(resultR)
	go u.reap()
	return u, nil
}

// drain reads the result pipe concurrently so a large message can never block
// the child on a full pipe buffer.
func (u *processUnit) drain(r *os.File) {
	defer close(u.drained)
	defer r.Close()
	u.payload, u.readErr = io.ReadAll(io.LimitReader(r, maxMessageSize+1))
	if u.readErr == nil && len(u.payload) > maxMessageSize {
		u.readErr = fmt.Errorf("result exceeds %d bytes", maxMessageSize)
	}
}

func (u *processUnit) reap() {
	defer close(u.exited)
	u.waitErr = u.cmd.Wait()
}

func (u *processUnit) PID() int {
	return u.cmd.Process.Pid
}

func (u *processUnit) Alive() bool {
	select {
	case <-u.exited:
		return false
	default:
		return true
	}
}

func (u *processUnit) Result() (UnitMessage, error) {
	<-u.exited
	<-u.drained
	if u.readErr != nil {
		return UnitMessage{}, fmt.Errorf("read unit result: %w", u.readErr)
	}
	if len(u.payload) == 0 {
		cause := u.waitErr
		if cause == nil {
			cause = errors.New("exit status 0")
		}
		return ErrorMessage(KindUnitCrashed, fmt.Errorf("%w: %w", ErrUnitCrashed, cause)), nil
	}
	return decodeMessage(u.payload)
}

func (u *processUnit) Kill() error {
	u.killOnce.Do(func() {
		err := killUnitProcess(u.cmd.Process)
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			u.killErr = fmt.Errorf("kill execution unit %d: %w", u.cmd.Process.Pid, err)
		}
	})
	return u.killErr
}

func (u *processUnit) Wait() error {
	<-u.exited
	<-u.drained
	return u.waitErr
}
