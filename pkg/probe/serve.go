// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"fmt"
	"io"
	"os"
)

// resultFD is the descriptor ProcessSpawner hands to the child for its result.
const resultFD = 3

// Init serves one attempt and exits when the process was started as an
// execution unit by ProcessSpawner without extra Args. Call it first thing in
// main (or TestMain); it returns immediately in every other process.
func Init() {
	if os.Getenv(UnitEnvVar) == "" {
		return
	}
	if err := ServeStdio(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "probe execution unit: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// ServeStdio serves one attempt using the process's stdin for the request and
// file descriptor 3 for the result. Hidden subcommands that act as execution
// units call it directly.
func ServeStdio(ctx context.Context) error {
	// Nested probes started by the check must not mistake themselves for units.
	_ = os.Unsetenv(UnitEnvVar)

	return serveFD(ctx, os.Stdin, resultFD)
}

// serveFD serves one attempt writing its result to descriptor fd.
func serveFD(ctx context.Context, in io.Reader, fd uintptr) error {
	out := os.NewFile(fd, "probe-result")
	if out == nil {
		return fmt.Errorf("result descriptor %d is invalid", fd)
	}
	if _, err := out.Stat(); err != nil {
		return fmt.Errorf("result descriptor %d is not open: %w", fd, err)
	}
	closeOnExec(out)
	defer out.Close()

	return ServeUnit(ctx, in, out)
}

// ServeUnit reads a UnitRequest from in, runs the check once and writes exactly
// one UnitMessage to out.
func ServeUnit(ctx context.Context, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read unit request: %w", err)
	}
	req, err := decodeRequest(data)
	if err != nil {
		return err
	}

	payload, err := encodeMessage(runCheck(ctx, req))
	if err != nil {
		return fmt.Errorf("encode unit message: %w", err)
	}
	if _, err := out.Write(payload); err != nil {
		return fmt.Errorf("write unit message: %w", err)
	}
	return nil
}

// runCheck executes the requested check and classifies its outcome.
func runCheck(ctx context.Context, req UnitRequest) (msg UnitMessage) {
	fn, ok := lookupCheck(req.Check)
	if !ok {
		return ErrorMessage(KindUnknownCheck, &UnknownCheckError{Name: req.Check})
	}

	var args Args
	if len(req.Args) > 0 {
		if err := codec.Unmarshal(req.Args, &args); err != nil {
			return ErrorMessage(KindInvalidArgs, fmt.Errorf("%w: %w", ErrInvalidArg, err))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			msg = ErrorMessage(KindPanic, fmt.Errorf("%w: %v", ErrCheckPanicked, r))
		}
	}()

	v, err := fn(ctx, args)
	if err != nil {
		if kind := matchErrorKind(err, req.ExpectedErrors); kind != "" {
			return NotReadyMessage(kind, err)
		}
		return ErrorMessage(classifyError(err), err)
	}

	msg, err = ValueMessage(v)
	if err != nil {
		return ErrorMessage(KindBadResult, fmt.Errorf("%w: %w", ErrBadResult, err))
	}
	return msg
}
