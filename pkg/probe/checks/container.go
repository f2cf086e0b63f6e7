// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"fmt"
	"os"

	"conu-cli/internal/container"
	"conu-cli/pkg/probe"
)

// EngineEnvVar selects the container engine when a check has no "engine" arg.
const EngineEnvVar = "CONU_CONTAINER_ENGINE"

// newEngine is replaced in tests.
var newEngine = func(t container.EngineType) (container.Engine, error) {
	return container.NewEngine(t)
}

// containerState returns the status of args["container"], e.g. "running".
func containerState(ctx context.Context, args probe.Args) (any, error) {
	id, err := args.String("container")
	if err != nil {
		return nil, err
	}
	engine, err := engineFor(args)
	if err != nil {
		return nil, err
	}
	state, err := engine.State(ctx, id)
	if err != nil {
		return nil, engineError(err)
	}
	return string(state), nil
}

// containerFile reports whether args["path"] exists inside args["container"].
func containerFile(ctx context.Context, args probe.Args) (any, error) {
	id, err := args.String("container")
	if err != nil {
		return nil, err
	}
	path, err := args.String("path")
	if err != nil {
		return nil, err
	}
	engine, err := engineFor(args)
	if err != nil {
		return nil, err
	}
	res, err := engine.Exec(ctx, id, []string{"test", "-e", path})
	if err != nil {
		return nil, engineError(err)
	}
	return res.ExitCode == 0, nil
}

func engineFor(args probe.Args) (container.Engine, error) {
	name, err := args.StringOr("engine", os.Getenv(EngineEnvVar))
	if err != nil {
		return nil, err
	}
	t, err := container.ParseEngineType(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", probe.ErrInvalidArg, err)
	}
	engine, err := newEngine(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return engine, nil
}

// engineError tags transient engine failures so probes can expect them.
func engineError(err error) error {
	if container.IsTransientError(err) {
		return fmt.Errorf("%w: %w", ErrEngineTransient, err)
	}
	return err
}
