// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"conu-cli/pkg/probe"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// shellCheck runs args["script"] with the built-in POSIX shell interpreter and
// reports whether it exited with status 0. args["dir"] sets the working
// directory and args["env"] (an object of strings) extends the environment.
func shellCheck(ctx context.Context, args probe.Args) (any, error) {
	script, err := args.String("script")
	if err != nil {
		return nil, err
	}
	dir, err := args.StringOr("dir", "")
	if err != nil {
		return nil, err
	}
	env, err := shellEnv(args["env"])
	if err != nil {
		return nil, err
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "check")
	if err != nil {
		return nil, fmt.Errorf("%w: parse script: %w", probe.ErrInvalidArg, err)
	}

	opts := []interp.RunnerOption{
		interp.StdIO(nil, os.Stdout, os.Stderr),
		interp.Env(expand.ListEnviron(env...)),
	}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return false, nil
		}
		return nil, fmt.Errorf("run script: %w", err)
	}
	return true, nil
}

// shellEnv overlays the JSON object v onto the process environment.
func shellEnv(v any) ([]string, error) {
	env := os.Environ()
	if v == nil {
		return env, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: env must be an object, got %T", probe.ErrInvalidArg, v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok {
			return nil, fmt.Errorf("%w: env %s must be a string, got %T", probe.ErrInvalidArg, k, m[k])
		}
		env = append(env, k+"="+s)
	}
	return env, nil
}
