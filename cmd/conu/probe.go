// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"conu-cli/internal/config"
	"conu-cli/internal/issue"
	"conu-cli/internal/metrics"
	"conu-cli/internal/probefile"
	"conu-cli/pkg/probe"
	"conu-cli/pkg/probe/checks"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

type (
	// probeRunFlags are the flags of 'conu probe run'.
	probeRunFlags struct {
		check        string
		args         []string
		argsJSON     []string
		timeout      string
		pause        string
		count        int
		expect       string
		expectErrors []string
		file         string
		metricsFile  string
	}

	// target is one probe to run, named for output.
	target struct {
		name string
		cfg  probe.Config
	}
)

// newProbeCommand creates the `conu probe` command tree.
func newProbeCommand(app *App, root *rootFlags) *cobra.Command {
	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Poll checks until they report the expected value",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	probeCmd.AddCommand(newProbeRunCommand(app, root))
	probeCmd.AddCommand(newProbeChecksCommand(app, root))

	return probeCmd
}

func newProbeRunCommand(app *App, root *rootFlags) *cobra.Command {
	rf := &probeRunFlags{}

	runCmd := &cobra.Command{
		Use:   "run [probe-name...]",
		Short: "Run one probe, or the probes of a probe file, in the foreground",
		Long: `Run a probe until it succeeds or a budget runs out.

With --check a single probe is built from flags. With --file the probes of a
CUE probe file are run one after another, optionally only the named ones;
budget flags then replace the configured defaults for entries that do not set
their own.

Exit codes: 0 success, 2 count exceeded, 3 timeout exceeded,
4 unexpected check error, 130 cancelled, 1 any other failure.`,
		Example: `  conu probe run --check http --arg url=http://localhost:8080/healthz --timeout 1m
  conu probe run --check tcp --arg address=db:5432 --expect-error connection-refused --timeout unbounded --count 60
  conu probe run --check container-state --arg container=web --expect '"running"'
  conu probe run --file probes.cue --metrics-file /var/lib/node_exporter/conu.prom`,
		RunE: func(cmd *cobra.Command, names []string) error {
			targets, err := buildTargets(root.cfg, rf, names, cmd.Flags().Changed("count"))
			if err != nil {
				return err
			}
			err = runTargets(cmd.Context(), app, root, rf, targets)
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}

	f := runCmd.Flags()
	f.StringVarP(&rf.check, "check", "c", "", "registered check to poll (see 'conu probe checks')")
	f.StringArrayVarP(&rf.args, "arg", "a", nil, "check argument as key=value (string)")
	f.StringArrayVar(&rf.argsJSON, "arg-json", nil, "check argument as key=JSON")
	f.StringVarP(&rf.timeout, "timeout", "t", "", `wall-clock budget, a duration or "unbounded" (default from config)`)
	f.StringVarP(&rf.pause, "pause", "p", "", "interval between liveness checks (default from config)")
	f.IntVarP(&rf.count, "count", "n", 0, "maximum number of attempts, -1 for unbounded (default from config)")
	f.StringVarP(&rf.expect, "expect", "e", "", "expected check result as JSON (default true)")
	f.StringArrayVar(&rf.expectErrors, "expect-error", nil, "error kind that means not ready yet (repeatable)")
	f.StringVarP(&rf.file, "file", "f", "", "CUE probe file")
	f.StringVar(&rf.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	runCmd.MarkFlagsMutuallyExclusive("check", "file")

	return runCmd
}

// buildTargets turns the flags (and probe file) into probe configurations.
func buildTargets(cfg *config.Config, rf *probeRunFlags, names []string, countSet bool) ([]target, error) {
	defaults := cfg.Probe
	if rf.file == "" {
		if rf.check == "" {
			return nil, errors.New("either --check or --file is required")
		}
		if len(names) > 0 {
			return nil, fmt.Errorf("probe names (%s) require --file", strings.Join(names, ", "))
		}
		pc, err := flagConfig(rf, countSet)
		if err != nil {
			return nil, err
		}
		if err := defaults.Apply(&pc); err != nil {
			return nil, err
		}
		return []target{{name: rf.check, cfg: pc}}, nil
	}

	if len(rf.args) > 0 || len(rf.argsJSON) > 0 || rf.expect != "" || len(rf.expectErrors) > 0 {
		return nil, errors.New("--arg, --arg-json, --expect and --expect-error cannot be combined with --file")
	}
	if rf.timeout != "" {
		defaults.Timeout = rf.timeout
	}
	if rf.pause != "" {
		defaults.Pause = rf.pause
	}
	if countSet {
		defaults.Count = rf.count
	}

	file, err := probefile.Load(rf.file)
	if err != nil {
		return nil, err
	}
	entries, err := file.Select(names)
	if err != nil {
		return nil, err
	}
	targets := make([]target, 0, len(entries))
	for _, e := range entries {
		pc, err := e.Config(defaults)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target{name: e.Name, cfg: pc})
	}
	return targets, nil
}

// flagConfig builds a probe.Config from --check and its companions. Unset
// budgets stay zero so the configured defaults can fill them.
func flagConfig(rf *probeRunFlags, countSet bool) (probe.Config, error) {
	pc := probe.Config{Check: rf.check, ExpectedErrors: rf.expectErrors}

	args, err := parseArgs(rf.args, rf.argsJSON)
	if err != nil {
		return probe.Config{}, err
	}
	pc.Args = args

	if rf.timeout != "" {
		if pc.Timeout, err = config.ParseBudget("--timeout", rf.timeout); err != nil {
			return probe.Config{}, err
		}
	}
	if rf.pause != "" {
		d, err := time.ParseDuration(rf.pause)
		if err != nil || d <= 0 {
			return probe.Config{}, &config.InvalidDurationError{Field: "--pause", Value: rf.pause}
		}
		pc.Pause = d
	}
	if countSet {
		if rf.count == 0 {
			return probe.Config{}, errors.New("--count: must be positive or -1")
		}
		pc.Count = rf.count
	}
	if rf.expect != "" {
		var v any
		if err := sonic.ConfigStd.UnmarshalFromString(rf.expect, &v); err != nil {
			return probe.Config{}, fmt.Errorf("--expect: invalid JSON: %w", err)
		}
		pc.ExpectedValue = v
	}
	return pc, nil
}

// parseArgs merges key=value strings and key=JSON values into probe.Args.
func parseArgs(plain, jsonArgs []string) (probe.Args, error) {
	if len(plain) == 0 && len(jsonArgs) == 0 {
		return nil, nil
	}
	args := make(probe.Args, len(plain)+len(jsonArgs))
	for _, kv := range plain {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--arg %q: want key=value", kv)
		}
		args[k] = v
	}
	for _, kv := range jsonArgs {
		k, raw, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--arg-json %q: want key=JSON", kv)
		}
		var v any
		if err := sonic.ConfigStd.UnmarshalFromString(raw, &v); err != nil {
			return nil, fmt.Errorf("--arg-json %s: invalid JSON: %w", k, err)
		}
		args[k] = v
	}
	return args, nil
}

// runTargets runs targets one after another and stops at the first failure.
func runTargets(ctx context.Context, app *App, root *rootFlags, rf *probeRunFlags, targets []target) error {
	opts := []probe.Option{
		probe.WithLogger(root.logger),
		probe.WithSpawner(unitSpawner(app, root)),
	}
	var rec *metrics.Recorder
	if rf.metricsFile != "" {
		rec = metrics.NewRecorder()
		opts = append(opts, probe.WithObserver(rec))
	}

	var runErr error
	for _, t := range targets {
		p, err := probe.New(t.cfg, opts...)
		if err != nil {
			runErr = probeConfigError(t.name, err)
			break
		}
		res, err := p.Run(ctx)
		printResult(app.stdout, t.name, res)
		if err != nil {
			runErr = &ExitError{Code: exitCodeFor(res.Outcome), Err: runFailure(t.name, res, err)}
			break
		}
	}

	if rec != nil {
		if err := rec.WriteTextfile(rf.metricsFile); err != nil {
			root.logger.Error("failed to write metrics", "path", rf.metricsFile, "err", err)
			if runErr == nil {
				return err
			}
		}
	}

	var exitErr *ExitError
	if errors.As(runErr, &exitErr) {
		reportFailure(app.stderr, exitErr.Err, root.verbose)
	}
	return runErr
}

// unitSpawner configures the execution unit spawner for this invocation: the
// configured container engine reaches the checks through the environment, and
// check output is shown in verbose mode.
func unitSpawner(app *App, root *rootFlags) probe.Spawner {
	ps, ok := app.Spawner.(*probe.ProcessSpawner)
	if !ok {
		return app.Spawner
	}
	spawner := *ps
	spawner.Env = append(append([]string(nil), ps.Env...), checks.EngineEnvVar+"="+root.cfg.Container.Engine.String())
	if root.verbose {
		spawner.Stdout = app.stderr
		spawner.Stderr = app.stderr
	}
	return &spawner
}

func probeConfigError(name string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("configure probe").
		WithResource(name)
	if errors.Is(err, probe.ErrUnknownCheck) {
		ctx = ctx.
			WithSuggestion("Run 'conu probe checks' to list the available checks").
			WithIssue(issue.UnknownCheckId)
	} else {
		ctx = ctx.WithIssue(issue.InvalidProbeConfigId)
	}
	return ctx.Wrap(err).BuildError()
}

// runFailure attaches the catalog entry matching the outcome to a failed run.
func runFailure(name string, res probe.Result, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("run probe").
		WithResource(name)
	switch res.Outcome {
	case probe.OutcomeTimeoutExceeded:
		ctx = ctx.
			WithSuggestion("Increase --timeout or use --timeout unbounded with --count").
			WithIssue(issue.ProbeTimedOutId)
	case probe.OutcomeCountExceeded:
		ctx = ctx.
			WithSuggestion("Increase --count").
			WithIssue(issue.ProbeCountExceededId)
	case probe.OutcomeUnexpectedError:
		var ce *probe.CheckError
		if errors.As(err, &ce) && ce.Kind != "" {
			ctx = ctx.WithSuggestion(fmt.Sprintf("Add --expect-error %s if this error means the condition is not met yet", ce.Kind))
		}
		ctx = ctx.WithIssue(issue.CheckFailedId)
	}
	return ctx.Wrap(err).BuildError()
}

func printResult(w io.Writer, name string, res probe.Result) {
	summary := fmt.Sprintf("%s after %d attempt(s) in %s", res.Outcome, res.Attempts, res.Elapsed.Round(time.Millisecond))
	switch res.Outcome {
	case probe.OutcomeSuccess:
		fmt.Fprintf(w, "%s %s: %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(name), summary)
	case probe.OutcomeCancelled:
		fmt.Fprintf(w, "%s %s: %s\n", WarningStyle.Render("!"), CmdStyle.Render(name), summary)
	default:
		fmt.Fprintf(w, "%s %s: %s\n", ErrorStyle.Render("✗"), CmdStyle.Render(name), summary)
	}
}

// reportFailure prints err and, in verbose mode, the catalog entry behind it.
func reportFailure(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if !verbose || !errors.As(err, &ae) || ae.Issue() == nil {
		return
	}
	if rendered, rerr := ae.Issue().Render("dark"); rerr == nil {
		fmt.Fprint(w, rendered)
	}
}
