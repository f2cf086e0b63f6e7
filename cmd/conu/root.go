// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for conu.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"conu-cli/internal/config"
	"conu-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the global flags and the state PersistentPreRunE derives
// from them for one invocation.
type rootFlags struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
}

// NewRootCommand builds the conu command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "conu",
		Short: "Wait for conditions with bounded, process-isolated polling",
		Long: TitleStyle.Render("conu") + SubtitleStyle.Render(" - wait until a condition holds") + `

conu polls a check (a file, a port, a URL, a container, a database) until it
reports the expected value, an attempt count runs out, or a timeout passes.
Every attempt runs in its own process, so a stuck check is always killed.

` + SubtitleStyle.Render("Examples:") + `
  conu probe run --check tcp --arg address=localhost:5432 --timeout 30s
  conu probe run --check file-exists --arg path=/tmp/ready --count 10
  conu probe run --file probes.cue db cache
  conu probe checks          List available checks and error kinds
  conu config show           Show effective configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return flags.load(cmd.Context(), app)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and show check output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/conu/config.cue)")

	rootCmd.AddCommand(newProbeCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newInternalCommand())

	return rootCmd
}

// load reads the configuration and builds the logger.
func (f *rootFlags) load(ctx context.Context, app *App) error {
	cfg, path, err := app.loadConfig(ctx, f)
	if err != nil {
		return err
	}
	level, err := cfg.Log.ParseLevel()
	if err != nil {
		return err
	}
	if f.verbose {
		level = log.DebugLevel
	}

	f.cfg = cfg
	f.cfgPath = path
	f.logger = log.NewWithOptions(app.stderr, log.Options{
		Prefix:          "conu",
		Level:           level,
		ReportTimestamp: f.verbose,
	})
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their own Format; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
