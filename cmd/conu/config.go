// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"conu-cli/internal/config"

	"github.com/spf13/cobra"
)

// Output formats of 'conu config show'.
const (
	formatText = "text"
	formatCUE  = "cue"
	formatTOML = "toml"
)

// newConfigCommand creates the `conu config` command tree.
func newConfigCommand(app *App, root *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage conu configuration",
		Long: `Manage conu configuration.

Configuration is stored in:
  - Linux: ~/.config/conu/config.cue
  - macOS: ~/Library/Application Support/conu/config.cue
  - Windows: %APPDATA%\conu\config.cue

Environment variables override file values: CONU_PROBE_TIMEOUT,
CONU_PROBE_PAUSE, CONU_PROBE_COUNT, CONU_CONTAINER_ENGINE, CONU_LOG_LEVEL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return showConfig(app.stdout, root, format)
		},
	}
	showCmd.Flags().StringVar(&format, "format", formatText, "output format: text, cue or toml")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path, err := config.CreateDefaultConfig("")
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, root *rootFlags, format string) error {
	cfg := root.cfg
	switch format {
	case formatCUE:
		fmt.Fprint(w, config.GenerateCUE(cfg))
		return nil
	case formatTOML:
		out, err := config.GenerateTOML(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(w, out)
		return nil
	case formatText:
	default:
		return fmt.Errorf("unknown format %q (valid: text, cue, toml)", format)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if root.cfgPath != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), root.cfgPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s:\n", keyStyle.Render("probe"))
	fmt.Fprintf(w, "  timeout: %s\n", valueStyle.Render(cfg.Probe.Timeout))
	fmt.Fprintf(w, "  pause: %s\n", valueStyle.Render(cfg.Probe.Pause))
	fmt.Fprintf(w, "  count: %s\n", valueStyle.Render(fmt.Sprint(cfg.Probe.Count)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("container"))
	fmt.Fprintf(w, "  engine: %s\n", valueStyle.Render(cfg.Container.Engine.String()))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("log"))
	fmt.Fprintf(w, "  level: %s\n", valueStyle.Render(cfg.Log.Level))
	return nil
}
