// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"conu-cli/internal/container"
	"conu-cli/pkg/probe"

	"github.com/spf13/cobra"
)

func newProbeChecksCommand(app *App, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "checks",
		Short: "List registered checks, error kinds and the container engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listChecks(app.stdout)
			fmt.Fprintln(app.stdout)
			fmt.Fprintln(app.stdout, TitleStyle.Render("Container engine")+
				SubtitleStyle.Render(" (used by container-state and container-file)"))
			fmt.Fprintln(app.stdout, listItemStyle.Render(engineStatus(cmd.Context(), app, root)))
			return nil
		},
	}
}

func listChecks(w io.Writer) {
	fmt.Fprintln(w, TitleStyle.Render("Checks"))
	for _, name := range probe.Checks() {
		fmt.Fprintln(w, listItemStyle.Render(CmdStyle.Render(name)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Error kinds")+SubtitleStyle.Render(" (usable with --expect-error)"))
	for _, kind := range probe.ErrorKinds() {
		fmt.Fprintln(w, listItemStyle.Render(kind))
	}
}

// engineStatus describes the engine selected by container.engine.
func engineStatus(ctx context.Context, app *App, root *rootFlags) string {
	configured := root.cfg.Container.Engine.String()
	t, err := container.ParseEngineType(configured)
	if err != nil {
		return ErrorStyle.Render(err.Error())
	}
	engine, err := app.Engines(t)
	if err != nil {
		return WarningStyle.Render("not available") + SubtitleStyle.Render(fmt.Sprintf(" (%s: %v)", configured, err))
	}
	if !engine.Available() {
		return WarningStyle.Render(engine.Name() + " not available")
	}
	version, err := engine.Version(ctx)
	if err != nil {
		return CmdStyle.Render(engine.Name()) + " " + WarningStyle.Render("version unknown")
	}
	return CmdStyle.Render(engine.Name()) + " " + SuccessStyle.Render(version)
}
