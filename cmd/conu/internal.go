// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"conu-cli/pkg/probe"

	"github.com/spf13/cobra"
)

// newInternalCommand creates the hidden parent of the subcommands used for
// subprocess execution. They skip config loading entirely.
func newInternalCommand() *cobra.Command {
	internalCmd := &cobra.Command{
		Use:    "internal",
		Short:  "Internal commands (not for direct use)",
		Hidden: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
	}

	internalCmd.AddCommand(&cobra.Command{
		Use:   "probe-unit",
		Short: "Run one probe attempt (execution unit)",
		Long: `Reads a unit request from stdin, runs the check once and writes
exactly one result message to file descriptor 3.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return probe.ServeStdio(cmd.Context())
		},
	})

	return internalCmd
}
