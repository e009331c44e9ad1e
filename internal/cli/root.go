// Package cli implements the devloop command tree. Presentation stays
// plain; everything interesting happens in the internal packages it wires
// together.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ankittk/devloop/internal/config"
)

func NewRootCmd(version string) *cobra.Command {
	var workspaceOverride string

	cmd := &cobra.Command{
		Use:          "devloop",
		Short:        "devloop — session-based autonomous development loop",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			workspace, err := config.ResolveWorkspace(workspaceOverride)
			if err != nil {
				return err
			}
			cmd.SetContext(config.WithWorkspace(cmd.Context(), workspace))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&workspaceOverride, "workspace", "", "Project workspace directory (default: current dir, env: DEVLOOP_WORKSPACE)")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newNextCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newDoctorCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
