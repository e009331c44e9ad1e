package cli

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/ankittk/devloop/internal/config"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify runtime dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := config.MustWorkspaceFrom(cmd.Context())

			var problems []string

			// git provides commit history and the post-session commit ref.
			if _, err := exec.LookPath("git"); err != nil {
				problems = append(problems, "missing dependency: git (not found on PATH)")
			}

			settings, err := config.LoadSettings(workspace)
			if err != nil {
				problems = append(problems, err.Error())
			} else if settings.Runtime != "stub" {
				if _, err := exec.LookPath(settings.Command); err != nil {
					problems = append(problems, fmt.Sprintf("missing dependency: %s (not found on PATH)", settings.Command))
				}
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	return cmd
}
