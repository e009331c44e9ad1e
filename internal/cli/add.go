package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankittk/devloop/internal/config"
	"github.com/ankittk/devloop/internal/extract"
	"github.com/ankittk/devloop/internal/feature"
)

func newAddCmd() *cobra.Command {
	var categoryFlag string
	var target string

	cmd := &cobra.Command{
		Use:   "add <request>",
		Short: "Turn a free-form request into backlog features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := config.MustWorkspaceFrom(cmd.Context())
			cat, err := parseCategory(categoryFlag)
			if err != nil {
				return err
			}
			settings, err := config.LoadSettings(workspace)
			if err != nil {
				return err
			}
			exec := newExecutor(workspace, settings, cmd.OutOrStdout())

			tasks, err := exec.Atomize(cmd.Context(), args[0], cat, target)
			if err != nil {
				var pe *extract.ParseError
				if errors.As(err, &pe) {
					fmt.Fprintf(cmd.ErrOrStderr(), "raw collaborator output follows:\n%s\n", pe.Raw)
				}
				return err
			}

			store := feature.NewStore(workspace)
			if err := store.Append(tasks); err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", t.ID, t.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Feature category (standard-feature, refactor, bugfix, improvement, docs)")
	cmd.Flags().StringVar(&target, "target", "", "Free-form subsystem label (e.g. web, mobile, backend)")
	return cmd
}
