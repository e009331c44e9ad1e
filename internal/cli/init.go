package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ankittk/devloop/internal/config"
	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/gitinfo"
)

func newInitCmd() *cobra.Command {
	var name string
	var techStack []string

	cmd := &cobra.Command{
		Use:   "init <project description>",
		Short: "Generate the initial feature backlog for a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := config.MustWorkspaceFrom(cmd.Context())
			description := args[0]

			store := feature.NewStore(workspace)
			if _, err := store.Load(); err == nil {
				return fmt.Errorf("%s already exists in %s; refusing to overwrite", feature.StoreFile, workspace)
			} else if !errors.Is(err, feature.ErrNotFound) {
				return err
			}

			if name == "" {
				name = filepath.Base(workspace)
			}
			if err := gitinfo.EnsureRepo(cmd.Context(), workspace); err != nil {
				return err
			}

			settings, err := config.LoadSettings(workspace)
			if err != nil {
				return err
			}
			exec := newExecutor(workspace, settings, cmd.OutOrStdout())

			fmt.Fprintf(cmd.OutOrStdout(), "Generating feature backlog for %q...\n", name)
			tasks, err := exec.Bootstrap(cmd.Context(), name, description)
			if err != nil {
				return err
			}

			list := &feature.List{
				ProjectName: name,
				Description: description,
				TechStack:   techStack,
				Features:    tasks,
			}
			if err := store.Save(list); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d features to %s\n", len(tasks), store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name (default: workspace directory name)")
	cmd.Flags().StringSliceVar(&techStack, "tech", nil, "Technology stack labels (repeatable)")
	return cmd
}
