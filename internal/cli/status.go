package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankittk/devloop/internal/config"
	"github.com/ankittk/devloop/internal/feature"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the backlog state",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := config.MustWorkspaceFrom(cmd.Context())
			list, err := feature.NewStore(workspace).Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			done, total := list.Counts("")
			fmt.Fprintf(out, "%s — %d/%d features done\n", list.ProjectName, done, total)
			for _, t := range list.Features {
				mark := " "
				if t.Done {
					mark = "x"
				}
				fmt.Fprintf(out, "  [%s] %-7s %s (%s)\n", mark, t.ID, t.Title, t.Category.OrDefault())
			}
			return nil
		},
	}
	return cmd
}

func newNextCmd() *cobra.Command {
	var categoryFlag string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next feature the loop would pick",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := config.MustWorkspaceFrom(cmd.Context())
			filter, err := parseCategory(categoryFlag)
			if err != nil {
				return err
			}
			task, _, err := feature.NewStore(workspace).NextTask(filter)
			if err != nil {
				return err
			}
			if task == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "queue empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", task.ID, task.Title, task.Category.OrDefault())
			return nil
		},
	}
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Only consider features of this category")
	return cmd
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear every done flag (bulk re-run of the whole backlog)",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := config.MustWorkspaceFrom(cmd.Context())
			n, err := feature.NewStore(workspace).ResetDone()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d feature(s)\n", n)
			return nil
		},
	}
	return cmd
}
