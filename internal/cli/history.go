package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankittk/devloop/internal/config"
	"github.com/ankittk/devloop/internal/ledger"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent collaborator sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := config.MustWorkspaceFrom(cmd.Context())
			led, err := ledger.Open(workspace)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			records, err := led.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no sessions recorded yet")
				return nil
			}
			for _, r := range records {
				sha := r.CommitSHA
				if len(sha) > 8 {
					sha = sha[:8]
				}
				fmt.Fprintf(out, "%s  %-7s %-10s %-8s %s\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.TaskID, r.Outcome, sha, r.Title)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of sessions to show")
	return cmd
}
