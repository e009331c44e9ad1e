package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ankittk/devloop/internal/config"
	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/ledger"
	"github.com/ankittk/devloop/internal/loop"
	"github.com/ankittk/devloop/internal/otel"
	"github.com/ankittk/devloop/internal/session"
)

func newRunCmd() *cobra.Command {
	var maxSessions int
	var categoryFlag string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the feature queue, one collaborator session per feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workspace := config.MustWorkspaceFrom(ctx)
			filter, err := parseCategory(categoryFlag)
			if err != nil {
				return err
			}
			settings, err := config.LoadSettings(workspace)
			if err != nil {
				return err
			}
			if maxSessions <= 0 {
				maxSessions = settings.MaxSessions
			}

			if metricsAddr != "" {
				if handler, err := otel.InitMeterProvider(ctx, "devloop"); err != nil {
					slog.Warn("metrics init failed", "err", err)
				} else {
					if err := otel.InitMetrics(ctx); err != nil {
						slog.Warn("metrics instruments failed", "err", err)
					}
					mux := http.NewServeMux()
					mux.Handle("/metrics", handler)
					go func() {
						if err := http.ListenAndServe(metricsAddr, mux); err != nil {
							slog.Warn("metrics server stopped", "err", err)
						}
					}()
				}
			}

			led, err := ledger.Open(workspace)
			if err != nil {
				slog.Warn("session ledger unavailable", "err", err)
				led = nil
			} else {
				defer func() { _ = led.Close() }()
			}

			out := cmd.OutOrStdout()
			ctrl := &loop.Controller{
				Executor:    newExecutor(workspace, settings, out),
				Store:       feature.NewStore(workspace),
				MaxSessions: maxSessions,
				Delay:       time.Duration(settings.DelaySeconds) * time.Second,
				Filter:      filter,
				Ledger:      led,
				OnSession: func(n int, o session.Outcome) {
					status := "incomplete"
					if o.Success {
						status = "completed"
					}
					if o.Err != nil {
						status = "error: " + o.Err.Error()
					}
					fmt.Fprintf(out, "\n--- session %d: %s %q — %s\n\n", n, o.TaskID, o.Title, status)
				},
			}

			summary := ctrl.Run(ctx)
			fmt.Fprintf(out, "\n%s after %d session(s): %d completed, %d failed\n",
				summary.Final, summary.Sessions, summary.Completed, summary.Failed)
			if summary.Err != nil {
				return summary.Err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "Session cap for this run (default from config)")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Only run features of this category")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}
