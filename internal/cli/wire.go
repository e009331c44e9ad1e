package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	agentrt "github.com/ankittk/devloop/internal/agent/runtime"
	"github.com/ankittk/devloop/internal/config"
	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/prompt"
	"github.com/ankittk/devloop/internal/session"
)

// newRuntime picks the collaborator implementation from settings.
func newRuntime(s config.Settings) agentrt.Runtime {
	if s.Runtime == "stub" {
		return agentrt.StubRuntime{}
	}
	return agentrt.CLIRuntime{Command: s.Command, Model: s.Model}
}

// newExecutor builds a session executor for the workspace, streaming any
// readable collaborator output to w.
func newExecutor(workspace string, s config.Settings, w io.Writer) *session.Executor {
	return &session.Executor{
		Store:     feature.NewStore(workspace),
		Workspace: workspace,
		Runtime:   newRuntime(s),
		MaxTurns:  s.MaxTurns,
		Timeout:   time.Duration(s.TimeoutMinutes) * time.Minute,
		Assembler: prompt.Assembler{
			Workspace:      workspace,
			JournalEntries: s.JournalEntries,
			GitLogEntries:  s.GitLogEntries,
			TreeDepth:      s.TreeDepth,
		},
		Emit: func(ev agentrt.Event) {
			if text := agentrt.Text(ev); text != "" {
				fmt.Fprintln(w, text)
			}
		},
	}
}

// parseCategory validates a --category flag value. The closed-set check
// lives here at the entry point; the store itself never validates it.
func parseCategory(v string) (feature.Category, error) {
	if v == "" {
		return "", nil
	}
	c := feature.Category(v)
	if !c.Valid() {
		names := make([]string, 0, len(feature.Categories()))
		for _, k := range feature.Categories() {
			names = append(names, string(k))
		}
		return "", fmt.Errorf("unknown category %q (valid: %s)", v, strings.Join(names, ", "))
	}
	return c, nil
}
