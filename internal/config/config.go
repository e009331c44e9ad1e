// Package config resolves the workspace directory and the optional
// per-workspace settings file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type workspaceKey struct{}

// WithWorkspace stores the workspace path in the context.
func WithWorkspace(ctx context.Context, workspace string) context.Context {
	return context.WithValue(ctx, workspaceKey{}, workspace)
}

// WorkspaceFrom returns the workspace path from the context, if set.
func WorkspaceFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(workspaceKey{})
	s, ok := v.(string)
	return s, ok
}

// MustWorkspaceFrom returns the workspace path from the context, or panics
// if not set. The root command sets it before any subcommand runs.
func MustWorkspaceFrom(ctx context.Context) string {
	if w, ok := WorkspaceFrom(ctx); ok && w != "" {
		return w
	}
	panic("workspace missing from context")
}

// ResolveWorkspace returns the workspace directory: the override flag, the
// DEVLOOP_WORKSPACE env var, or the current directory.
func ResolveWorkspace(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv("DEVLOOP_WORKSPACE")
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.New("could not determine current directory")
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Dir returns the devloop state directory inside a workspace.
func Dir(workspace string) string {
	return filepath.Join(workspace, ".devloop")
}

// SettingsFile is the optional per-workspace settings file under Dir.
const SettingsFile = "config.yaml"

// Settings is the per-workspace configuration. Every field has a usable
// default; the file may set any subset.
type Settings struct {
	Runtime        string `yaml:"runtime"`         // "cli" or "stub"
	Command        string `yaml:"command"`         // collaborator binary for the cli runtime
	Model          string `yaml:"model"`           // optional model override
	MaxTurns       int    `yaml:"max_turns"`       // collaborator turn budget per session
	MaxSessions    int    `yaml:"max_sessions"`    // default loop cap for run
	DelaySeconds   int    `yaml:"delay_seconds"`   // inter-session pause
	TimeoutMinutes int    `yaml:"timeout_minutes"` // optional wall-clock session bound; 0 = off
	JournalEntries int    `yaml:"journal_entries"` // progress entries included in context
	GitLogEntries  int    `yaml:"git_log_entries"` // commits included in context
	TreeDepth      int    `yaml:"tree_depth"`      // workspace listing depth
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Runtime:        "cli",
		Command:        "claude",
		MaxTurns:       60,
		MaxSessions:    20,
		DelaySeconds:   3,
		TimeoutMinutes: 0,
		JournalEntries: 10,
		GitLogEntries:  20,
		TreeDepth:      3,
	}
}

// LoadSettings reads <workspace>/.devloop/config.yaml over the defaults. A
// missing file is not an error.
func LoadSettings(workspace string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(filepath.Join(Dir(workspace), SettingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}
