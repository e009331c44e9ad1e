package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveWorkspace_overrideWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEVLOOP_WORKSPACE", "/somewhere/else")
	got, err := ResolveWorkspace(dir)
	if err != nil {
		t.Fatalf("ResolveWorkspace: %v", err)
	}
	if got != dir {
		t.Errorf("got %q, want override %q", got, dir)
	}
}

func TestResolveWorkspace_envFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEVLOOP_WORKSPACE", dir)
	got, err := ResolveWorkspace("")
	if err != nil {
		t.Fatalf("ResolveWorkspace: %v", err)
	}
	if got != dir {
		t.Errorf("got %q, want env %q", got, dir)
	}
}

func TestResolveWorkspace_cwdDefault(t *testing.T) {
	t.Setenv("DEVLOOP_WORKSPACE", "")
	got, err := ResolveWorkspace("")
	if err != nil {
		t.Fatalf("ResolveWorkspace: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(cwd) {
		t.Errorf("got %q, want cwd %q", got, cwd)
	}
}

func TestWorkspaceContext(t *testing.T) {
	t.Parallel()
	ctx := WithWorkspace(context.Background(), "/ws")
	if got := MustWorkspaceFrom(ctx); got != "/ws" {
		t.Errorf("got %q", got)
	}
	if _, ok := WorkspaceFrom(context.Background()); ok {
		t.Error("bare context should have no workspace")
	}
}

func TestMustWorkspaceFrom_panicsWhenUnset(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("want panic")
		}
	}()
	MustWorkspaceFrom(context.Background())
}

func TestLoadSettings_missingFileGivesDefaults(t *testing.T) {
	t.Parallel()
	s, err := LoadSettings(t.TempDir())
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("got %+v, want defaults", s)
	}
}

func TestLoadSettings_fileOverridesSubset(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	if err := os.MkdirAll(Dir(ws), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "runtime: stub\nmax_sessions: 5\ntree_depth: 1\n"
	if err := os.WriteFile(filepath.Join(Dir(ws), SettingsFile), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(ws)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Runtime != "stub" || s.MaxSessions != 5 || s.TreeDepth != 1 {
		t.Errorf("overrides not applied: %+v", s)
	}
	// Untouched fields keep their defaults.
	if s.Command != "claude" || s.MaxTurns != 60 {
		t.Errorf("defaults lost: %+v", s)
	}
}

func TestLoadSettings_malformedYAML(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	if err := os.MkdirAll(Dir(ws), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(Dir(ws), SettingsFile), []byte("runtime: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(ws); err == nil {
		t.Fatal("want parse error")
	}
}

func TestDir(t *testing.T) {
	t.Parallel()
	if got := Dir("/ws"); got != filepath.Join("/ws", ".devloop") {
		t.Errorf("got %q", got)
	}
}
