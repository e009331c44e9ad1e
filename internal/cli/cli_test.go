package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ankittk/devloop/internal/config"
	"github.com/ankittk/devloop/internal/feature"
)

func execute(t *testing.T, workspace string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--workspace", workspace}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedBacklog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	list := &feature.List{
		ProjectName: "demo",
		Description: "a demo project",
		Features: []feature.Task{
			{ID: "F001", Title: "login", Description: "d", AcceptanceCriteria: []string{"a"}, Done: true},
			{ID: "F002", Title: "logout", Description: "d", AcceptanceCriteria: []string{"a"}},
			{ID: "BF001", Title: "fix crash", Description: "d", AcceptanceCriteria: []string{"a"}, Category: feature.CategoryBugfix},
		},
	}
	if err := feature.NewStore(dir).Save(list); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return dir
}

func TestRootCmd_subcommands(t *testing.T) {
	t.Parallel()
	cmd := NewRootCmd("test")
	want := []string{"init", "run", "add", "status", "next", "reset", "history", "doctor"}
	have := map[string]bool{}
	for _, c := range cmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestStatus_listsBacklog(t *testing.T) {
	t.Parallel()
	dir := seedBacklog(t)
	out, err := execute(t, dir, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "demo — 1/3 features done") {
		t.Errorf("header: %q", out)
	}
	if !strings.Contains(out, "[x] F001") || !strings.Contains(out, "[ ] F002") {
		t.Errorf("checkboxes: %q", out)
	}
	if !strings.Contains(out, "bugfix") {
		t.Errorf("category column: %q", out)
	}
}

func TestStatus_missingBacklog(t *testing.T) {
	t.Parallel()
	if _, err := execute(t, t.TempDir(), "status"); err == nil {
		t.Fatal("want error without feature_list.json")
	}
}

func TestNext_picksFirstPending(t *testing.T) {
	t.Parallel()
	dir := seedBacklog(t)
	out, err := execute(t, dir, "next")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !strings.Contains(out, "F002: logout") {
		t.Errorf("got %q", out)
	}
}

func TestNext_categoryFilter(t *testing.T) {
	t.Parallel()
	dir := seedBacklog(t)
	out, err := execute(t, dir, "next", "--category", "bugfix")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !strings.Contains(out, "BF001: fix crash") {
		t.Errorf("got %q", out)
	}
}

func TestNext_invalidCategory(t *testing.T) {
	t.Parallel()
	dir := seedBacklog(t)
	_, err := execute(t, dir, "next", "--category", "chore")
	if err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Fatalf("got %v", err)
	}
}

func TestNext_queueEmpty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	list := &feature.List{ProjectName: "demo", Features: []feature.Task{
		{ID: "F001", Title: "t", Description: "d", AcceptanceCriteria: []string{"a"}, Done: true},
	}}
	if err := feature.NewStore(dir).Save(list); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, dir, "next")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !strings.Contains(out, "queue empty") {
		t.Errorf("got %q", out)
	}
}

func TestReset_clearsDoneFlags(t *testing.T) {
	t.Parallel()
	dir := seedBacklog(t)
	out, err := execute(t, dir, "reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "Reset 1 feature(s)") {
		t.Errorf("got %q", out)
	}
	list, err := feature.NewStore(dir).Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, task := range list.Features {
		if task.Done {
			t.Errorf("%s still done after reset", task.ID)
		}
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()
	if c, err := parseCategory(""); err != nil || c != "" {
		t.Errorf("empty: %v %q", err, c)
	}
	if c, err := parseCategory("refactor"); err != nil || c != feature.CategoryRefactor {
		t.Errorf("refactor: %v %q", err, c)
	}
	if _, err := parseCategory("chore"); err == nil {
		t.Error("chore must be rejected")
	}
}

func TestNewRuntime(t *testing.T) {
	t.Parallel()
	if rt := newRuntime(config.Settings{Runtime: "stub"}); rt.Name() != "stub" {
		t.Errorf("stub runtime: got %q", rt.Name())
	}
	if rt := newRuntime(config.Settings{Runtime: "cli", Command: "claude"}); rt.Name() != "cli" {
		t.Errorf("cli runtime: got %q", rt.Name())
	}
}
