// Package gitinfo shells out to git for the signals the session loop
// consumes: current commit, recent history, and one-time repository
// initialization. Read paths are best-effort; callers degrade to empty
// context rather than failing a session.
package gitinfo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Head returns the current commit SHA of the repository at dir.
func Head(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RecentLog returns the last n commits, one per line (short SHA and
// subject), newest first.
func RecentLog(ctx context.Context, dir string, n int) (string, error) {
	if n <= 0 {
		n = 20
	}
	cmd := exec.CommandContext(ctx, "git", "log", "--oneline", "-n", strconv.Itoa(n))
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git log: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// EnsureRepo initializes a git repository at dir if none exists and records
// the current workspace contents as an initial commit. Idempotent.
func EnsureRepo(ctx context.Context, dir string) error {
	if IsRepo(dir) {
		return nil
	}
	init := exec.CommandContext(ctx, "git", "init")
	init.Dir = dir
	if out, err := init.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %w: %s", err, string(out))
	}
	add := exec.CommandContext(ctx, "git", "add", "-A")
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return fmt.Errorf("git add: %w: %s", err, string(out))
	}
	// Identity flags keep the commit working on machines with no git config.
	commit := exec.CommandContext(ctx, "git",
		"-c", "user.name=devloop", "-c", "user.email=devloop@localhost",
		"commit", "--allow-empty", "-m", "initial workspace state")
	commit.Dir = dir
	if out, err := commit.CombinedOutput(); err != nil {
		return fmt.Errorf("git commit: %w: %s", err, string(out))
	}
	return nil
}
