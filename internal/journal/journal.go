// Package journal manages the append-only progress log for a workspace. One
// entry is written per session. The log is advisory: future sessions read it
// back as opaque text for context, never as structured data.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileName is the progress log file inside a workspace.
const FileName = "progress.log"

// Session outcomes recorded in the journal.
const (
	OutcomeCompleted  = "completed"
	OutcomeIncomplete = "incomplete"
	OutcomeError      = "error"
)

// Entry is one session's journal record.
type Entry struct {
	TaskID    string
	Outcome   string // completed, incomplete, error
	Narrative string
	At        time.Time
}

// Path returns the progress log path for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, FileName)
}

// Append writes one entry to the end of the log. Entries are separated by a
// blank line and begin with a bracketed RFC 3339 timestamp and task ID.
func Append(workspace string, e Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", at.Format(time.RFC3339), e.TaskID, e.Outcome)
	if n := strings.TrimSpace(e.Narrative); n != "" {
		b.WriteString(": ")
		b.WriteString(n)
	}
	b.WriteString("\n\n")

	f, err := os.OpenFile(Path(workspace), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open progress log: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write progress log: %w", err)
	}
	return nil
}

// Tail returns the last n entries as text, oldest first. A missing log is
// not an error; it reads as empty.
func Tail(workspace string, n int) (string, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read progress log: %w", err)
	}
	entries := splitEntries(string(data))
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return strings.Join(entries, "\n\n"), nil
}

func splitEntries(text string) []string {
	var out []string
	for _, chunk := range strings.Split(text, "\n\n") {
		if c := strings.TrimSpace(chunk); c != "" {
			out = append(out, c)
		}
	}
	return out
}
