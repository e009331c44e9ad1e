// Package runtime defines the collaborator interface: one bounded session of
// an external code-generating agent, with a stream of observability events
// and a terminal result. The core never inspects what the agent did beyond
// this surface; ground truth lives in the workspace files afterward.
package runtime

import (
	"context"
	"time"
)

// Event is one increment of the collaborator's output stream. Events arrive
// in emission order with no other framing guarantees and are consumed purely
// for observability.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// SessionRequest is the single call surface the core presents to a
// collaborator implementation.
type SessionRequest struct {
	Prompt       string
	SystemPrompt string
	WorkingDir   string
	MaxTurns     int // turn budget; 0 = implementation default
}

// SessionResult is the collaborator's terminal self-report. Success here is
// advisory only: the session executor decides success from the re-read
// feature list, never from this flag.
type SessionResult struct {
	Success   bool
	Output    string
	ErrorText string
}

// Runtime runs one collaborator session. A non-nil error means transport
// failure: the collaborator was unreachable, crashed, or errored before
// producing a terminal result.
type Runtime interface {
	Name() string
	RunSession(ctx context.Context, req SessionRequest, emit func(Event)) (SessionResult, error)
}

// Text pulls a printable snippet out of an event for plain console output.
// Returns "" for events with nothing human-readable.
func Text(ev Event) string {
	for _, key := range []string{"text", "result", "summary"} {
		if s, ok := ev.Data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
