package runtime

import (
	"context"
	"time"
)

// StubRuntime is a deterministic local collaborator that emits plausible
// events without calling any external agent. Useful for dry runs and CI;
// it never edits the workspace, so sessions against it report incomplete.
type StubRuntime struct{}

func (StubRuntime) Name() string { return "stub" }

func (StubRuntime) RunSession(ctx context.Context, req SessionRequest, emit func(Event)) (SessionResult, error) {
	now := time.Now().UTC()
	emit(Event{
		Type:      "session_started",
		Timestamp: now,
		Data:      map[string]any{"runtime": "stub"},
	})

	sleep(ctx, 100*time.Millisecond)
	emit(Event{
		Type:      "assistant",
		Timestamp: time.Now().UTC(),
		Data:      map[string]any{"text": "Stub runtime simulated a session; no changes made."},
	})

	sleep(ctx, 100*time.Millisecond)
	emit(Event{
		Type:      "result",
		Timestamp: time.Now().UTC(),
	})

	return SessionResult{Success: true, Output: "stub: ok"}, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
