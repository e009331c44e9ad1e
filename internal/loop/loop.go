// Package loop drives the session executor over the feature queue until the
// queue drains, the session cap is hit, or the workspace becomes unusable.
// One session is in flight at a time; an individual session's failure never
// halts the loop. There is no backoff, no retry strategy, and no
// abandonment: a persistently failing task simply consumes sessions until
// the cap.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/journal"
	"github.com/ankittk/devloop/internal/ledger"
	"github.com/ankittk/devloop/internal/otel"
	"github.com/ankittk/devloop/internal/session"
)

// State is the controller's position in its state machine.
type State string

const (
	StateSelecting State = "SELECTING"
	StateExecuting State = "EXECUTING"
	StateDone      State = "DONE"      // queue drained
	StateExhausted State = "EXHAUSTED" // session cap reached with work remaining
	StateAborted   State = "ABORTED"   // workspace unusable or context canceled
)

// Summary reports how a run ended.
type Summary struct {
	Final     State
	Sessions  int
	Completed int
	Failed    int // sessions that ended without a done flip
	Err       error
	Outcomes  []session.Outcome
}

// Controller owns one bounded run of the queue.
type Controller struct {
	Executor    *session.Executor
	Store       *feature.Store
	MaxSessions int
	Delay       time.Duration // inter-session pause bounding external call rate
	Filter      feature.Category
	Ledger      *ledger.Ledger                 // optional session history
	OnSession   func(n int, o session.Outcome) // optional per-session callback
}

// Run executes the loop. Transitions: SELECTING -> DONE when no eligible
// task remains; SELECTING -> EXECUTING -> SELECTING on every completed
// session regardless of its outcome; EXHAUSTED when the counter reaches
// MaxSessions first; ABORTED on workspace-level failure or cancellation.
func (c *Controller) Run(ctx context.Context) Summary {
	s := Summary{Final: StateSelecting}
	for {
		if err := ctx.Err(); err != nil {
			s.Final = StateAborted
			s.Err = err
			return s
		}

		list, err := c.Store.Load()
		if err != nil {
			s.Final = StateAborted
			s.Err = err
			return s
		}
		if list.NextTask(c.Filter) == nil {
			s.Final = StateDone
			return s
		}
		if c.MaxSessions > 0 && s.Sessions >= c.MaxSessions {
			s.Final = StateExhausted
			return s
		}

		s.Final = StateExecuting
		started := time.Now().UTC()
		outcome, err := c.Executor.Run(ctx, c.Filter)
		if errors.Is(err, session.ErrQueueEmpty) {
			// The store was mutated externally between the peek and the
			// session; empty queue is still a clean finish.
			s.Final = StateDone
			return s
		}
		if err != nil {
			s.Final = StateAborted
			s.Err = err
			return s
		}

		s.Sessions++
		s.Outcomes = append(s.Outcomes, outcome)
		if outcome.Success {
			s.Completed++
			otel.RecordTaskCompleted(ctx, string(outcome.Category))
		} else {
			s.Failed++
		}
		c.record(ctx, started, outcome)
		otel.RecordSession(ctx, string(outcome.Category), outcome.Journal.Outcome, time.Since(started))
		if c.OnSession != nil {
			c.OnSession(s.Sessions, outcome)
		}

		s.Final = StateSelecting
		if c.Delay > 0 {
			if !pause(ctx, c.Delay) {
				s.Final = StateAborted
				s.Err = ctx.Err()
				return s
			}
		}
	}
}

func (c *Controller) record(ctx context.Context, started time.Time, o session.Outcome) {
	if c.Ledger == nil {
		return
	}
	errText := ""
	outcome := journal.OutcomeIncomplete
	if o.Success {
		outcome = journal.OutcomeCompleted
	}
	if o.Err != nil {
		outcome = journal.OutcomeError
		errText = o.Err.Error()
	}
	rec := ledger.Record{
		SessionID:  uuid.NewString(),
		TaskID:     o.TaskID,
		Title:      o.Title,
		Category:   string(o.Category),
		Outcome:    outcome,
		Success:    o.Success,
		CommitSHA:  o.CommitSHA,
		Error:      errText,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if err := c.Ledger.Insert(ctx, rec); err != nil {
		slog.Warn("ledger insert failed", "task", o.TaskID, "err", err)
	}
}

// pause sleeps for d, returning false if the context ended first.
func pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
