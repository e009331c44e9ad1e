package loop

import (
	"context"
	"testing"

	agentrt "github.com/ankittk/devloop/internal/agent/runtime"
	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/prompt"
	"github.com/ankittk/devloop/internal/session"
)

// flipRuntime marks the first not-done task done on each session, like a
// collaborator that always finishes its feature.
type flipRuntime struct {
	store  *feature.Store
	t      *testing.T
	filter feature.Category
	calls  int
}

func (f *flipRuntime) Name() string { return "flip" }

func (f *flipRuntime) RunSession(ctx context.Context, req agentrt.SessionRequest, emit func(agentrt.Event)) (agentrt.SessionResult, error) {
	f.calls++
	l, err := f.store.Load()
	if err != nil {
		f.t.Fatalf("load: %v", err)
	}
	task := l.NextTask(f.filter)
	if task == nil {
		f.t.Fatal("no task to flip")
	}
	task.Done = true
	if err := f.store.Save(l); err != nil {
		f.t.Fatalf("save: %v", err)
	}
	return agentrt.SessionResult{Success: true, Output: "done " + task.ID}, nil
}

// idleRuntime claims success but never edits anything.
type idleRuntime struct{ calls int }

func (i *idleRuntime) Name() string { return "idle" }

func (i *idleRuntime) RunSession(ctx context.Context, req agentrt.SessionRequest, emit func(agentrt.Event)) (agentrt.SessionResult, error) {
	i.calls++
	return agentrt.SessionResult{Success: true, Output: "all good"}, nil
}

func newWorkspace(t *testing.T, n int) (*feature.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := feature.NewStore(dir)
	var tasks []feature.Task
	for i := 0; i < n; i++ {
		tasks = append(tasks, feature.Task{
			ID:                 "F00" + string(rune('1'+i)),
			Title:              "feature",
			Description:        "d",
			AcceptanceCriteria: []string{"a"},
		})
	}
	if err := store.Save(&feature.List{ProjectName: "demo", Description: "d", Features: tasks}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return store, dir
}

func newController(store *feature.Store, dir string, rt agentrt.Runtime, maxSessions int) *Controller {
	return &Controller{
		Executor: &session.Executor{
			Store:     store,
			Workspace: dir,
			Runtime:   rt,
			Assembler: prompt.Assembler{Workspace: dir},
			MaxTurns:  5,
		},
		Store:       store,
		MaxSessions: maxSessions,
	}
}

func TestRun_drainsQueueThenDone(t *testing.T) {
	t.Parallel()
	store, dir := newWorkspace(t, 2)
	rt := &flipRuntime{store: store, t: t}
	c := newController(store, dir, rt, 5)

	s := c.Run(context.Background())
	if s.Final != StateDone {
		t.Fatalf("final: got %s, want DONE", s.Final)
	}
	if s.Sessions != 2 || s.Completed != 2 || s.Failed != 0 {
		t.Errorf("summary: %+v", s)
	}
	if rt.calls != 2 {
		t.Errorf("collaborator invoked %d times, want exactly 2", rt.calls)
	}
}

func TestRun_capBeatsQueue(t *testing.T) {
	t.Parallel()
	store, dir := newWorkspace(t, 3)
	rt := &flipRuntime{store: store, t: t}
	c := newController(store, dir, rt, 1)

	s := c.Run(context.Background())
	if s.Final != StateExhausted {
		t.Fatalf("final: got %s, want EXHAUSTED", s.Final)
	}
	if s.Sessions != 1 || rt.calls != 1 {
		t.Errorf("want exactly 1 session, got sessions=%d calls=%d", s.Sessions, rt.calls)
	}
}

func TestRun_emptyQueueBeforeCapReportsDone(t *testing.T) {
	t.Parallel()
	// All tasks already done: DONE, never EXHAUSTED, even with cap 0.
	store, dir := newWorkspace(t, 1)
	l, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	l.Features[0].Done = true
	if err := store.Save(l); err != nil {
		t.Fatal(err)
	}
	rt := &idleRuntime{}
	c := newController(store, dir, rt, 0)

	s := c.Run(context.Background())
	if s.Final != StateDone {
		t.Fatalf("final: got %s, want DONE", s.Final)
	}
	if rt.calls != 0 {
		t.Errorf("collaborator invoked %d times on an empty queue", rt.calls)
	}
}

func TestRun_failedSessionsCountAndContinue(t *testing.T) {
	t.Parallel()
	store, dir := newWorkspace(t, 2)
	rt := &idleRuntime{}
	c := newController(store, dir, rt, 3)

	s := c.Run(context.Background())
	if s.Final != StateExhausted {
		t.Fatalf("final: got %s, want EXHAUSTED", s.Final)
	}
	if s.Failed != 3 || s.Completed != 0 {
		t.Errorf("summary: %+v", s)
	}
	if rt.calls != 3 {
		t.Errorf("loop must keep going through failed sessions, got %d calls", rt.calls)
	}
}

func TestRun_abortsOnMissingStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := feature.NewStore(dir)
	c := newController(store, dir, &idleRuntime{}, 3)

	s := c.Run(context.Background())
	if s.Final != StateAborted {
		t.Fatalf("final: got %s, want ABORTED", s.Final)
	}
	if s.Err == nil {
		t.Error("aborted summary must carry the error")
	}
}

func TestRun_canceledContext(t *testing.T) {
	t.Parallel()
	store, dir := newWorkspace(t, 2)
	c := newController(store, dir, &idleRuntime{}, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := c.Run(ctx)
	if s.Final != StateAborted {
		t.Fatalf("final: got %s, want ABORTED", s.Final)
	}
	if s.Err == nil {
		t.Error("cancellation must surface in Err")
	}
}

func TestRun_onSessionCallback(t *testing.T) {
	t.Parallel()
	store, dir := newWorkspace(t, 2)
	rt := &flipRuntime{store: store, t: t}
	c := newController(store, dir, rt, 5)
	var seen []int
	c.OnSession = func(n int, o session.Outcome) {
		seen = append(seen, n)
		if o.TaskID == "" {
			t.Error("callback outcome missing task id")
		}
	}

	c.Run(context.Background())
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("callback sequence: %v", seen)
	}
}

func TestRun_categoryFilterLimitsQueue(t *testing.T) {
	t.Parallel()
	store, dir := newWorkspace(t, 2)
	l, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	l.Features[1].Category = feature.CategoryBugfix
	if err := store.Save(l); err != nil {
		t.Fatal(err)
	}
	rt := &flipRuntime{store: store, t: t, filter: feature.CategoryBugfix}
	c := newController(store, dir, rt, 5)
	c.Filter = feature.CategoryBugfix

	s := c.Run(context.Background())
	if s.Final != StateDone {
		t.Fatalf("final: got %s, want DONE", s.Final)
	}
	if s.Sessions != 1 {
		t.Errorf("one bugfix task, got %d sessions", s.Sessions)
	}
}
