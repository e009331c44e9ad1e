// Package session executes one bounded collaborator session against the next
// eligible feature and reconciles the feature list afterward. The trust
// boundary lives here: the collaborator's self-reported success is advisory,
// and the only authoritative signal is the done flag re-read from disk after
// the session ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	agentrt "github.com/ankittk/devloop/internal/agent/runtime"
	"github.com/ankittk/devloop/internal/extract"
	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/gitinfo"
	"github.com/ankittk/devloop/internal/journal"
	"github.com/ankittk/devloop/internal/prompt"
)

// ErrQueueEmpty is returned by Run when no eligible task remains for the
// requested filter.
var ErrQueueEmpty = errors.New("no eligible feature in queue")

// Outcome is the result of one completion session.
type Outcome struct {
	TaskID    string
	Title     string
	Category  feature.Category
	Success   bool   // the target task's done flag is now true on disk
	CommitSHA string // best-effort; empty when no commit was observed
	Err       error  // collaborator transport failure, if any
	Journal   journal.Entry
	Output    string // collaborator's terminal output, for display
}

// Executor runs collaborator sessions for one workspace.
type Executor struct {
	Store     *feature.Store
	Workspace string
	Runtime   agentrt.Runtime
	Assembler prompt.Assembler
	MaxTurns  int
	Timeout   time.Duration        // optional wall-clock bound; 0 = turn budget only
	Emit      func(agentrt.Event)  // optional stream observer
}

func (e *Executor) emit(ev agentrt.Event) {
	if e.Emit != nil {
		e.Emit(ev)
	}
}

func (e *Executor) sessionCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout > 0 {
		return context.WithTimeout(ctx, e.Timeout)
	}
	return context.WithCancel(ctx)
}

// Run executes one completion session: select the next eligible task,
// assemble context, invoke the collaborator, then re-read the feature list
// from disk and judge success solely from the task's done flag.
//
// A non-nil error means the workspace itself is unusable (missing or
// unreadable feature list); callers abort on it. Collaborator failures are
// reported through Outcome.Err so the loop can proceed.
func (e *Executor) Run(ctx context.Context, filter feature.Category) (Outcome, error) {
	task, list, err := e.Store.NextTask(filter)
	if err != nil {
		return Outcome{}, err
	}
	if task == nil {
		return Outcome{}, ErrQueueEmpty
	}

	out := Outcome{TaskID: task.ID, Title: task.Title, Category: task.Category.OrDefault()}
	persona := prompt.For(task.Category)
	body := e.Assembler.BuildSession(ctx, list, *task)

	runCtx, cancel := e.sessionCtx(ctx)
	defer cancel()
	res, runErr := e.Runtime.RunSession(runCtx, agentrt.SessionRequest{
		Prompt:       body,
		SystemPrompt: persona.System,
		WorkingDir:   e.Workspace,
		MaxTurns:     e.MaxTurns,
	}, e.emit)

	if runErr != nil {
		// Transport failure: the feature list was never reconciled, so it is
		// left exactly as the collaborator left it (typically untouched).
		out.Err = runErr
		out.Journal = journal.Entry{
			TaskID:    task.ID,
			Outcome:   journal.OutcomeError,
			Narrative: runErr.Error(),
		}
		e.appendJournal(out.Journal)
		return out, nil
	}
	out.Output = res.Output

	// Ground truth: re-read from durable storage. The in-memory list and the
	// collaborator's own claim are both ignored here; the agent process is
	// external and may have crashed or lied.
	after, err := e.Store.Load()
	if err != nil {
		return out, err
	}
	done := after.TaskByID(task.ID) != nil && after.TaskByID(task.ID).Done
	out.Success = done

	if sha, err := gitinfo.Head(ctx, e.Workspace); err == nil {
		out.CommitSHA = sha
	}

	narrative := firstLine(res.Output)
	if done {
		out.Journal = journal.Entry{TaskID: task.ID, Outcome: journal.OutcomeCompleted, Narrative: narrative}
	} else {
		if res.Success {
			narrative = "collaborator reported success but the done flag was not set" + suffix(narrative)
		}
		out.Journal = journal.Entry{TaskID: task.ID, Outcome: journal.OutcomeIncomplete, Narrative: narrative}
	}
	e.appendJournal(out.Journal)
	return out, nil
}

// Bootstrap runs one collaborator session that produces the initial backlog
// for a new project and extracts it from the output.
func (e *Executor) Bootstrap(ctx context.Context, projectName, description string) ([]feature.Task, error) {
	persona := prompt.For(feature.CategoryStandard)
	runCtx, cancel := e.sessionCtx(ctx)
	defer cancel()
	res, err := e.Runtime.RunSession(runCtx, agentrt.SessionRequest{
		Prompt:       prompt.BuildBootstrap(projectName, description),
		SystemPrompt: persona.System,
		WorkingDir:   e.Workspace,
		MaxTurns:     e.MaxTurns,
	}, e.emit)
	if err != nil {
		return nil, fmt.Errorf("collaborator: %w", err)
	}
	tasks, err := extract.Many(res.Output)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Atomize runs one collaborator session that turns a free-form request into
// one or more task records of the given category.
func (e *Executor) Atomize(ctx context.Context, request string, cat feature.Category, target string) ([]feature.Task, error) {
	list, err := e.Store.Load()
	if err != nil {
		return nil, err
	}
	persona := prompt.For(cat)
	runCtx, cancel := e.sessionCtx(ctx)
	defer cancel()
	res, runErr := e.Runtime.RunSession(runCtx, agentrt.SessionRequest{
		Prompt:       prompt.BuildAtomize(list, request, persona, target),
		SystemPrompt: persona.System,
		WorkingDir:   e.Workspace,
		MaxTurns:     e.MaxTurns,
	}, e.emit)
	if runErr != nil {
		return nil, fmt.Errorf("collaborator: %w", runErr)
	}

	tasks, err := extract.Many(res.Output)
	if err != nil {
		// The model may emit a single object for single-feature requests.
		one, oneErr := extract.One(res.Output)
		if oneErr != nil {
			return nil, err
		}
		tasks = []feature.Task{one}
	}
	for i := range tasks {
		if tasks[i].Category == "" {
			tasks[i].Category = persona.Category
		}
		if tasks[i].Target == "" {
			tasks[i].Target = target
		}
	}
	return tasks, nil
}

func (e *Executor) appendJournal(entry journal.Entry) {
	if err := journal.Append(e.Workspace, entry); err != nil {
		slog.Warn("progress log append failed", "err", err)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func suffix(narrative string) string {
	if narrative == "" {
		return ""
	}
	return "; " + narrative
}
