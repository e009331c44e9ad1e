// Package extract recovers validated task records from unstructured model
// output. The collaborator is told to emit pure JSON but routinely wraps it
// in prose or code fences, so extraction runs an ordered cascade of
// strategies; the first candidate that both parses and passes task
// validation wins. A parseable object that fails validation is never
// accepted.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/otel"
)

// ParseError reports that every strategy was exhausted without producing a
// valid record. Raw preserves the offending text verbatim: it is the only
// diagnostic available for tuning future sessions, so it is never dropped.
type ParseError struct {
	Kind string // "task" or "task list"
	Raw  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no valid %s found in %d bytes of model output", e.Kind, len(e.Raw))
}

// rawTask mirrors feature.Task with pointer fields so validation can tell
// "absent" from "zero". Decoding "done" into *bool also rejects non-boolean
// values outright.
type rawTask struct {
	ID                 *string          `json:"id"`
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	AcceptanceCriteria []string         `json:"acceptanceCriteria"`
	Done               *bool            `json:"done"`
	Category           feature.Category `json:"category"`
	Target             string           `json:"target"`
}

func (r *rawTask) validate() error {
	if r.ID == nil || *r.ID == "" {
		return fmt.Errorf("missing id")
	}
	if r.Title == nil || *r.Title == "" {
		return fmt.Errorf("missing title")
	}
	if r.Description == nil || *r.Description == "" {
		return fmt.Errorf("missing description")
	}
	if len(r.AcceptanceCriteria) == 0 {
		return fmt.Errorf("missing acceptanceCriteria")
	}
	for _, c := range r.AcceptanceCriteria {
		if c == "" {
			return fmt.Errorf("empty acceptance criterion")
		}
	}
	if r.Done == nil {
		return fmt.Errorf("missing done")
	}
	return nil
}

func (r *rawTask) task() feature.Task {
	return feature.Task{
		ID:                 *r.ID,
		Title:              *r.Title,
		Description:        *r.Description,
		AcceptanceCriteria: r.AcceptanceCriteria,
		Done:               *r.Done,
		Category:           r.Category,
		Target:             r.Target,
	}
}

func parseTask(candidate string) (feature.Task, bool) {
	var r rawTask
	if err := json.Unmarshal([]byte(candidate), &r); err != nil {
		return feature.Task{}, false
	}
	if err := r.validate(); err != nil {
		return feature.Task{}, false
	}
	return r.task(), true
}

func parseTasks(candidate string) ([]feature.Task, bool) {
	var rs []rawTask
	if err := json.Unmarshal([]byte(candidate), &rs); err != nil {
		return nil, false
	}
	if len(rs) == 0 {
		return nil, false
	}
	tasks := make([]feature.Task, 0, len(rs))
	for i := range rs {
		if err := rs[i].validate(); err != nil {
			return nil, false
		}
		tasks = append(tasks, rs[i].task())
	}
	return tasks, true
}

// A strategy extracts candidate JSON fragments from text, in the order they
// should be attempted. Each strategy is a pure function; the cascade below
// composes them first-success-wins.
type strategy struct {
	name string
	find func(text string) []string
}

// One recovers a single task record from text.
func One(text string) (feature.Task, error) {
	for _, st := range objectStrategies {
		for _, candidate := range st.find(text) {
			if t, ok := parseTask(candidate); ok {
				otel.RecordExtraction("task", st.name, true)
				return t, nil
			}
		}
		otel.RecordExtraction("task", st.name, false)
	}
	return feature.Task{}, &ParseError{Kind: "task", Raw: text}
}

// Many recovers an array of task records from text.
func Many(text string) ([]feature.Task, error) {
	for _, st := range arrayStrategies {
		for _, candidate := range st.find(text) {
			if ts, ok := parseTasks(candidate); ok {
				otel.RecordExtraction("task list", st.name, true)
				return ts, nil
			}
		}
		otel.RecordExtraction("task list", st.name, false)
	}
	return nil, &ParseError{Kind: "task list", Raw: text}
}
