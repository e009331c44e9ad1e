// Package feature defines the durable feature backlog: the task model, the
// JSON store on disk, and FIFO selection over unfinished work.
package feature

// Category selects which collaborator persona and acceptance rules apply to a
// feature. An absent category is treated as CategoryStandard.
type Category string

const (
	CategoryStandard    Category = "standard-feature"
	CategoryRefactor    Category = "refactor"
	CategoryBugfix      Category = "bugfix"
	CategoryImprovement Category = "improvement"
	CategoryDocs        Category = "docs"
)

// Categories lists every valid category, in display order.
func Categories() []Category {
	return []Category{CategoryStandard, CategoryRefactor, CategoryBugfix, CategoryImprovement, CategoryDocs}
}

// Valid reports whether c names a known category. The empty category is not
// valid on its own; callers normalize it with OrDefault first.
func (c Category) Valid() bool {
	switch c {
	case CategoryStandard, CategoryRefactor, CategoryBugfix, CategoryImprovement, CategoryDocs:
		return true
	}
	return false
}

// OrDefault maps the absent category to CategoryStandard.
func (c Category) OrDefault() Category {
	if c == "" {
		return CategoryStandard
	}
	return c
}

// Task is one unit of backlog work ("feature" in user-facing text).
type Task struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Done               bool     `json:"done"`
	Category           Category `json:"category,omitempty"`
	Target             string   `json:"target,omitempty"` // free-form subsystem label, never validated here
}

// List is the ordered backlog plus project metadata, as serialized to
// feature_list.json.
type List struct {
	ProjectName string   `json:"project_name"`
	Description string   `json:"description"`
	TechStack   []string `json:"tech_stack,omitempty"`
	Features    []Task   `json:"features"`
}

// NextTask returns the first task in list order with done:false whose
// category matches filter, or nil when the queue is empty for that filter.
// The empty filter matches any category; a task with no category counts as
// CategoryStandard. Ordering is the only prioritization mechanism.
func (l *List) NextTask(filter Category) *Task {
	for i := range l.Features {
		t := &l.Features[i]
		if t.Done {
			continue
		}
		if filter != "" && t.Category.OrDefault() != filter.OrDefault() {
			continue
		}
		return t
	}
	return nil
}

// TaskByID returns the task with the given ID, or nil.
func (l *List) TaskByID(id string) *Task {
	for i := range l.Features {
		if l.Features[i].ID == id {
			return &l.Features[i]
		}
	}
	return nil
}

// HasID reports whether any task in the list carries the given ID.
func (l *List) HasID(id string) bool {
	return l.TaskByID(id) != nil
}

// Counts returns (done, total) over tasks matching filter (empty = all).
func (l *List) Counts(filter Category) (done, total int) {
	for i := range l.Features {
		t := &l.Features[i]
		if filter != "" && t.Category.OrDefault() != filter.OrDefault() {
			continue
		}
		total++
		if t.Done {
			done++
		}
	}
	return done, total
}
