package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StoreFile is the name of the serialized feature list inside a workspace.
const StoreFile = "feature_list.json"

// ErrNotFound is returned by Load when no feature list exists at the
// workspace path. Callers treat it as "this workspace is not initialized".
var ErrNotFound = errors.New("feature list not found")

// ErrDuplicateID is returned by Append when any incoming task ID already
// exists in the list. The whole batch is rejected; nothing is applied.
var ErrDuplicateID = errors.New("duplicate task id")

// Store reads and writes the feature list for one workspace. The file on
// disk is the single source of truth: the collaborator edits it directly
// during sessions, so Store never caches between calls.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at the workspace directory.
func NewStore(workspace string) *Store {
	return &Store{Dir: workspace}
}

// Path returns the absolute path of the feature list file.
func (s *Store) Path() string {
	return filepath.Join(s.Dir, StoreFile)
}

// Load reads the current feature list from disk. Returns ErrNotFound when
// the file does not exist.
func (s *Store) Load() (*List, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path())
		}
		return nil, fmt.Errorf("read feature list: %w", err)
	}
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse %s: %w", StoreFile, err)
	}
	return &l, nil
}

// Save persists the full list atomically: write to a temp file in the same
// directory, then rename over the target, so a concurrent reader never
// observes a partial write.
func (s *Store) Save(l *List) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feature list: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.Dir, ".feature_list-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write feature list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace feature list: %w", err)
	}
	return nil
}

// NextTask loads the list and returns (task, list) for the first eligible
// task, or (nil, list) when the queue is empty for the filter.
func (s *Store) NextTask(filter Category) (*Task, *List, error) {
	l, err := s.Load()
	if err != nil {
		return nil, nil, err
	}
	return l.NextTask(filter), l, nil
}

// Append adds a batch of tasks to the end of the list. If any incoming ID
// already exists in the list, or the batch repeats an ID internally, the
// whole batch is rejected with ErrDuplicateID and the file is untouched.
func (s *Store) Append(tasks []Task) error {
	if len(tasks) == 0 {
		return errors.New("empty task batch")
	}
	l, err := s.Load()
	if err != nil {
		return err
	}
	var dups []string
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if l.HasID(t.ID) || seen[t.ID] {
			dups = append(dups, t.ID)
		}
		seen[t.ID] = true
	}
	if len(dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, strings.Join(dups, ", "))
	}
	l.Features = append(l.Features, tasks...)
	return s.Save(l)
}

// ResetDone flips every done:true task back to done:false and reports how
// many were reset. This is the only bulk path allowed to clear done flags;
// sessions never do.
func (s *Store) ResetDone() (int, error) {
	l, err := s.Load()
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range l.Features {
		if l.Features[i].Done {
			l.Features[i].Done = false
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.Save(l)
}
