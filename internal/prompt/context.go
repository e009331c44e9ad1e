package prompt

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankittk/devloop/internal/feature"
	"github.com/ankittk/devloop/internal/gitinfo"
	"github.com/ankittk/devloop/internal/journal"
)

// Directories never worth showing the collaborator.
var skipDirs = map[string]bool{
	".git":         true,
	".devloop":     true,
	".idea":        true,
	".venv":        true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
}

// Assembler renders the session context for a workspace. It is read-only:
// the only side effects are the reads themselves, and any signal that cannot
// be gathered degrades to a placeholder instead of aborting assembly.
type Assembler struct {
	Workspace      string
	JournalEntries int // recent progress entries to include (default 10)
	GitLogEntries  int // recent commits to include (default 20)
	TreeDepth      int // directory listing depth bound (default 3)
}

// BuildSession renders the full prompt for a completion session on task.
func (a Assembler) BuildSession(ctx context.Context, list *feature.List, task feature.Task) string {
	var b strings.Builder

	b.WriteString("# Project\n\n")
	fmt.Fprintf(&b, "Name: %s\n", list.ProjectName)
	if list.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", list.Description)
	}
	if len(list.TechStack) > 0 {
		fmt.Fprintf(&b, "Tech stack: %s\n", strings.Join(list.TechStack, ", "))
	}

	b.WriteString("\n# Your feature\n\n")
	b.WriteString(renderTask(task))

	b.WriteString("\n# Recent progress\n\n")
	b.WriteString(a.journalSection())

	b.WriteString("\n\n# Recent commits\n\n")
	b.WriteString(a.gitSection(ctx))

	b.WriteString("\n\n# Workspace layout\n\n")
	b.WriteString(a.treeSection())

	b.WriteString("\n\n# Instructions\n\n")
	fmt.Fprintf(&b,
		"Implement feature %s so that every acceptance criterion holds, then commit. "+
			"When and only when all criteria are met, edit %s and set this feature's "+
			"\"done\" field to true. Do not touch any other feature's entry. "+
			"Finally append a short note about what you did and what remains to %s.\n",
		task.ID, feature.StoreFile, journal.FileName)

	return b.String()
}

// BuildBootstrap renders the prompt for the one-time session that generates
// the initial backlog for a new project.
func BuildBootstrap(projectName, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %q: %s\n\n", projectName, description)
	b.WriteString(taskRecordShape)
	b.WriteString(
		"Break the project down into small, independently implementable features " +
			"and respond with a single JSON array of feature records in build order. " +
			"Every feature must be implementable in one focused session. " +
			"Use sequential ids with the F prefix (F001, F002, ...) and set done to false. " +
			"Respond with the JSON array only.\n")
	return b.String()
}

// BuildAtomize renders the prompt for a session that turns one free-form
// request into task records for an existing project.
func BuildAtomize(list *feature.List, request string, p Persona, target string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %q: %s\n\n", list.ProjectName, list.Description)
	if len(list.Features) > 0 {
		b.WriteString("Existing feature ids: ")
		ids := make([]string, 0, len(list.Features))
		for _, t := range list.Features {
			ids = append(ids, t.ID)
		}
		b.WriteString(strings.Join(ids, ", "))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Request: %s\n\n", request)
	b.WriteString(taskRecordShape)
	fmt.Fprintf(&b,
		"Turn the request into one or more feature records of category %q. "+
			"Use ids with the %s prefix that do not collide with the existing ids. ",
		p.Category, p.IDPrefix)
	if target != "" {
		fmt.Fprintf(&b, "Set every record's target to %q. ", target)
	}
	b.WriteString("Set done to false on every record. Respond with a JSON array only.\n")
	return b.String()
}

const taskRecordShape = "A feature record is a JSON object with fields: " +
	"id (string), title (string), description (string, enough technical detail to " +
	"implement without clarification), acceptanceCriteria (non-empty array of testable " +
	"statements), done (boolean).\n\n"

func renderTask(t feature.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\nTitle: %s\nCategory: %s\n", t.ID, t.Title, t.Category.OrDefault())
	if t.Target != "" {
		fmt.Fprintf(&b, "Target: %s\n", t.Target)
	}
	fmt.Fprintf(&b, "\n%s\n\nAcceptance criteria:\n", t.Description)
	for i, c := range t.AcceptanceCriteria {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return b.String()
}

func (a Assembler) journalSection() string {
	n := a.JournalEntries
	if n <= 0 {
		n = 10
	}
	tail, err := journal.Tail(a.Workspace, n)
	if err != nil || tail == "" {
		return "(no progress recorded yet)"
	}
	return tail
}

func (a Assembler) gitSection(ctx context.Context) string {
	n := a.GitLogEntries
	if n <= 0 {
		n = 20
	}
	log, err := gitinfo.RecentLog(ctx, a.Workspace, n)
	if err != nil || log == "" {
		return "(no commit history yet)"
	}
	return log
}

func (a Assembler) treeSection() string {
	depth := a.TreeDepth
	if depth <= 0 {
		depth = 3
	}
	tree := renderTree(a.Workspace, depth)
	if tree == "" {
		return "(empty workspace)"
	}
	return tree
}

// renderTree lists the workspace to a bounded depth, one entry per line,
// indented by nesting and skipping build/dependency/VCS directories.
func renderTree(root string, maxDepth int) string {
	var b strings.Builder
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(os.PathSeparator)) + 1
		if d.IsDir() {
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if depth >= maxDepth {
				fmt.Fprintf(&b, "%s%s/...\n", strings.Repeat("  ", depth-1), d.Name())
				return filepath.SkipDir
			}
			fmt.Fprintf(&b, "%s%s/\n", strings.Repeat("  ", depth-1), d.Name())
			return nil
		}
		if depth <= maxDepth && !strings.HasPrefix(d.Name(), ".") {
			fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth-1), d.Name())
		}
		return nil
	})
	return strings.TrimRight(b.String(), "\n")
}
