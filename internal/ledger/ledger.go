// Package ledger records one row per collaborator session in a SQLite
// database under the workspace .devloop directory. The ledger is advisory
// observability for the status and history commands; a ledger failure never
// fails a session, and nothing in the core reads it back for scheduling.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// FileName is the ledger database file under <workspace>/.devloop/.
const FileName = "devloop.db"

// Record is one session row.
type Record struct {
	SessionID  string
	TaskID     string
	Title      string
	Category   string
	Outcome    string // completed, incomplete, error
	Success    bool
	CommitSHA  string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Ledger is the SQLite-backed session history for one workspace.
type Ledger struct {
	DB *sql.DB
}

// Open opens (creating if needed) the ledger database for a workspace and
// runs migrations.
func Open(workspace string) (*Ledger, error) {
	dir := filepath.Join(workspace, ".devloop")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + filepath.Join(dir, FileName) + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	l := &Ledger{DB: db}
	if err := l.initPragmas(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := l.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.DB == nil {
		return nil
	}
	return l.DB.Close()
}

func (l *Ledger) initPragmas(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, q := range stmts {
		if _, err := l.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

func (l *Ledger) migrate(ctx context.Context) error {
	if _, err := l.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at INTEGER NOT NULL
);`); err != nil {
		return err
	}
	applied, err := l.appliedVersions(ctx)
	if err != nil {
		return err
	}
	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	var migs []migration
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		v, err := parseMigrationVersion(name)
		if err != nil {
			return err
		}
		body, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		migs = append(migs, migration{Version: v, Name: name, SQL: string(body)})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	for _, m := range migs {
		if applied[m.Version] {
			continue
		}
		if _, err := l.DB.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		if _, err := l.DB.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			m.Version, time.Now().Unix()); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := l.DB.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func parseMigrationVersion(name string) (int, error) {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return 0, fmt.Errorf("migration %q: want NNN_name.sql", name)
	}
	v, err := strconv.Atoi(name[:i])
	if err != nil {
		return 0, fmt.Errorf("migration %q: %w", name, err)
	}
	return v, nil
}

// Insert writes one session record.
func (l *Ledger) Insert(ctx context.Context, r Record) error {
	if r.SessionID == "" {
		return errors.New("session_id required")
	}
	_, err := l.DB.ExecContext(ctx, `
INSERT INTO sessions (session_id, task_id, title, category, outcome, success, commit_sha, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.TaskID, r.Title, r.Category, r.Outcome,
		boolToInt(r.Success), r.CommitSHA, r.Error,
		r.StartedAt.Unix(), r.FinishedAt.Unix())
	return err
}

// Recent returns the latest limit sessions, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.DB.QueryContext(ctx, `
SELECT session_id, task_id, title, category, outcome, success, commit_sha, error, started_at, finished_at
FROM sessions ORDER BY started_at DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Record
	for rows.Next() {
		var r Record
		var success int
		var started, finished int64
		if err := rows.Scan(&r.SessionID, &r.TaskID, &r.Title, &r.Category, &r.Outcome,
			&success, &r.CommitSHA, &r.Error, &started, &finished); err != nil {
			return nil, err
		}
		r.Success = success != 0
		r.StartedAt = time.Unix(started, 0).UTC()
		r.FinishedAt = time.Unix(finished, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
