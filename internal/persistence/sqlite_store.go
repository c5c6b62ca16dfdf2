package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

// SQLiteSessionStore is a SessionStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteSessionStore struct {
	db *sql.DB
}

// Ensure SQLiteSessionStore implements SessionStore.
var _ SessionStore = (*SQLiteSessionStore)(nil)

// NewSQLiteSessionStore initializes the required schema in the given
// database and returns a new SQLiteSessionStore.
func NewSQLiteSessionStore(db *sql.DB) (*SQLiteSessionStore, error) {
	s := &SQLiteSessionStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSessionStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at INTEGER NOT NULL DEFAULT 0,
			finished_at INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			results TEXT NOT NULL DEFAULT '[]'
		);`,
	)
	return err
}

func (s *SQLiteSessionStore) SaveSession(sum *api.Summary) error {
	results, err := encodeResults(sum.Results)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, workflow, status, started_at, finished_at, error, results)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sum.ID,
		sum.Workflow,
		string(sum.Status),
		timeToNanos(sum.StartedAt),
		timeToNanos(sum.FinishedAt),
		sum.Error,
		results,
	)
	return err
}

func (s *SQLiteSessionStore) UpdateSession(sum *api.Summary) error {
	results, err := encodeResults(sum.Results)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE sessions
		SET workflow = ?, status = ?, started_at = ?, finished_at = ?, error = ?, results = ?
		WHERE id = ?`,
		sum.Workflow,
		string(sum.Status),
		timeToNanos(sum.StartedAt),
		timeToNanos(sum.FinishedAt),
		sum.Error,
		results,
		sum.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (s *SQLiteSessionStore) GetSession(id string) (*api.Summary, error) {
	row := s.db.QueryRow(`
		SELECT id, workflow, status, started_at, finished_at, error, results
		FROM sessions
		WHERE id = ?`,
		id,
	)

	sum, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sum, nil
}

func (s *SQLiteSessionStore) ListSessions(filter api.SessionFilter) ([]*api.Summary, error) {
	query := `
		SELECT id, workflow, status, started_at, finished_at, error, results
		FROM sessions`
	var args []any
	var clauses []string

	if filter.Workflow != "" {
		clauses = append(clauses, "workflow = ?")
		args = append(args, filter.Workflow)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY started_at ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*api.Summary

	for rows.Next() {
		sum, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func scanSession(scan func(...any) error) (*api.Summary, error) {
	var sum api.Summary
	var statusStr string
	var startedNs, finishedNs int64
	var results string

	if err := scan(&sum.ID, &sum.Workflow, &statusStr, &startedNs, &finishedNs, &sum.Error, &results); err != nil {
		return nil, err
	}

	sum.Status = api.SessionStatus(statusStr)
	sum.StartedAt = nanosToTime(startedNs)
	sum.FinishedAt = nanosToTime(finishedNs)

	if err := json.Unmarshal([]byte(results), &sum.Results); err != nil {
		return nil, fmt.Errorf("decode step results for session %s: %w", sum.ID, err)
	}

	return &sum, nil
}

// encodeResults stores step results as JSON text rather than an opaque
// blob, so the archive stays inspectable with the sqlite3 shell.
func encodeResults(results []api.StepResult) (string, error) {
	if results == nil {
		results = []api.StepResult{}
	}
	out, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func timeToNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nanosToTime(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
