package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

// SQLiteEventStore stores replay events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interface.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS replay_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			seq INTEGER NOT NULL DEFAULT 0,
			type TEXT NOT NULL,
			workflow TEXT NOT NULL DEFAULT '',
			step INTEGER NOT NULL DEFAULT 0,
			attempt INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_replay_events_session_id ON replay_events(session_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.ReplayEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replay_events (session_id, at, seq, type, workflow, step, attempt, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID,
		at.UnixNano(),
		ev.Seq,
		string(ev.Type),
		ev.Workflow,
		ev.StepID,
		ev.Attempt,
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, sessionID string) ([]api.ReplayEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, at, seq, type, workflow, step, attempt, detail
		FROM replay_events
		WHERE session_id = ?
		ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.ReplayEvent
	for rows.Next() {
		var (
			id      string
			atN     int64
			seq     int
			typ     string
			wname   string
			step    int
			attempt int
			detail  string
		)
		if err := rows.Scan(&id, &atN, &seq, &typ, &wname, &step, &attempt, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.ReplayEvent{
			SessionID: id,
			At:        time.Unix(0, atN),
			Seq:       seq,
			Type:      api.EventType(typ),
			Workflow:  wname,
			StepID:    step,
			Attempt:   attempt,
			Detail:    detail,
		})
	}
	return out, rows.Err()
}
