package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Event kinds recorded by the chat core.
const (
	KindConnect    = "connect"
	KindDisconnect = "disconnect"
	KindReject     = "reject"
	KindMessage    = "message"
	KindPrivate    = "private"
	KindUpload     = "upload"
	KindDownload   = "download"
	KindBan        = "ban"
	KindWarn       = "warn"
	KindMute       = "mute"
	KindUnmute     = "unmute"
)

// Entry is one appended audit record.
type Entry struct {
	ID        string
	Kind      string
	Actor     string
	Detail    string
	CreatedAt time.Time
}

// Recorder is the process-wide append-only log sink the chat core writes to.
type Recorder interface {
	Record(ctx context.Context, kind, actor, detail string) error
	Close() error
}

// Nop discards all records. Used when auditing is disabled and in tests.
type Nop struct{}

func (Nop) Record(context.Context, string, string, string) error { return nil }
func (Nop) Close() error                                         { return nil }

// SQLite is a Recorder backed by a single-file sqlite database.
type SQLite struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	actor      TEXT NOT NULL,
	detail     TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
`

// NewSQLite opens (creating if needed) the audit database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Record appends one entry. Append-only: nothing in the server ever
// updates or deletes rows.
func (s *SQLite) Record(ctx context.Context, kind, actor, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, kind, actor, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), kind, actor, detail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, actor, detail, created_at FROM audit_log ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Actor, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
