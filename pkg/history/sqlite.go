package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	correlation_id TEXT NOT NULL DEFAULT '',
	sender_id      TEXT NOT NULL,
	inbound_text   TEXT NOT NULL,
	outbound_text  TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	latency_ms     INTEGER NOT NULL DEFAULT 0,
	kind           TEXT NOT NULL DEFAULT 'text'
);
CREATE INDEX IF NOT EXISTS idx_exchanges_sender ON exchanges(sender_id, id);
`

// SQLiteStore persists exchanges in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single connection avoids "database is locked" errors under
	// concurrent webhook handlers; busy_timeout covers the rest.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append stores an exchange, assigning its ID and CreatedAt.
func (s *SQLiteStore) Append(ctx context.Context, ex *Exchange) error {
	if err := validate(ex); err != nil {
		return err
	}
	if ex.Kind == "" {
		ex.Kind = KindText
	}
	ex.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (correlation_id, sender_id, inbound_text, outbound_text, created_at, latency_ms, kind)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ex.CorrelationID, ex.SenderID, ex.InboundText, ex.OutboundText,
		ex.CreatedAt.Format(time.RFC3339Nano), ex.LatencyMS, ex.Kind,
	)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading insert id: %w", err)
	}
	ex.ID = id
	return nil
}

// FetchRecent returns at most limit exchanges for the sender, newest first.
func (s *SQLiteStore) FetchRecent(ctx context.Context, senderID string, limit int) ([]*Exchange, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, correlation_id, sender_id, inbound_text, outbound_text, created_at, latency_ms, kind
		 FROM exchanges WHERE sender_id = ? ORDER BY id DESC LIMIT ?`,
		senderID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var out []*Exchange
	for rows.Next() {
		var ex Exchange
		var createdAt string
		if err := rows.Scan(&ex.ID, &ex.CorrelationID, &ex.SenderID, &ex.InboundText,
			&ex.OutboundText, &createdAt, &ex.LatencyMS, &ex.Kind); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		// An unparsable stored timestamp surfaces as the zero time; the
		// composer treats that as "age unknown" rather than dropping the row.
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			ex.CreatedAt = ts
		}
		out = append(out, &ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchanges: %w", err)
	}
	return out, nil
}

// ClearAll removes every stored exchange and returns the removed count.
func (s *SQLiteStore) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`)
	if err != nil {
		return 0, fmt.Errorf("clearing exchanges: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared exchanges: %w", err)
	}
	return n, nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
