package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "blackjack_local.db"

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	dbPath := strings.TrimSpace(os.Getenv("LEDGER_SQLITE_PATH"))
	if dbPath == "" {
		dbPath = filepath.Join("data", defaultLocalDBName)
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{
		db:          db,
		recentLimit: envIntOrDefault("LEDGER_RECENT_LIMIT", defaultRecentLimit),
	}, nil
}

func ensureSQLiteLedgerSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ledger_session_stream (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    TEXT NOT NULL,
    direction     TEXT NOT NULL,
    seq           INTEGER NOT NULL,
    event_type    TEXT NOT NULL,
    round_id      TEXT NOT NULL DEFAULT '',
    payload_json  TEXT NOT NULL,
    at_ms         INTEGER,
    created_at_ms INTEGER NOT NULL,
    UNIQUE (session_id, direction, seq)
)`); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS audit_session_history (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    TEXT NOT NULL UNIQUE,
    started_at_ms INTEGER NOT NULL,
    summary_json  TEXT NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_session_stream_lookup
ON ledger_session_stream (session_id, direction, seq)`)
	return err
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) AppendEvent(sessionID string, seq uint64, eventType, roundID string, payload []byte, atMs int64) {
	s.appendStream(sessionID, DirectionIn, seq, eventType, roundID, payload, atMs)
}

func (s *SQLiteService) AppendAdvice(sessionID string, seq uint64, adviceType, roundID string, payload []byte, atMs int64) {
	s.appendStream(sessionID, DirectionOut, seq, adviceType, roundID, payload, atMs)
}

func (s *SQLiteService) appendStream(sessionID string, dir Direction, seq uint64, eventType, roundID string, payload []byte, atMs int64) {
	if strings.TrimSpace(sessionID) == "" || len(payload) == 0 {
		return
	}
	nowMs := time.Now().UTC().UnixMilli()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ledger_session_stream (
    session_id, direction, seq, event_type, round_id, payload_json, at_ms, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, direction, seq) DO NOTHING
`, sessionID, string(dir), int64(seq), eventType, roundID, string(payload), nullableInt64(atMs), nowMs)
	if err != nil {
		log.Printf("[Ledger] append %s stream failed: session=%s seq=%d err=%v", dir, sessionID, seq, err)
	}
}

func (s *SQLiteService) UpsertSessionSummary(sessionID string, startedAt time.Time, summary map[string]any) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	if summary == nil {
		summary = map[string]any{}
	}
	summaryRaw, err := json.Marshal(summary)
	if err != nil {
		log.Printf("[Ledger] marshal session summary failed: session=%s err=%v", sessionID, err)
		return
	}
	nowMs := time.Now().UTC().UnixMilli()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO audit_session_history (session_id, started_at_ms, summary_json, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT (session_id) DO UPDATE
SET summary_json = excluded.summary_json,
    updated_at_ms = excluded.updated_at_ms
`, sessionID, startedAt.UnixMilli(), string(summaryRaw), nowMs)
	if err != nil {
		log.Printf("[Ledger] upsert session summary failed: session=%s err=%v", sessionID, err)
		return
	}

	if s.recentLimit > 0 {
		if _, err := s.db.ExecContext(ctx, `
DELETE FROM audit_session_history
WHERE id IN (
    SELECT id
    FROM audit_session_history
    ORDER BY started_at_ms DESC, id DESC
    LIMIT -1 OFFSET ?
)`, s.recentLimit); err != nil {
			log.Printf("[Ledger] trim session history failed: err=%v", err)
		}
	}
}

func (s *SQLiteService) ListRecentSessions(ctx context.Context, limit int) ([]SessionItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, started_at_ms, summary_json, updated_at_ms
FROM audit_session_history
ORDER BY started_at_ms DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]SessionItem, 0, limit)
	for rows.Next() {
		var item SessionItem
		var startedMs, updatedMs int64
		var summaryRaw []byte
		if err := rows.Scan(&item.SessionID, &startedMs, &summaryRaw, &updatedMs); err != nil {
			return nil, err
		}
		item.StartedAt = time.UnixMilli(startedMs).UTC()
		item.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		if len(summaryRaw) > 0 {
			_ = json.Unmarshal(summaryRaw, &item.Summary)
		}
		if item.Summary == nil {
			item.Summary = map[string]any{}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteService) GetSessionStream(ctx context.Context, sessionID string, direction Direction) ([]StreamItem, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT seq, direction, event_type, round_id, payload_json, at_ms
FROM ledger_session_stream
WHERE session_id = ?
  AND (? = '' OR direction = ?)
ORDER BY seq ASC, id ASC
`, sessionID, string(direction), string(direction))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StreamItem, 0, 128)
	for rows.Next() {
		var item StreamItem
		var dir string
		var atMs sql.NullInt64
		if err := rows.Scan(&item.Seq, &dir, &item.EventType, &item.RoundID, &item.Payload, &atMs); err != nil {
			return nil, err
		}
		item.Direction = Direction(dir)
		if atMs.Valid {
			v := atMs.Int64
			item.AtMs = &v
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items, nil
}
