package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

type PostgresService struct {
	db          *sql.DB
	recentLimit int
}

func NewPostgresService(dsn string) (*PostgresService, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	var schemaReady bool
	if err := db.QueryRowContext(ctx, `
SELECT EXISTS (
    SELECT 1
    FROM information_schema.tables
    WHERE table_schema = 'public'
      AND table_name = 'ledger_session_stream'
)`).Scan(&schemaReady); err != nil {
		_ = db.Close()
		return nil, err
	}
	if !schemaReady {
		_ = db.Close()
		return nil, fmt.Errorf("ledger schema not initialized: missing table ledger_session_stream")
	}

	return &PostgresService{
		db:          db,
		recentLimit: envIntOrDefault("LEDGER_RECENT_LIMIT", defaultRecentLimit),
	}, nil
}

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresService) AppendEvent(sessionID string, seq uint64, eventType, roundID string, payload []byte, atMs int64) {
	s.appendStream(sessionID, DirectionIn, seq, eventType, roundID, payload, atMs)
}

func (s *PostgresService) AppendAdvice(sessionID string, seq uint64, adviceType, roundID string, payload []byte, atMs int64) {
	s.appendStream(sessionID, DirectionOut, seq, adviceType, roundID, payload, atMs)
}

func (s *PostgresService) appendStream(sessionID string, dir Direction, seq uint64, eventType, roundID string, payload []byte, atMs int64) {
	if strings.TrimSpace(sessionID) == "" || len(payload) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ledger_session_stream (
    session_id, direction, seq, event_type, round_id, payload_json, at_ms
)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
ON CONFLICT (session_id, direction, seq) DO NOTHING
`, sessionID, string(dir), int64(seq), eventType, roundID, string(payload), nullableInt64(atMs))
	if err != nil {
		log.Printf("[Ledger] append %s stream failed: session=%s seq=%d err=%v", dir, sessionID, seq, err)
	}
}

func (s *PostgresService) UpsertSessionSummary(sessionID string, startedAt time.Time, summary map[string]any) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO audit_session_history (session_id, started_at, summary_json)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (session_id) DO UPDATE
SET summary_json = EXCLUDED.summary_json,
    updated_at = NOW()
`, sessionID, startedAt, string(summaryRaw))
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
    ORDER BY started_at DESC, id DESC
    OFFSET $1
)`, s.recentLimit); err != nil {
			log.Printf("[Ledger] trim session history failed: err=%v", err)
		}
	}
}

func (s *PostgresService) ListRecentSessions(ctx context.Context, limit int) ([]SessionItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, started_at, summary_json, updated_at
FROM audit_session_history
ORDER BY started_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]SessionItem, 0, limit)
	for rows.Next() {
		var item SessionItem
		var summaryRaw []byte
		if err := rows.Scan(&item.SessionID, &item.StartedAt, &summaryRaw, &item.UpdatedAt); err != nil {
			return nil, err
		}
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

func (s *PostgresService) GetSessionStream(ctx context.Context, sessionID string, direction Direction) ([]StreamItem, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT seq, direction, event_type, round_id, payload_json, at_ms
FROM ledger_session_stream
WHERE session_id = $1
  AND ($2 = '' OR direction = $2)
ORDER BY seq ASC, id ASC
`, sessionID, string(direction))
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
