package ledger

import (
	"context"
	"testing"
	"time"
)

func newMemoryService(t *testing.T) *SQLiteService {
	t.Helper()
	s, err := NewSQLiteService(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteService: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_StreamRoundTrip(t *testing.T) {
	s := newMemoryService(t)

	s.AppendEvent("s1", 1, "ROUND_START", "r1", []byte(`{"type":"ROUND_START"}`), 1000)
	s.AppendAdvice("s1", 1, "BET_ADVICE_NEXT_ROUND", "r1", []byte(`{"amount":25}`), 1001)
	s.AppendEvent("s1", 2, "ROUND_END", "r1", []byte(`{"type":"ROUND_END"}`), 2000)
	// 重复序号幂等
	s.AppendEvent("s1", 2, "ROUND_END", "r1", []byte(`{"type":"ROUND_END"}`), 2000)

	ctx := context.Background()
	events, err := s.GetSessionStream(ctx, "s1", DirectionIn)
	if err != nil {
		t.Fatalf("GetSessionStream: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Fatalf("events out of order: %+v", events)
	}

	advice, err := s.GetSessionStream(ctx, "s1", DirectionOut)
	if err != nil {
		t.Fatalf("GetSessionStream out: %v", err)
	}
	if len(advice) != 1 || advice[0].EventType != "BET_ADVICE_NEXT_ROUND" {
		t.Fatalf("advice = %+v", advice)
	}

	all, err := s.GetSessionStream(ctx, "s1", "")
	if err != nil {
		t.Fatalf("GetSessionStream all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
}

func TestSQLite_UnknownSessionIsNotFound(t *testing.T) {
	s := newMemoryService(t)
	if _, err := s.GetSessionStream(context.Background(), "nope", DirectionIn); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSQLite_SessionSummaryUpsert(t *testing.T) {
	s := newMemoryService(t)
	started := time.Now().UTC().Truncate(time.Millisecond)

	s.UpsertSessionSummary("s1", started, map[string]any{"rounds": 10})
	s.UpsertSessionSummary("s1", started, map[string]any{"rounds": 12})

	items, err := s.ListRecentSessions(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentSessions: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Summary["rounds"] != float64(12) {
		t.Fatalf("summary = %+v", items[0].Summary)
	}
}
