package replay

import (
	"strings"
	"testing"

	"blackjack-lite/card"
	"blackjack-lite/engine"
)

// 天生 BJ 一局的标准磁带。
func baseTape() *Tape {
	return &Tape{
		TapeVersion: 1,
		SessionID:   "tape-test",
		Events: []TapeEvent{
			{Seq: 1, AtMs: 1700000000000, Type: "ROUND_START", RoundID: "r1"},
			{Seq: 2, AtMs: 1700000001000, Type: "CARD_DEALT_SHARED", Card: "As"},
			{Seq: 3, AtMs: 1700000002000, Type: "CARD_DEALT_SHARED", Card: "Kd"},
			{Seq: 4, AtMs: 1700000003000, Type: "CARD_DEALT", Card: "7h", Seat: "dealer"},
			{Seq: 5, AtMs: 1700000004000, Type: "CARD_DEALT", Card: "??", Seat: "dealer"},
			{Seq: 6, AtMs: 1700000005000, Type: "STATE_TEXT", Phase: "my_action"},
			{Seq: 7, AtMs: 1700000006000, Type: "STATE_TEXT", Phase: "payouts"},
			{Seq: 8, AtMs: 1700000007000, Type: "ROUND_END", RoundID: "r1", Outcome: "blackjack", Amount: 37.5},
		},
	}
}

type adviceKey struct {
	kind   engine.AdviceKind
	action engine.Action
	amount float64
}

func adviceKeys(advice []engine.Advice) []adviceKey {
	out := make([]adviceKey, 0, len(advice))
	for _, a := range advice {
		out = append(out, adviceKey{kind: a.Kind, action: a.Action, amount: a.Amount})
	}
	return out
}

func TestRun_IsDeterministic(t *testing.T) {
	cfg := engine.DefaultConfig()

	a, err := Run(baseTape(), cfg)
	if err != nil {
		t.Fatalf("Run A failed: %v", err)
	}
	b, err := Run(baseTape(), cfg)
	if err != nil {
		t.Fatalf("Run B failed: %v", err)
	}

	ka, kb := adviceKeys(a.Advice), adviceKeys(b.Advice)
	if len(ka) == 0 || len(ka) != len(kb) {
		t.Fatalf("advice streams differ: %d vs %d", len(ka), len(kb))
	}
	for i := range ka {
		if ka[i] != kb[i] {
			t.Fatalf("advice %d differs: %+v vs %+v", i, ka[i], kb[i])
		}
	}
	if a.Final.Risk.Bankroll != b.Final.Risk.Bankroll {
		t.Fatalf("final bankroll differs: %.2f vs %.2f", a.Final.Risk.Bankroll, b.Final.Risk.Bankroll)
	}
	if a.Final.Risk.Bankroll != 10037.5 {
		t.Fatalf("bankroll = %.2f, want 10037.50", a.Final.Risk.Bankroll)
	}
}

// 磁带文件里的物理顺序不可信，重放只认 seq。
func TestRun_OrdersBySeq(t *testing.T) {
	cfg := engine.DefaultConfig()

	ordered, err := Run(baseTape(), cfg)
	if err != nil {
		t.Fatalf("Run ordered failed: %v", err)
	}

	shuffled := baseTape()
	shuffled.Events[0], shuffled.Events[7] = shuffled.Events[7], shuffled.Events[0]
	shuffled.Events[2], shuffled.Events[5] = shuffled.Events[5], shuffled.Events[2]
	out, err := Run(shuffled, cfg)
	if err != nil {
		t.Fatalf("Run shuffled failed: %v", err)
	}

	ka, kb := adviceKeys(ordered.Advice), adviceKeys(out.Advice)
	if len(ka) != len(kb) {
		t.Fatalf("advice streams differ: %d vs %d", len(ka), len(kb))
	}
	for i := range ka {
		if ka[i] != kb[i] {
			t.Fatalf("advice %d differs: %+v vs %+v", i, ka[i], kb[i])
		}
	}
}

func TestRun_RejectsBadTapes(t *testing.T) {
	cfg := engine.DefaultConfig()

	cases := []struct {
		name   string
		mutate func(*Tape)
		reason string
	}{
		{"unknown type", func(tp *Tape) { tp.Events[0].Type = "WAT" }, "unknown_event_type"},
		{"bad card", func(tp *Tape) { tp.Events[1].Card = "Zz" }, "invalid_card"},
		{"missing outcome", func(tp *Tape) { tp.Events[7].Outcome = "" }, "invalid_outcome"},
		{"missing phase", func(tp *Tape) { tp.Events[5].Phase = "" }, "missing_phase"},
		{"bad version", func(tp *Tape) { tp.TapeVersion = 99 }, "unsupported_version"},
	}
	for _, tc := range cases {
		tp := baseTape()
		tc.mutate(tp)
		_, err := Run(tp, cfg)
		if err == nil {
			t.Fatalf("%s: want error", tc.name)
		}
		te, ok := err.(*TapeError)
		if !ok {
			t.Fatalf("%s: want TapeError, got %T", tc.name, err)
		}
		if te.Reason != tc.reason {
			t.Fatalf("%s: reason = %s, want %s", tc.name, te.Reason, tc.reason)
		}
	}
}

func TestRun_EmptyTape(t *testing.T) {
	_, err := Run(&Tape{TapeVersion: 1}, engine.DefaultConfig())
	te, ok := err.(*TapeError)
	if !ok || te.Reason != "empty_tape" {
		t.Fatalf("want empty_tape error, got %v", err)
	}
}

func TestRecorder_RoundTrip(t *testing.T) {
	rec := NewRecorder("rec-test")
	events := []engine.Event{
		{Kind: engine.EventRoundStart, RoundID: "r1"},
		{Kind: engine.EventCardShared, Card: card.MustParse("As")},
		{Kind: engine.EventCardShared, Card: card.MustParse("Kd")},
		{Kind: engine.EventCardDealt, Seat: engine.SeatDealer, Card: card.CardHole},
		{Kind: engine.EventStateText, PhaseText: "my_action"},
		{Kind: engine.EventRoundEnd, RoundID: "r1", Outcome: engine.OutcomeBlackjack, Amount: 37.5},
	}
	for _, ev := range events {
		rec.Append(ev)
	}
	if rec.Len() != len(events) {
		t.Fatalf("recorded %d, want %d", rec.Len(), len(events))
	}

	tape := rec.Tape()
	if tape.Events[3].Card != "??" {
		t.Fatalf("hole card code = %q, want ??", tape.Events[3].Card)
	}

	report, err := Run(tape, engine.DefaultConfig())
	if err != nil {
		t.Fatalf("recorded tape must replay: %v", err)
	}
	if report.Final.Risk.Bankroll != 10037.5 {
		t.Fatalf("bankroll = %.2f, want 10037.50", report.Final.Risk.Bankroll)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader(`{"tape_version":1,"bogus":true,"events":[]}`))
	te, ok := err.(*TapeError)
	if !ok || te.Reason != "invalid_json" {
		t.Fatalf("want invalid_json error, got %v", err)
	}
}
