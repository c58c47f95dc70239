package replay

import (
	"sync"

	"blackjack-lite/card"
	"blackjack-lite/engine"
)

// Recorder 在线会话的磁带录制器。每条入站事件在交给引擎前
// 先落到磁带上，故障排查时可以离线重放整个会话。
type Recorder struct {
	mu     sync.Mutex
	tape   Tape
	nextSq uint64
}

func NewRecorder(sessionID string) *Recorder {
	return &Recorder{
		tape:   Tape{TapeVersion: currentTapeVersion, SessionID: sessionID},
		nextSq: 1,
	}
}

// Append 录一条事件，返回分配的序号。
func (r *Recorder) Append(ev engine.Event) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	te := TapeEvent{
		Seq:     r.nextSq,
		Type:    ev.Kind.String(),
		RoundID: ev.RoundID,
		Amount:  ev.Amount,
	}
	if !ev.At.IsZero() {
		te.AtMs = ev.At.UnixMilli()
	}
	switch ev.Kind {
	case engine.EventCardShared:
		te.Card = tapeCardCode(ev.Card)
	case engine.EventCardDealt:
		te.Card = tapeCardCode(ev.Card)
		te.Seat = ev.Seat.String()
	case engine.EventStateText:
		te.Phase = ev.PhaseText
	case engine.EventRoundEnd:
		te.Outcome = ev.Outcome.String()
	}

	r.tape.Events = append(r.tape.Events, te)
	r.nextSq++
	return te.Seq
}

// Tape 当前磁带的快照副本。
func (r *Recorder) Tape() *Tape {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Tape{
		TapeVersion: r.tape.TapeVersion,
		SessionID:   r.tape.SessionID,
		Events:      make([]TapeEvent, len(r.tape.Events)),
	}
	copy(out.Events, r.tape.Events)
	return &out
}

// Len 已录制的事件数。
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tape.Events)
}

func tapeCardCode(c card.Card) string {
	if c == card.CardHole {
		return "??"
	}
	return c.String()
}
