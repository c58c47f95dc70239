// Package session hosts one live advisory session as an actor: a
// single goroutine owns the engine, consumes raw perception envelopes
// in arrival order, and fans advice out to subscribers and the ledger.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"blackjack-lite/engine"
	"blackjack-lite/internal/codec"
	"blackjack-lite/internal/ledger"
	"blackjack-lite/replay"
)

var ErrSessionClosed = errors.New("session closed")

const summaryFlushInterval = 30 * time.Second

// Session is a single advisory session actor.
type Session struct {
	ID string

	mu     sync.RWMutex
	engine *engine.Engine

	recorder *replay.Recorder
	ledger   ledger.Service

	inbound  chan []byte
	done     chan struct{}
	stopOnce sync.Once

	outSeq    uint64
	startedAt time.Time

	// Callback to deliver encoded advice to subscribers.
	broadcast func(data []byte)
}

// New validates the configuration, starts the actor goroutine and
// returns the running session.
func New(id string, cfg engine.Config, ledgerService ledger.Service, broadcastFn func(data []byte)) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	eng, err := engine.New(id, cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		engine:    eng,
		recorder:  replay.NewRecorder(id),
		ledger:    ledgerService,
		inbound:   make(chan []byte, 256),
		done:      make(chan struct{}),
		startedAt: time.Now(),
		broadcast: broadcastFn,
	}
	go s.run()

	log.Printf("[Session %s] started", id)
	return s, nil
}

// SubmitRaw queues a raw perception envelope for processing.
func (s *Session) SubmitRaw(raw []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbound <- raw:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) run() {
	ticker := time.NewTicker(summaryFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case raw := <-s.inbound:
			s.handleRaw(raw)
		case <-ticker.C:
			s.flushSummary()
		case <-s.done:
			log.Printf("[Session %s] actor stopped", s.ID)
			return
		}
	}
}

func (s *Session) handleRaw(raw []byte) {
	ev, err := codec.DecodeEvent(raw)
	if err != nil {
		log.Printf("[Session %s] discarded envelope: %v", s.ID, err)
		return
	}

	seq := s.recorder.Append(ev)
	s.ledger.AppendEvent(s.ID, seq, ev.Kind.String(), ev.RoundID, raw, ev.At.UnixMilli())

	for _, advice := range s.engine.HandleEvent(ev) {
		encoded, err := codec.EncodeAdvice(advice)
		if err != nil {
			log.Printf("[Session %s] encode advice failed: %v", s.ID, err)
			continue
		}
		s.mu.Lock()
		s.outSeq++
		seq := s.outSeq
		s.mu.Unlock()

		s.ledger.AppendAdvice(s.ID, seq, advice.Kind.String(), advice.RoundID, encoded, advice.At.UnixMilli())
		if s.broadcast != nil {
			s.broadcast(encoded)
		}
	}
}

func (s *Session) flushSummary() {
	snap := s.engine.Snapshot()
	s.ledger.UpsertSessionSummary(s.ID, s.startedAt, map[string]any{
		"phase":        snap.PhaseText,
		"rounds_seen":  snap.Stats.RoundsSeen,
		"hands_played": snap.Stats.HandsPlayed,
		"hands_won":    snap.Stats.HandsWon,
		"bankroll":     snap.Risk.Bankroll,
		"session_pnl":  snap.Risk.SessionPnL,
		"risk_state":   snap.Risk.StateText,
		"events":       s.recorder.Len(),
	})
}

// Snapshot read-only view of the underlying engine.
func (s *Session) Snapshot() engine.Snapshot {
	return s.engine.Snapshot()
}

// Tape copy of the recorded perception stream so far.
func (s *Session) Tape() *replay.Tape {
	return s.recorder.Tape()
}

// Halted reports whether risk controls stopped the session.
func (s *Session) Halted() bool {
	return s.engine.Halted()
}

// Close flushes the final summary and stops the actor.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		s.flushSummary()
		close(s.done)
	})
}
