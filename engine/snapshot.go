package engine

import "time"

// CountSnapshot 计数状态的不可变副本。
type CountSnapshot struct {
	System         CountSystem `json:"system"`
	RunningHiLo    int         `json:"rc_hilo"`
	RunningZen     int         `json:"rc_zen"`
	Running        int         `json:"rc"`
	TrueCount      float64     `json:"tc"`
	TCPre          float64     `json:"tc_pre"`
	TCMid          float64     `json:"tc_mid"`
	TCPost         float64     `json:"tc_post"`
	DecksRemaining float64     `json:"decks_remaining"`
	CardsSeen      int         `json:"cards_seen"`
	Penetration    float64     `json:"penetration"`
}

// RiskSnapshot 风控状态的不可变副本。
type RiskSnapshot struct {
	State             RiskState     `json:"-"`
	StateText         string        `json:"state"`
	Bankroll          float64       `json:"bankroll"`
	InitialBankroll   float64       `json:"initial_bankroll"`
	PeakBankroll      float64       `json:"peak_bankroll"`
	SessionPnL        float64       `json:"session_pnl"`
	Drawdown          float64       `json:"drawdown"`
	ConsecutiveLosses int           `json:"consecutive_losses"`
	ConsecutiveWins   int           `json:"consecutive_wins"`
	RoundsPlayed      int           `json:"rounds_played"`
	SessionElapsed    time.Duration `json:"session_elapsed_ns"`
	CooldownRemaining time.Duration `json:"cooldown_remaining_ns"`
	StopReason        string        `json:"stop_reason,omitempty"`
}

// SessionStats 会话统计。
type SessionStats struct {
	RoundsSeen      int `json:"rounds_seen"`
	HandsPlayed     int `json:"hands_played"`
	HandsWon        int `json:"hands_won"`
	HandsLost       int `json:"hands_lost"`
	HandsPushed     int `json:"hands_pushed"`
	Blackjacks      int `json:"blackjacks"`
	DoublesWon      int `json:"doubles_won"`
	DoublesLost     int `json:"doubles_lost"`
	ForcedCloses    int `json:"forced_closes"`
	EventsDiscarded int `json:"events_discarded"`
}

// WinRate 胜率。
func (s SessionStats) WinRate() float64 {
	if s.HandsPlayed == 0 {
		return 0
	}
	return float64(s.HandsWon) / float64(s.HandsPlayed)
}

// Snapshot 引擎整体只读视图。观测方只能拿到副本，拿不到活引用。
type Snapshot struct {
	SessionID string        `json:"session_id"`
	Phase     Phase         `json:"-"`
	PhaseText string        `json:"phase"`
	RoundID   string        `json:"round_id,omitempty"`
	Hand      *HandView     `json:"hand,omitempty"`
	Count     CountSnapshot `json:"count"`
	Risk      RiskSnapshot  `json:"risk"`
	Stats     SessionStats  `json:"stats"`
}

// Snapshot 在锁内拷贝全部状态。
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.now())
}

func (e *Engine) snapshotLocked(at time.Time) Snapshot {
	s := Snapshot{
		SessionID: e.sessionID,
		Phase:     e.phase,
		PhaseText: e.phase.String(),
		Count:     e.counter.Snapshot(),
		Risk:      e.riskSnapshotLocked(at),
		Stats:     e.stats,
	}
	if e.round != nil {
		s.RoundID = e.round.ID
		hv := newHandView(e.round.PrimaryHand(), e.round.DealerUp())
		s.Hand = &hv
	}
	return s
}

func (e *Engine) riskSnapshotLocked(at time.Time) RiskSnapshot {
	rs := e.risk.Snapshot(at)
	rs.StateText = rs.State.String()
	return rs
}
