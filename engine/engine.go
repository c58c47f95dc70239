package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"blackjack-lite/card"
)

// Engine 单线程事件消费者：驱动状态机、喂计数引擎、在阶段边界
// 依次询问风控与策略并产出建议。事件严格按到达顺序处理。
type Engine struct {
	cfg Config

	mu sync.Mutex

	phase     Phase
	round     *Round
	lastRound *Round
	roundSeq  int

	counter *Counter
	play    *PlayPolicy
	bet     *BetPolicy
	risk    *RiskManager

	stats     SessionStats
	sessionID string

	now func() time.Time
}

// New 校验配置后构建引擎；配置非法直接拒绝开始会话。
func New(sessionID string, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	now := time.Now
	e := &Engine{
		cfg:       cfg,
		phase:     PhaseIdle,
		counter:   newCounter(cfg.Counting),
		play:      newPlayPolicy(cfg.Rules, cfg.Actions, cfg.Deviations),
		bet:       newBetPolicy(cfg.Bet),
		risk:      newRiskManager(cfg.Risk, cfg.InitialBankroll, now()),
		sessionID: sessionID,
		now:       now,
	}
	return e, nil
}

// HandleEvent 处理一个入站事件，返回产出的建议（可能为空）。
// 畸形输入只记诊断，永不当成故障向上抛。
func (e *Engine) HandleEvent(ev Event) []Advice {
	e.mu.Lock()
	defer e.mu.Unlock()

	at := ev.At
	if at.IsZero() {
		at = e.now()
	}

	switch ev.Kind {
	case EventRoundStart:
		return e.handleRoundStartLocked(ev, at)
	case EventRoundEnd:
		return e.handleRoundEndLocked(ev, at)
	case EventCardShared:
		return e.handlePlayerCardLocked(ev, at)
	case EventCardDealt:
		return e.handleSeatCardLocked(ev, at)
	case EventStateText:
		return e.handleStateTextLocked(ev, at)
	case EventDecisionLocked:
		if e.phase != PhaseMyAction {
			return e.discardLocked(ev, "decision lock outside my action")
		}
		e.counter.snapshotMid()
		e.transitionLocked(PhaseOthersActions)
		return e.stateUpdateLocked(at, "decision locked")
	case EventShoeShuffle:
		e.counter.ResetShoe()
		return e.stateUpdateLocked(at, "shoe reset")
	case EventBankroll:
		if ev.Amount < 0 {
			return e.discardLocked(ev, "negative bankroll observation")
		}
		e.risk.ApplyBankroll(ev.Amount)
		return nil
	case EventNewSession:
		e.risk.Reset(at)
		e.stats = SessionStats{}
		return e.stateUpdateLocked(at, "new session")
	case EventNone:
		return e.discardLocked(ev, "empty event kind")
	}
	return e.discardLocked(ev, "unknown event kind")
}

// handleRoundStartLocked 开局。上一局未走到终态就被顶掉时，
// 先强制关闭并生成异常收尾记录。
func (e *Engine) handleRoundStartLocked(ev Event, at time.Time) []Advice {
	var out []Advice

	// 同一局号重复开局是感知层抖动，丢弃，不动在场手牌。
	if e.round != nil && ev.RoundID != "" && ev.RoundID == e.round.ID {
		return e.discardLocked(ev, fmt.Sprintf("duplicate round start for %s", e.round.ID))
	}

	if e.round != nil && e.phase == PhasePayouts {
		// 看到了 payouts 文案却没等到 ROUND_END：按未知结果闭局存档
		log.Printf("[Engine %s] round %s archived without a round end", e.sessionID, e.round.ID)
		e.round.close(OutcomeUnknown, 0, at)
		e.lastRound = e.round
	}

	if e.round != nil && e.phase != PhaseIdle && e.phase != PhasePayouts {
		log.Printf("[Engine %s] round %s force-closed by new round start", e.sessionID, e.round.ID)
		e.round.forceClose(at)
		e.lastRound = e.round
		e.stats.ForcedCloses++
		e.forceTransitionLocked(PhaseIdle)
		out = append(out, e.buildAdviceLocked(AdviceStateUpdate, at, func(a *Advice) {
			a.RoundID = e.lastRound.ID
			a.Reason = "abnormal end: round force-closed"
			a.ReasonCode = "forced_close"
		}))
	}

	id := ev.RoundID
	e.roundSeq++
	if id == "" {
		id = fmt.Sprintf("r-%06d", e.roundSeq)
	}
	e.round = newRound(id, at)
	e.stats.RoundsSeen++
	if e.phase == PhasePayouts {
		e.transitionLocked(PhaseBetsOpen)
	} else {
		e.forceTransitionLocked(PhaseIdle)
		e.transitionLocked(PhaseBetsOpen)
	}

	out = append(out, e.stateUpdateLocked(at, "round start")...)
	out = append(out, e.betAdviceLocked(at)...)
	return out
}

// betAdviceLocked 风控先行，再算注码。停机与冷却期返回哨兵。
func (e *Engine) betAdviceLocked(at time.Time) []Advice {
	verdict := e.risk.Evaluate(at)
	if verdict.Factor == 0 {
		return []Advice{e.buildAdviceLocked(AdviceRiskAlert, at, func(a *Advice) {
			a.SitOut = true
			a.ReasonCode = verdict.Reason
			a.Reason = verdict.Detail
		})}
	}

	tc := e.counter.TrueCountForBet()
	sug := e.bet.Recommend(tc, e.counter.Advantage(), e.risk.Bankroll(), verdict.Factor)
	return []Advice{e.buildAdviceLocked(AdviceBet, at, func(a *Advice) {
		a.Amount = sug.Amount
		a.Units = sug.Units
		a.SitOut = sug.SitOut
		a.Reason = sug.Rationale
	})}
}

func (e *Engine) handlePlayerCardLocked(ev Event, at time.Time) []Advice {
	if e.round == nil || e.phase == PhaseIdle {
		return e.discardLocked(ev, "player card while idle")
	}
	if ev.Card == card.CardInvalid {
		return e.discardLocked(ev, "invalid card code")
	}
	if e.phase == PhaseBetsOpen {
		e.transitionLocked(PhaseDealing)
	}
	if e.phase != PhaseDealing && e.phase != PhaseMyAction {
		return e.discardLocked(ev, fmt.Sprintf("player card during %s", e.phase))
	}
	e.counter.ObserveCard(ev.Card)
	e.round.addPlayerCard(ev.Card)
	if e.round.PrimaryHand().IsBlackjack() {
		e.stats.Blackjacks++
	}
	return nil
}

func (e *Engine) handleSeatCardLocked(ev Event, at time.Time) []Advice {
	if e.round == nil || e.phase == PhaseIdle {
		return e.discardLocked(ev, "seat card while idle")
	}
	if ev.Card == card.CardInvalid {
		return e.discardLocked(ev, "invalid card code")
	}
	switch ev.Seat {
	case SeatPlayer:
		return e.handlePlayerCardLocked(ev, at)
	case SeatDealer:
		if e.phase == PhaseBetsOpen {
			e.transitionLocked(PhaseDealing)
		}
		e.counter.ObserveCard(ev.Card) // 牌背在 ObserveCard 内部跳过
		e.round.addDealerCard(ev.Card)
	case SeatOthers:
		e.counter.ObserveCard(ev.Card)
	default:
		return e.discardLocked(ev, "unknown seat")
	}
	return nil
}

func (e *Engine) handleStateTextLocked(ev Event, at time.Time) []Advice {
	target, ok := ParsePhaseText(ev.PhaseText)
	if !ok {
		return e.discardLocked(ev, fmt.Sprintf("unrecognized phase text %q", ev.PhaseText))
	}

	switch target {
	case PhaseMyAction:
		return e.enterMyActionLocked(at)
	case PhaseDealerPlay:
		if e.transitionLocked(PhaseDealerPlay) {
			e.counter.snapshotMid()
			return e.stateUpdateLocked(at, "dealer play")
		}
		return nil
	case PhasePayouts:
		if e.transitionLocked(PhasePayouts) {
			e.counter.snapshotPost()
			return e.stateUpdateLocked(at, "payouts")
		}
		return nil
	default:
		if e.transitionLocked(target) {
			return e.stateUpdateLocked(at, "phase observed")
		}
		return nil
	}
}

// enterMyActionLocked 进入本座位行动。天生 BJ 或空手直接跳过本阶段，
// 不产出打法建议。
func (e *Engine) enterMyActionLocked(at time.Time) []Advice {
	if e.round == nil {
		return e.discardLocked(Event{Kind: EventStateText}, "my action without a round")
	}

	hand := e.round.PrimaryHand()
	e.counter.snapshotPre()

	if hand.Len() == 0 || hand.IsBlackjack() {
		if e.transitionLocked(PhaseOthersActions) {
			return e.stateUpdateLocked(at, "my action skipped")
		}
		return nil
	}

	// 重复的 my_action 观测视为再次询问：留在本阶段重新给建议。
	reprompt := e.phase == PhaseMyAction
	if !reprompt && !e.transitionLocked(PhaseMyAction) {
		return nil
	}

	var out []Advice
	if !reprompt {
		out = e.stateUpdateLocked(at, "my action")
	}

	// 停机会话对每个建议请求返回哨兵。
	verdict := e.risk.Evaluate(at)
	if verdict.State == RiskStopped {
		return append(out, e.buildAdviceLocked(AdviceRiskAlert, at, func(a *Advice) {
			a.SitOut = true
			a.ReasonCode = verdict.Reason
			a.Reason = verdict.Detail
		}))
	}

	tc := e.counter.TrueCountForPlay()
	var (
		action Action
		reason string
	)
	if e.round.InsuranceTaken {
		action, reason = e.play.RecommendAfterInsurance(hand, e.round.DealerUp(), tc)
	} else {
		action, reason = e.play.Recommend(hand, e.round.DealerUp(), tc)
	}
	if action == ActionDouble {
		e.round.Doubled = true
	}
	if action == ActionSplit {
		e.round.Split = true
	}
	if action == ActionInsurance {
		e.round.InsuranceTaken = true
	}
	if action == ActionSurrender {
		e.round.Surrendered = true
	}
	return append(out, e.buildAdviceLocked(AdvicePlay, at, func(a *Advice) {
		a.Action = action
		a.Reason = reason
		a.Hand = newHandView(hand, e.round.DealerUp())
	}))
}

func (e *Engine) handleRoundEndLocked(ev Event, at time.Time) []Advice {
	if e.round == nil {
		return e.discardLocked(ev, "round end without a round")
	}
	if ev.RoundID != "" && ev.RoundID != e.round.ID {
		return e.discardLocked(ev, fmt.Sprintf("round end for unknown round %q", ev.RoundID))
	}
	if ev.Outcome == OutcomeUnknown {
		return e.discardLocked(ev, "round end without outcome")
	}

	if e.phase != PhasePayouts {
		e.forceTransitionLocked(PhasePayouts)
	}
	e.counter.snapshotPost()

	e.round.close(ev.Outcome, ev.Amount, at)
	e.risk.RecordOutcome(ev.Outcome, ev.Amount)

	e.stats.HandsPlayed++
	switch ev.Outcome {
	case OutcomeWin, OutcomeBlackjack:
		e.stats.HandsWon++
		if e.round.Doubled {
			e.stats.DoublesWon++
		}
	case OutcomeLoss, OutcomeSurrender:
		e.stats.HandsLost++
		if e.round.Doubled {
			e.stats.DoublesLost++
		}
	case OutcomePush:
		e.stats.HandsPushed++
	}

	e.lastRound = e.round
	e.round = nil
	e.transitionLocked(PhaseIdle)

	out := e.stateUpdateLocked(at, "round end")

	// 刚触发的停机要立刻亮牌。
	verdict := e.risk.Evaluate(at)
	if verdict.State == RiskStopped || verdict.State == RiskCooldown {
		out = append(out, e.buildAdviceLocked(AdviceRiskAlert, at, func(a *Advice) {
			a.SitOut = true
			a.ReasonCode = verdict.Reason
			a.Reason = verdict.Detail
		}))
	}
	return out
}

func (e *Engine) discardLocked(ev Event, reason string) []Advice {
	e.stats.EventsDiscarded++
	log.Printf("[Engine %s] discarded %s: %s", e.sessionID, ev.Kind, reason)
	return nil
}

func (e *Engine) stateUpdateLocked(at time.Time, note string) []Advice {
	return []Advice{e.buildAdviceLocked(AdviceStateUpdate, at, func(a *Advice) {
		a.Reason = note
	})}
}

// buildAdviceLocked 每条建议都带上产生它的计数与风控快照，便于审计。
func (e *Engine) buildAdviceLocked(kind AdviceKind, at time.Time, fill func(*Advice)) Advice {
	a := Advice{
		Kind:  kind,
		At:    at,
		Phase: e.phase,
		Count: e.counter.Snapshot(),
		Risk:  e.riskSnapshotLocked(at),
	}
	if e.round != nil {
		a.RoundID = e.round.ID
	}
	if fill != nil {
		fill(&a)
	}
	return a
}

// SessionID 会话标识。
func (e *Engine) SessionID() string { return e.sessionID }

// Halted 风控是否已停机。
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.risk.Halted()
}

// LastRound 最近收尾（含强制关闭）的一局。
func (e *Engine) LastRound() *Round {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRound
}
