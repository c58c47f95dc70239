package engine

import (
	"fmt"
	"time"
)

// RiskState 风控状态。
type RiskState byte

const (
	RiskNormal   RiskState = 0
	RiskWarning  RiskState = 1
	RiskCooldown RiskState = 2
	RiskStopped  RiskState = 3
)

var RiskStateDictionary = map[RiskState]string{
	RiskNormal:   "normal",
	RiskWarning:  "warning",
	RiskCooldown: "cooldown",
	RiskStopped:  "stopped",
}

func (s RiskState) String() string { return RiskStateDictionary[s] }

// 风控触发原因码，出现在 RISK_ALERT 通告里。
const (
	ReasonStopLossAbs     = "stop_loss_abs"
	ReasonStopLossPct     = "stop_loss_pct"
	ReasonStopWinAbs      = "stop_win_abs"
	ReasonStopWinPct      = "stop_win_pct"
	ReasonMaxDrawdown     = "max_drawdown"
	ReasonLossStreak      = "loss_streak"
	ReasonRoundLimit      = "round_limit"
	ReasonTimeLimit       = "time_limit"
	ReasonCooldown        = "cooldown"
	ReasonNearStopLoss    = "near_stop_loss"
	ReasonNearMaxDrawdown = "near_max_drawdown"
)

// RiskVerdict 一次风控评估的结论。
type RiskVerdict struct {
	State  RiskState
	Reason string // 原因码，空表示正常
	Detail string
	Factor float64 // 注码缩放: 0 停, 1 正常
}

// RiskManager 会话资金轨迹的有状态闸门。
// 停了之后照常吃事件，但对所有建议请求返回哨兵，直到新会话信号。
type RiskManager struct {
	cfg RiskConfig

	initialBankroll float64
	currentBankroll float64
	peakBankroll    float64

	consecutiveLosses int
	consecutiveWins   int
	roundsPlayed      int

	state         RiskState
	stopReason    string
	cooldownUntil time.Time
	sessionStart  time.Time
}

func newRiskManager(cfg RiskConfig, bankroll float64, at time.Time) *RiskManager {
	return &RiskManager{
		cfg:             cfg,
		initialBankroll: bankroll,
		currentBankroll: bankroll,
		peakBankroll:    bankroll,
		sessionStart:    at,
	}
}

// Reset 新会话信号：以当前资金为新基线，解除一切停机。
func (r *RiskManager) Reset(at time.Time) {
	r.initialBankroll = r.currentBankroll
	r.peakBankroll = r.currentBankroll
	r.consecutiveLosses = 0
	r.consecutiveWins = 0
	r.roundsPlayed = 0
	r.state = RiskNormal
	r.stopReason = ""
	r.cooldownUntil = time.Time{}
	r.sessionStart = at
}

// ApplyBankroll 感知层读到的绝对余额。
func (r *RiskManager) ApplyBankroll(bankroll float64) {
	r.trackDelta(bankroll)
}

// RecordOutcome 局终结算：按结果调整资金并更新连胜/连败。
func (r *RiskManager) RecordOutcome(outcome Outcome, amount float64) {
	r.roundsPlayed++
	switch outcome {
	case OutcomeWin, OutcomeBlackjack:
		r.trackDelta(r.currentBankroll + amount)
	case OutcomeLoss, OutcomeSurrender:
		r.trackDelta(r.currentBankroll - amount)
	case OutcomePush:
		r.trackDelta(r.currentBankroll)
	}
}

func (r *RiskManager) trackDelta(newBankroll float64) {
	switch {
	case newBankroll > r.currentBankroll:
		r.consecutiveWins++
		r.consecutiveLosses = 0
	case newBankroll < r.currentBankroll:
		r.consecutiveLosses++
		r.consecutiveWins = 0
	}
	r.currentBankroll = newBankroll
	if newBankroll > r.peakBankroll {
		r.peakBankroll = newBankroll
	}
}

// Evaluate 按配置的触发器依次检查。每个触发器可单独禁用（阈值 0）。
func (r *RiskManager) Evaluate(at time.Time) RiskVerdict {
	// 硬停是终态。
	if r.state == RiskStopped {
		return RiskVerdict{State: RiskStopped, Reason: r.stopReason, Detail: "session halted", Factor: 0}
	}

	// 冷却中：到点自动恢复。
	if r.state == RiskCooldown {
		if at.Before(r.cooldownUntil) {
			remaining := r.cooldownUntil.Sub(at)
			return RiskVerdict{State: RiskCooldown, Reason: ReasonCooldown,
				Detail: fmt.Sprintf("cooldown: %s remaining", remaining.Round(time.Second)), Factor: 0}
		}
		r.state = RiskNormal
	}

	pnl := r.currentBankroll - r.initialBankroll

	if r.cfg.StopLossAbs > 0 && pnl <= -r.cfg.StopLossAbs {
		return r.stop(ReasonStopLossAbs, fmt.Sprintf("stop loss hit: %.2f", pnl))
	}
	if r.cfg.StopLossPct > 0 && r.initialBankroll > 0 {
		lossPct := -pnl / r.initialBankroll
		if pnl < 0 && lossPct >= r.cfg.StopLossPct {
			return r.stop(ReasonStopLossPct, fmt.Sprintf("stop loss %.1f%%", lossPct*100))
		}
	}
	if r.cfg.StopWinAbs > 0 && pnl >= r.cfg.StopWinAbs {
		return r.stop(ReasonStopWinAbs, fmt.Sprintf("stop win hit: %.2f", pnl))
	}
	if r.cfg.StopWinPct > 0 && r.initialBankroll > 0 {
		winPct := pnl / r.initialBankroll
		if pnl > 0 && winPct >= r.cfg.StopWinPct {
			return r.stop(ReasonStopWinPct, fmt.Sprintf("stop win %.1f%%", winPct*100))
		}
	}
	if r.cfg.MaxDrawdownPct > 0 && r.peakBankroll > 0 {
		dd := (r.peakBankroll - r.currentBankroll) / r.peakBankroll
		if dd >= r.cfg.MaxDrawdownPct {
			return r.stop(ReasonMaxDrawdown, fmt.Sprintf("drawdown %.1f%% from peak", dd*100))
		}
	}
	if r.cfg.MaxRounds > 0 && r.roundsPlayed >= r.cfg.MaxRounds {
		return r.stop(ReasonRoundLimit, fmt.Sprintf("round limit %d reached", r.cfg.MaxRounds))
	}
	if r.cfg.MaxSessionTime > 0 && at.Sub(r.sessionStart) >= r.cfg.MaxSessionTime {
		return r.stop(ReasonTimeLimit, fmt.Sprintf("session time limit %s reached", r.cfg.MaxSessionTime))
	}

	// 连败进冷却，只压注不停机。
	if r.cfg.MaxConsecutiveLosses > 0 && r.consecutiveLosses >= r.cfg.MaxConsecutiveLosses {
		r.state = RiskCooldown
		r.cooldownUntil = at.Add(r.cfg.CooldownDuration)
		r.consecutiveLosses = 0
		return RiskVerdict{State: RiskCooldown, Reason: ReasonLossStreak,
			Detail: fmt.Sprintf("loss streak, cooling down %s", r.cfg.CooldownDuration), Factor: 0}
	}

	// 警戒带：逼近止损就先减注。
	if r.cfg.StopLossPct > 0 && r.initialBankroll > 0 && pnl < 0 {
		lossPct := -pnl / r.initialBankroll
		if lossPct >= r.cfg.StopLossPct*0.7 {
			r.state = RiskWarning
			return RiskVerdict{State: RiskWarning, Reason: ReasonNearStopLoss,
				Detail: fmt.Sprintf("approaching stop loss: %.1f%%", lossPct*100), Factor: 0.7}
		}
	}
	if r.cfg.MaxDrawdownPct > 0 && r.peakBankroll > 0 {
		dd := (r.peakBankroll - r.currentBankroll) / r.peakBankroll
		if dd >= r.cfg.MaxDrawdownPct*0.7 {
			r.state = RiskWarning
			return RiskVerdict{State: RiskWarning, Reason: ReasonNearMaxDrawdown,
				Detail: fmt.Sprintf("drawdown warning: %.1f%%", dd*100), Factor: 0.5}
		}
	}

	r.state = RiskNormal
	return RiskVerdict{State: RiskNormal, Factor: 1}
}

func (r *RiskManager) stop(reason, detail string) RiskVerdict {
	r.state = RiskStopped
	r.stopReason = reason
	return RiskVerdict{State: RiskStopped, Reason: reason, Detail: detail, Factor: 0}
}

// Halted 停机即终态，直到 Reset。
func (r *RiskManager) Halted() bool { return r.state == RiskStopped }

func (r *RiskManager) Bankroll() float64 { return r.currentBankroll }

// Snapshot 只读副本。
func (r *RiskManager) Snapshot(at time.Time) RiskSnapshot {
	dd := 0.0
	if r.peakBankroll > 0 {
		dd = (r.peakBankroll - r.currentBankroll) / r.peakBankroll
	}
	cooldown := time.Duration(0)
	if r.state == RiskCooldown && at.Before(r.cooldownUntil) {
		cooldown = r.cooldownUntil.Sub(at)
	}
	return RiskSnapshot{
		State:             r.state,
		Bankroll:          r.currentBankroll,
		InitialBankroll:   r.initialBankroll,
		PeakBankroll:      r.peakBankroll,
		SessionPnL:        r.currentBankroll - r.initialBankroll,
		Drawdown:          dd,
		ConsecutiveLosses: r.consecutiveLosses,
		ConsecutiveWins:   r.consecutiveWins,
		RoundsPlayed:      r.roundsPlayed,
		SessionElapsed:    at.Sub(r.sessionStart),
		CooldownRemaining: cooldown,
		StopReason:        r.stopReason,
	}
}
