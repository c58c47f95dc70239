package engine

import (
	"testing"
	"time"
)

func testRiskConfig() RiskConfig {
	return RiskConfig{
		StopLossAbs:          500,
		StopLossPct:          0.2,
		StopWinAbs:           1000,
		StopWinPct:           0.5,
		MaxDrawdownPct:       0.3,
		MaxConsecutiveLosses: 3,
		CooldownDuration:     5 * time.Minute,
		MaxRounds:            0,
		MaxSessionTime:       0,
	}
}

func TestRisk_NormalByDefault(t *testing.T) {
	now := time.Now()
	r := newRiskManager(testRiskConfig(), 10000, now)
	v := r.Evaluate(now)
	if v.State != RiskNormal || v.Factor != 1 {
		t.Fatalf("fresh session must be normal, got %+v", v)
	}
}

func TestRisk_StopLossIsTerminal(t *testing.T) {
	now := time.Now()
	r := newRiskManager(testRiskConfig(), 10000, now)

	r.RecordOutcome(OutcomeLoss, 600)
	v := r.Evaluate(now)
	if v.State != RiskStopped || v.Reason != ReasonStopLossAbs {
		t.Fatalf("want stop_loss_abs halt, got %+v", v)
	}
	if !r.Halted() {
		t.Fatal("Halted() must be true after stop loss")
	}

	// 停机是终态；中途赢回来也不解除
	r.RecordOutcome(OutcomeWin, 600)
	v = r.Evaluate(now.Add(time.Hour))
	if v.State != RiskStopped || v.Factor != 0 {
		t.Fatalf("halt must persist until reset, got %+v", v)
	}

	// 新会话信号解除停机并重设基线
	r.Reset(now.Add(time.Hour))
	v = r.Evaluate(now.Add(time.Hour))
	if v.State != RiskNormal {
		t.Fatalf("reset must clear halt, got %+v", v)
	}
}

func TestRisk_StopWin(t *testing.T) {
	now := time.Now()
	r := newRiskManager(testRiskConfig(), 10000, now)
	r.RecordOutcome(OutcomeBlackjack, 1200)
	v := r.Evaluate(now)
	if v.State != RiskStopped || v.Reason != ReasonStopWinAbs {
		t.Fatalf("want stop_win_abs halt, got %+v", v)
	}
}

func TestRisk_LossStreakCooldownExpires(t *testing.T) {
	now := time.Now()
	r := newRiskManager(testRiskConfig(), 10000, now)

	for i := 0; i < 3; i++ {
		r.RecordOutcome(OutcomeLoss, 50)
	}
	v := r.Evaluate(now)
	if v.State != RiskCooldown || v.Reason != ReasonLossStreak || v.Factor != 0 {
		t.Fatalf("want loss streak cooldown, got %+v", v)
	}

	// 冷却期内持续压零
	v = r.Evaluate(now.Add(time.Minute))
	if v.State != RiskCooldown || v.Reason != ReasonCooldown {
		t.Fatalf("cooldown should hold, got %+v", v)
	}

	// 到点自动恢复
	v = r.Evaluate(now.Add(6 * time.Minute))
	if v.State != RiskNormal || v.Factor != 1 {
		t.Fatalf("cooldown should expire, got %+v", v)
	}
}

func TestRisk_WarningNearStopLoss(t *testing.T) {
	now := time.Now()
	cfg := testRiskConfig()
	cfg.StopLossAbs = 0 // 只留百分比止损
	cfg.MaxConsecutiveLosses = 0
	cfg.MaxDrawdownPct = 0
	r := newRiskManager(cfg, 10000, now)

	// 亏 15%：到 20% 止损线的 70% 警戒带
	r.ApplyBankroll(8500)
	v := r.Evaluate(now)
	if v.State != RiskWarning || v.Reason != ReasonNearStopLoss {
		t.Fatalf("want near-stop-loss warning, got %+v", v)
	}
	if v.Factor != 0.7 {
		t.Fatalf("warning factor = %v, want 0.7", v.Factor)
	}
}

func TestRisk_MaxDrawdownFromPeak(t *testing.T) {
	now := time.Now()
	cfg := testRiskConfig()
	cfg.StopLossAbs = 0
	cfg.StopLossPct = 0
	cfg.StopWinAbs = 0
	cfg.StopWinPct = 0
	cfg.MaxConsecutiveLosses = 0
	r := newRiskManager(cfg, 10000, now)

	// 先冲高再回撤：峰值 12000，回落到 8000 → 33% 回撤
	r.ApplyBankroll(12000)
	r.ApplyBankroll(8000)
	v := r.Evaluate(now)
	if v.State != RiskStopped || v.Reason != ReasonMaxDrawdown {
		t.Fatalf("want max drawdown halt, got %+v", v)
	}
}

func TestRisk_WarningNearMaxDrawdown(t *testing.T) {
	now := time.Now()
	cfg := testRiskConfig()
	cfg.StopLossAbs = 0
	cfg.StopLossPct = 0
	cfg.StopWinAbs = 0
	cfg.StopWinPct = 0
	cfg.MaxConsecutiveLosses = 0
	r := newRiskManager(cfg, 10000, now)

	// 峰值 12000 回落到 9200 → 23.3% 回撤：到 30% 上限的警戒带，
	// 原因码必须与硬停区分开
	r.ApplyBankroll(12000)
	r.ApplyBankroll(9200)
	v := r.Evaluate(now)
	if v.State != RiskWarning || v.Reason != ReasonNearMaxDrawdown {
		t.Fatalf("want near-max-drawdown warning, got %+v", v)
	}
	if v.Factor != 0.5 {
		t.Fatalf("warning factor = %v, want 0.5", v.Factor)
	}
}

func TestRisk_RoundLimit(t *testing.T) {
	now := time.Now()
	cfg := testRiskConfig()
	cfg.MaxRounds = 2
	r := newRiskManager(cfg, 10000, now)
	r.RecordOutcome(OutcomePush, 0)
	r.RecordOutcome(OutcomePush, 0)
	v := r.Evaluate(now)
	if v.State != RiskStopped || v.Reason != ReasonRoundLimit {
		t.Fatalf("want round limit halt, got %+v", v)
	}
}

func TestRisk_SnapshotTracksPnL(t *testing.T) {
	now := time.Now()
	r := newRiskManager(testRiskConfig(), 10000, now)
	r.RecordOutcome(OutcomeWin, 100)
	r.RecordOutcome(OutcomeLoss, 40)
	snap := r.Snapshot(now.Add(time.Minute))
	if snap.SessionPnL != 60 {
		t.Fatalf("PnL = %.2f, want 60", snap.SessionPnL)
	}
	if snap.RoundsPlayed != 2 {
		t.Fatalf("rounds = %d, want 2", snap.RoundsPlayed)
	}
	if snap.ConsecutiveLosses != 1 {
		t.Fatalf("losses = %d, want 1", snap.ConsecutiveLosses)
	}
}
