package engine

import (
	"math"

	"blackjack-lite/card"
)

// Counter 计数引擎：把逐张牌观测累加为 running count，
// 并按剩余副数归一化为 true count。状态跨局保留，换靴才清零。
type Counter struct {
	cfg CountingConfig

	runningHiLo int
	runningZen  int
	cardsSeen   int

	// 共享手牌格式下的三个真数快照：
	// pre 用于打法决策，mid 在他人行动后，post 作为下局下注基准。
	tcPre  float64
	tcMid  float64
	tcPost float64
}

func newCounter(cfg CountingConfig) *Counter {
	return &Counter{cfg: cfg}
}

// ObserveCard 按两套系统权重同时累加。牌背不计。
func (c *Counter) ObserveCard(cd card.Card) {
	if cd == card.CardInvalid || cd == card.CardHole {
		return
	}
	c.runningHiLo += cd.HiLoWeight()
	c.runningZen += cd.ZenWeight()
	c.cardsSeen++
}

// ResetShoe 换靴：running count 与已见牌数归零。
func (c *Counter) ResetShoe() {
	c.runningHiLo = 0
	c.runningZen = 0
	c.cardsSeen = 0
	c.tcPre = 0
	c.tcMid = 0
	c.tcPost = 0
}

// RunningCount 当前系统下的 running count。
func (c *Counter) RunningCount() int {
	if c.cfg.System == SystemZen {
		return c.runningZen
	}
	return c.runningHiLo
}

// DecksRemaining 估算剩余副数，下限避免除法爆炸。
func (c *Counter) DecksRemaining() float64 {
	remaining := float64(c.cfg.Decks*52-c.cardsSeen) / 52
	return math.Max(c.cfg.MinDecksRemaining, remaining)
}

// Penetration 已发牌占整靴比例。
func (c *Counter) Penetration() float64 {
	total := float64(c.cfg.Decks * 52)
	if total == 0 {
		return 0
	}
	return float64(c.cardsSeen) / total
}

// TrueCount 未取整真数。
func (c *Counter) TrueCount() float64 {
	return float64(c.RunningCount()) / c.DecksRemaining()
}

// TrueCountForPlay 按打法取整策略。
func (c *Counter) TrueCountForPlay() float64 {
	return applyRounding(c.TrueCount(), c.cfg.PlayRounding)
}

// TrueCountForBet 按下注取整策略。
func (c *Counter) TrueCountForBet() float64 {
	return applyRounding(c.TrueCount(), c.cfg.BetRounding)
}

func (c *Counter) snapshotPre() float64 {
	c.tcPre = c.TrueCount()
	return c.tcPre
}

func (c *Counter) snapshotMid() float64 {
	c.tcMid = c.TrueCount()
	return c.tcMid
}

func (c *Counter) snapshotPost() float64 {
	c.tcPost = c.TrueCount()
	return c.tcPost
}

// Advantage 按下注真数估算玩家优势: (TC - 0.5) * 0.5%，下限 -2%。
// fractional 注码策略以此为输入。
func (c *Counter) Advantage() float64 {
	adv := (c.TrueCountForBet() - 0.5) * 0.005
	return math.Max(-0.02, adv)
}

// Snapshot 只读副本，供策略层与观测方使用。
func (c *Counter) Snapshot() CountSnapshot {
	return CountSnapshot{
		System:         c.cfg.System,
		RunningHiLo:    c.runningHiLo,
		RunningZen:     c.runningZen,
		Running:        c.RunningCount(),
		TrueCount:      c.TrueCount(),
		TCPre:          c.tcPre,
		TCMid:          c.tcMid,
		TCPost:         c.tcPost,
		DecksRemaining: c.DecksRemaining(),
		CardsSeen:      c.cardsSeen,
		Penetration:    c.Penetration(),
	}
}

func applyRounding(v float64, mode Rounding) float64 {
	switch mode {
	case RoundFloor:
		return math.Floor(v)
	case RoundNearest:
		return math.Round(v)
	default:
		return v
	}
}
