package engine

import (
	"fmt"
	"math"
	"time"
)

// RulesConfig 台面规则。
type RulesConfig struct {
	Decks            int
	DealerHitsSoft17 bool
	DoubleAfterSplit bool
	SurrenderAllowed bool
	InsuranceAllowed bool
	BlackjackPayout  float64 // 1.5 = 3:2
}

// CountingConfig 计数配置。打法与下注的取整策略相互独立。
type CountingConfig struct {
	Decks             int
	System            CountSystem
	PlayRounding      Rounding
	BetRounding       Rounding
	MinDecksRemaining float64
}

// ActionFlags 动作开关：关掉的动作按固定优先级降级。
type ActionFlags struct {
	Double    bool
	Split     bool
	Surrender bool
	Insurance bool
}

// BetConfig 注码配置。
type BetConfig struct {
	Strategy  BetStrategy
	UnitValue float64
	TableMin  float64
	TableMax  float64
	Increment float64
	WongOut   float64 // TC 低于此线离场

	// ramp
	Ramp map[int]float64

	// fractional
	Fraction       float64 // 资金的 Kelly 分数
	MinEdge        float64
	MaxBankrollPct float64
}

// RiskConfig 风控阈值，0 表示禁用该触发器。
type RiskConfig struct {
	StopLossAbs          float64
	StopLossPct          float64
	StopWinAbs           float64
	StopWinPct           float64
	MaxDrawdownPct       float64
	MaxConsecutiveLosses int
	CooldownDuration     time.Duration
	MaxRounds            int
	MaxSessionTime       time.Duration
}

// Config 会话配置：一次注入，校验后不可变。
type Config struct {
	Rules           RulesConfig
	Counting        CountingConfig
	Actions         ActionFlags
	Bet             BetConfig
	Risk            RiskConfig
	Deviations      []Deviation
	InitialBankroll float64
}

// DefaultConfig 8 副 H17/DAS 台，Hi-Lo，打法 floor / 下注 exact。
func DefaultConfig() Config {
	return Config{
		Rules: RulesConfig{
			Decks:            8,
			DealerHitsSoft17: true,
			DoubleAfterSplit: true,
			SurrenderAllowed: false,
			InsuranceAllowed: true,
			BlackjackPayout:  1.5,
		},
		Counting: CountingConfig{
			Decks:             8,
			System:            SystemHiLo,
			PlayRounding:      RoundFloor,
			BetRounding:       RoundExact,
			MinDecksRemaining: 0.5,
		},
		Actions: ActionFlags{
			Double:    true,
			Split:     true,
			Surrender: false,
			Insurance: true,
		},
		Bet: BetConfig{
			Strategy:  BetRamp,
			UnitValue: 25,
			TableMin:  25,
			TableMax:  1000,
			Increment: 5,
			WongOut:   -1,
			Ramp: map[int]float64{
				-1: 1, 0: 1, 1: 2, 2: 4, 3: 6, 4: 8, 5: 10,
			},
			Fraction:       0.25,
			MinEdge:        0.002,
			MaxBankrollPct: 0.05,
		},
		Risk: RiskConfig{
			StopLossAbs:          1000,
			StopLossPct:          0.5,
			StopWinAbs:           2000,
			StopWinPct:           1.0,
			MaxDrawdownPct:       0.3,
			MaxConsecutiveLosses: 5,
			CooldownDuration:     time.Minute,
		},
		Deviations:      DefaultDeviations(),
		InitialBankroll: 10000,
	}
}

// Validate 开局前快速失败：任何非法配置直接拒绝开始会话。
func (c Config) Validate() error {
	if c.Rules.Decks <= 0 {
		return fmt.Errorf("rules: decks must be > 0")
	}
	if c.Rules.BlackjackPayout <= 0 {
		return fmt.Errorf("rules: blackjack payout must be > 0")
	}
	if c.Counting.Decks <= 0 {
		return fmt.Errorf("counting: decks must be > 0")
	}
	if _, ok := CountSystemDictionary[c.Counting.System]; !ok {
		return fmt.Errorf("counting: unknown system %d", c.Counting.System)
	}
	if _, ok := RoundingDictionary[c.Counting.PlayRounding]; !ok {
		return fmt.Errorf("counting: unknown play rounding %d", c.Counting.PlayRounding)
	}
	if _, ok := RoundingDictionary[c.Counting.BetRounding]; !ok {
		return fmt.Errorf("counting: unknown bet rounding %d", c.Counting.BetRounding)
	}
	if c.Counting.MinDecksRemaining <= 0 {
		return fmt.Errorf("counting: min decks remaining must be > 0")
	}

	b := c.Bet
	if _, ok := BetStrategyDictionary[b.Strategy]; !ok {
		return fmt.Errorf("bet: unknown strategy %d", b.Strategy)
	}
	if b.UnitValue <= 0 {
		return fmt.Errorf("bet: unit value must be > 0")
	}
	if b.TableMin <= 0 || b.TableMax < b.TableMin {
		return fmt.Errorf("bet: invalid table limits [%.2f, %.2f]", b.TableMin, b.TableMax)
	}
	if b.Increment <= 0 {
		return fmt.Errorf("bet: increment must be > 0")
	}
	if rem := math.Mod(b.TableMin, b.Increment); rem > 1e-9 && b.Increment-rem > 1e-9 {
		return fmt.Errorf("bet: table min %.2f not a multiple of increment %.2f", b.TableMin, b.Increment)
	}
	if b.Strategy == BetRamp && len(b.Ramp) == 0 {
		return fmt.Errorf("bet: ramp strategy requires a non-empty ramp table")
	}
	for tc, units := range b.Ramp {
		if units < 0 {
			return fmt.Errorf("bet: ramp[%d] must be >= 0", tc)
		}
	}
	if b.Strategy == BetFractional {
		if b.Fraction <= 0 || b.Fraction > 1 {
			return fmt.Errorf("bet: fraction must be in (0, 1]")
		}
		if b.MaxBankrollPct <= 0 || b.MaxBankrollPct > 1 {
			return fmt.Errorf("bet: max bankroll pct must be in (0, 1]")
		}
	}

	r := c.Risk
	if r.StopLossAbs < 0 || r.StopWinAbs < 0 {
		return fmt.Errorf("risk: absolute stops must be >= 0")
	}
	if r.StopLossPct < 0 || r.StopLossPct > 1 {
		return fmt.Errorf("risk: stop loss pct must be in [0, 1]")
	}
	if r.MaxDrawdownPct < 0 || r.MaxDrawdownPct > 1 {
		return fmt.Errorf("risk: max drawdown pct must be in [0, 1]")
	}
	if r.MaxConsecutiveLosses < 0 || r.MaxRounds < 0 {
		return fmt.Errorf("risk: counters must be >= 0")
	}
	if r.CooldownDuration < 0 || r.MaxSessionTime < 0 {
		return fmt.Errorf("risk: durations must be >= 0")
	}
	if r.MaxConsecutiveLosses > 0 && r.CooldownDuration == 0 {
		return fmt.Errorf("risk: loss streak trigger requires a cooldown duration")
	}

	for i, d := range c.Deviations {
		if d.DealerUp < 2 || d.DealerUp > 11 {
			return fmt.Errorf("deviation %d: dealer up %d out of range", i, d.DealerUp)
		}
		if d.Action == ActionNone {
			return fmt.Errorf("deviation %d: missing action", i)
		}
	}

	if c.InitialBankroll <= 0 {
		return fmt.Errorf("initial bankroll must be > 0")
	}
	return nil
}
