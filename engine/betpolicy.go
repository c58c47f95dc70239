package engine

import (
	"fmt"
	"math"
	"sort"
)

// BetStrategy 注码策略类型。
type BetStrategy byte

const (
	BetRamp       BetStrategy = 0
	BetFractional BetStrategy = 1
)

var BetStrategyDictionary = map[BetStrategy]string{
	BetRamp:       "ramp",
	BetFractional: "fractional",
}

func (s BetStrategy) String() string { return BetStrategyDictionary[s] }

func ParseBetStrategy(s string) (BetStrategy, bool) {
	switch s {
	case "ramp":
		return BetRamp, true
	case "fractional", "kelly":
		return BetFractional, true
	}
	return BetRamp, false
}

// BetSuggestion 注码建议。
type BetSuggestion struct {
	Amount    float64
	Units     float64
	SitOut    bool
	Rationale string
}

// BetPolicy 真数（与资金）到注码。所有返回额已夹在台限内并按最小
// 加注步进取整；真数低于 wong-out 线一律返回 0（离场）。
type BetPolicy struct {
	cfg BetConfig

	// ramp 的整数桶键排序缓存，查不到的桶夹到最近的已定义桶。
	rampKeys []int
}

func newBetPolicy(cfg BetConfig) *BetPolicy {
	p := &BetPolicy{cfg: cfg}
	for k := range cfg.Ramp {
		p.rampKeys = append(p.rampKeys, k)
	}
	sort.Ints(p.rampKeys)
	return p
}

// Recommend edge 是计数引擎给出的优势估计（fractional 策略的输入），
// riskFactor 来自风控（1.0 正常，0.5 警戒减注）。
func (p *BetPolicy) Recommend(tc float64, edge float64, bankroll float64, riskFactor float64) BetSuggestion {
	if tc < p.cfg.WongOut {
		return BetSuggestion{SitOut: true, Rationale: fmt.Sprintf("wong-out: TC %.2f < %.2f", tc, p.cfg.WongOut)}
	}

	var units float64
	var rationale string
	switch p.cfg.Strategy {
	case BetFractional:
		units, rationale = p.fractionalUnits(edge, bankroll)
	default:
		units, rationale = p.rampUnits(tc)
	}

	units *= riskFactor
	if units <= 0 {
		return BetSuggestion{SitOut: true, Rationale: rationale}
	}

	amount := units * p.cfg.UnitValue

	// 资金占比顶棚。
	if p.cfg.MaxBankrollPct > 0 {
		amount = math.Min(amount, bankroll*p.cfg.MaxBankrollPct)
	}

	// 台限与步进。
	amount = math.Min(amount, p.cfg.TableMax)
	amount = math.Floor(amount/p.cfg.Increment) * p.cfg.Increment
	if amount < p.cfg.TableMin {
		amount = p.cfg.TableMin
	}

	return BetSuggestion{
		Amount:    amount,
		Units:     amount / p.cfg.UnitValue,
		Rationale: rationale,
	}
}

func (p *BetPolicy) rampUnits(tc float64) (float64, string) {
	bucket := int(math.Floor(tc))
	if len(p.rampKeys) > 0 {
		if bucket < p.rampKeys[0] {
			bucket = p.rampKeys[0]
		}
		if bucket > p.rampKeys[len(p.rampKeys)-1] {
			bucket = p.rampKeys[len(p.rampKeys)-1]
		}
	}
	units, ok := p.cfg.Ramp[bucket]
	if !ok {
		// 配置缺桶：夹到最近的已定义桶，绝不让一手牌失败。
		nearest := p.rampKeys[0]
		for _, k := range p.rampKeys {
			if absInt(k-bucket) < absInt(nearest-bucket) {
				nearest = k
			}
		}
		units = p.cfg.Ramp[nearest]
	}
	return units, fmt.Sprintf("ramp: TC %.2f → bucket %d → %.1f units", tc, bucket, units)
}

func (p *BetPolicy) fractionalUnits(edge float64, bankroll float64) (float64, string) {
	if edge < p.cfg.MinEdge {
		// 优势不足：保持台面最低注维持座位。
		return p.cfg.TableMin / p.cfg.UnitValue, fmt.Sprintf("fractional: edge %.4f < %.4f, table min", edge, p.cfg.MinEdge)
	}
	bet := bankroll * p.cfg.Fraction * edge
	units := bet / p.cfg.UnitValue
	return units, fmt.Sprintf("fractional: edge %.4f → %.1f units", edge, units)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
