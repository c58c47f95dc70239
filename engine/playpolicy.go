package engine

import "blackjack-lite/card"

// 基础策略表以动作码存储，列序固定为庄家明牌 2..9,T,A。
type actionCode byte

const (
	codeHit       actionCode = 'H'
	codeStand     actionCode = 'S'
	codeDouble    actionCode = 'D'
	codeSplit     actionCode = 'P'
	codeSurrender actionCode = 'R'
)

// H17 / DAS / 8 副的硬牌表。
var hardTable = map[int][10]actionCode{
	//      2    3    4    5    6    7    8    9    T    A
	5:  {'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H'},
	6:  {'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H'},
	7:  {'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H'},
	8:  {'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H', 'H'},
	9:  {'H', 'D', 'D', 'D', 'D', 'H', 'H', 'H', 'H', 'H'},
	10: {'D', 'D', 'D', 'D', 'D', 'D', 'D', 'D', 'H', 'H'},
	11: {'D', 'D', 'D', 'D', 'D', 'D', 'D', 'D', 'D', 'H'},
	12: {'H', 'H', 'S', 'S', 'S', 'H', 'H', 'H', 'H', 'H'},
	13: {'S', 'S', 'S', 'S', 'S', 'H', 'H', 'H', 'H', 'H'},
	14: {'S', 'S', 'S', 'S', 'S', 'H', 'H', 'H', 'H', 'H'},
	15: {'S', 'S', 'S', 'S', 'S', 'H', 'H', 'H', 'R', 'H'},
	16: {'S', 'S', 'S', 'S', 'S', 'H', 'H', 'R', 'R', 'R'},
	17: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
	18: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
	19: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
	20: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
	21: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
}

// 软牌表，键为总点数（A 按 11）。
var softTable = map[int][10]actionCode{
	//      2    3    4    5    6    7    8    9    T    A
	13: {'H', 'H', 'H', 'D', 'D', 'H', 'H', 'H', 'H', 'H'},
	14: {'H', 'H', 'H', 'D', 'D', 'H', 'H', 'H', 'H', 'H'},
	15: {'H', 'H', 'D', 'D', 'D', 'H', 'H', 'H', 'H', 'H'},
	16: {'H', 'H', 'D', 'D', 'D', 'H', 'H', 'H', 'H', 'H'},
	17: {'H', 'D', 'D', 'D', 'D', 'H', 'H', 'H', 'H', 'H'},
	18: {'S', 'D', 'D', 'D', 'D', 'S', 'S', 'H', 'H', 'H'},
	19: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
	20: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
	21: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
}

// 对子表，键为单张计牌点数（A=11, T/J/Q/K=10）。
var pairTable = map[int][10]actionCode{
	//      2    3    4    5    6    7    8    9    T    A
	11: {'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P'},
	10: {'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S', 'S'},
	9:  {'P', 'P', 'P', 'P', 'P', 'S', 'P', 'P', 'S', 'S'},
	8:  {'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P'},
	7:  {'P', 'P', 'P', 'P', 'P', 'P', 'H', 'H', 'H', 'H'},
	6:  {'P', 'P', 'P', 'P', 'P', 'H', 'H', 'H', 'H', 'H'},
	5:  {'D', 'D', 'D', 'D', 'D', 'D', 'D', 'D', 'H', 'H'},
	4:  {'H', 'H', 'H', 'P', 'P', 'H', 'H', 'H', 'H', 'H'},
	3:  {'P', 'P', 'P', 'P', 'P', 'P', 'H', 'H', 'H', 'H'},
	2:  {'P', 'P', 'P', 'P', 'P', 'P', 'H', 'H', 'H', 'H'},
}

// Deviation 指数打法：真数越过阈值时覆盖基础策略。
// 阈值判定统一用 ≥（Below 为真时用 ≤），边界歧义在此一刀切。
type Deviation struct {
	HandValue int     `json:"hand_value"`
	Soft      bool    `json:"soft"`
	DealerUp  int     `json:"dealer_up"` // 2-11，11 为 A
	Threshold float64 `json:"threshold"`
	Below     bool    `json:"below"` // true: TC ≤ 阈值触发
	Action    Action  `json:"-"`
	ActionStr string  `json:"action"`
}

// DefaultDeviations 常用指数（含保险线）。
func DefaultDeviations() []Deviation {
	return []Deviation{
		{HandValue: 16, DealerUp: 10, Threshold: 0, Action: ActionStand},
		{HandValue: 15, DealerUp: 10, Threshold: 4, Action: ActionStand},
		{HandValue: 12, DealerUp: 2, Threshold: 3, Action: ActionStand},
		{HandValue: 12, DealerUp: 3, Threshold: 2, Action: ActionStand},
		{HandValue: 12, DealerUp: 4, Threshold: 0, Action: ActionStand},
		{HandValue: 10, DealerUp: 10, Threshold: 4, Action: ActionDouble},
		{HandValue: 10, DealerUp: 11, Threshold: 4, Action: ActionDouble},
		{HandValue: 11, DealerUp: 11, Threshold: 1, Action: ActionDouble},
		{HandValue: 9, DealerUp: 2, Threshold: 1, Action: ActionDouble},
		{HandValue: 9, DealerUp: 7, Threshold: 3, Action: ActionDouble},
		{HandValue: 13, DealerUp: 2, Threshold: -1, Below: true, Action: ActionHit},
		{HandValue: 13, DealerUp: 3, Threshold: -2, Below: true, Action: ActionHit},
		{HandValue: 12, DealerUp: 4, Threshold: 0, Below: true, Action: ActionHit},
	}
}

// 保险指数：庄家 A 且 TC ≥ 3 时买保险。
const insuranceIndex = 3.0

// PlayPolicy 纯函数决策器：同样输入必须给出同样动作。
type PlayPolicy struct {
	rules      RulesConfig
	actions    ActionFlags
	deviations []Deviation
}

func newPlayPolicy(rules RulesConfig, actions ActionFlags, deviations []Deviation) *PlayPolicy {
	return &PlayPolicy{rules: rules, actions: actions, deviations: deviations}
}

// Recommend 先查指数表，再落基础策略，最后按开关做结构化降级。
func (p *PlayPolicy) Recommend(hand *Hand, dealerUp card.Card, tc float64) (Action, string) {
	return p.recommend(hand, dealerUp, tc, true)
}

// RecommendAfterInsurance 保险已买后的后续打法询问。
func (p *PlayPolicy) RecommendAfterInsurance(hand *Hand, dealerUp card.Card, tc float64) (Action, string) {
	return p.recommend(hand, dealerUp, tc, false)
}

func (p *PlayPolicy) recommend(hand *Hand, dealerUp card.Card, tc float64, allowInsurance bool) (Action, string) {
	if hand.Len() == 0 || dealerUp == card.CardInvalid {
		return ActionNone, "no hand"
	}
	if hand.IsBust() {
		return ActionStand, "bust"
	}

	upIdx := dealerIndex(dealerUp)
	upValue := dealerValue(dealerUp)
	canDouble := p.actions.Double && hand.Len() == 2
	canSplit := p.actions.Split && hand.IsPair()
	canSurrender := p.actions.Surrender && p.rules.SurrenderAllowed && hand.Len() == 2

	// 保险先于打法：仅庄家 A 且允许保险。
	if allowInsurance && p.actions.Insurance && p.rules.InsuranceAllowed && dealerUp.IsAce() && hand.Len() == 2 && tc >= insuranceIndex {
		return ActionInsurance, "index play (insurance)"
	}

	// 指数覆盖。对子归对子表管，不吃硬牌指数。
	if dev, ok := p.matchDeviation(hand.Value(), hand.IsSoft(), upValue, tc); ok && !canSplit {
		act := dev.Action
		if act == ActionDouble && !canDouble {
			act = ActionHit
		}
		return act, "index play"
	}

	// 基础策略。
	var code actionCode
	switch {
	case canSplit:
		pv := hand.Cards[0].HardValue()
		row, ok := pairTable[pv]
		if !ok {
			row = hardTable[clampInt(hand.Value(), 5, 21)]
		}
		code = row[upIdx]
	case hand.IsSoft():
		code = softTable[clampInt(hand.Value(), 13, 21)][upIdx]
	default:
		code = hardTable[clampInt(hand.Value(), 5, 21)][upIdx]
	}

	switch code {
	case codeHit:
		return ActionHit, "basic strategy"
	case codeStand:
		return ActionStand, "basic strategy"
	case codeDouble:
		if canDouble {
			return ActionDouble, "basic strategy"
		}
		return ActionHit, "basic strategy (D→H)"
	case codeSplit:
		if canSplit {
			return ActionSplit, "basic strategy"
		}
		return ActionHit, "basic strategy (P→H)"
	case codeSurrender:
		if canSurrender {
			return ActionSurrender, "basic strategy"
		}
		// 降级走同一行去掉投降后的硬牌策略：16 类统一要牌，其余站住。
		if hand.Value() <= 16 {
			return ActionHit, "basic strategy (R→H)"
		}
		return ActionStand, "basic strategy (R→S)"
	}
	return ActionStand, "default"
}

func (p *PlayPolicy) matchDeviation(handValue int, soft bool, dealerUp int, tc float64) (Deviation, bool) {
	for _, d := range p.deviations {
		if d.HandValue != handValue || d.Soft != soft || d.DealerUp != dealerUp {
			continue
		}
		if d.Below {
			if tc <= d.Threshold {
				return d, true
			}
		} else if tc >= d.Threshold {
			return d, true
		}
	}
	return Deviation{}, false
}

// dealerIndex 明牌到表列: 2-9 → 0-7, 十值 → 8, A → 9。
func dealerIndex(up card.Card) int {
	if up.IsAce() {
		return 9
	}
	if up.IsTenValue() {
		return 8
	}
	return int(up.Rank()) - 2
}

func dealerValue(up card.Card) int {
	return up.HardValue()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
