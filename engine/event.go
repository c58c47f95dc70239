package engine

import (
	"time"

	"blackjack-lite/card"
)

// Event 入站事件，已由 codec 层从开放 payload 解析为闭合结构。
// 字段是否有效取决于 Kind。
type Event struct {
	At      time.Time
	Kind    EventKind
	RoundID string

	// EventCardShared / EventCardDealt
	Card card.Card
	Seat Seat

	// EventStateText
	PhaseText string

	// EventRoundEnd（Outcome+Amount）/ EventBankroll（Amount 为绝对余额）
	Outcome Outcome
	Amount  float64
}

// AdviceKind 出站通告类型。
type AdviceKind byte

const (
	AdvicePlay        AdviceKind = 0
	AdviceBet         AdviceKind = 1
	AdviceRiskAlert   AdviceKind = 2
	AdviceStateUpdate AdviceKind = 3
)

var AdviceKindDictionary = map[AdviceKind]string{
	AdvicePlay:        "PLAY_ADVICE",
	AdviceBet:         "BET_ADVICE_NEXT_ROUND",
	AdviceRiskAlert:   "RISK_ALERT",
	AdviceStateUpdate: "STATE_UPDATE",
}

func (k AdviceKind) String() string { return AdviceKindDictionary[k] }

// Advice 不可变输出值：打法或下注建议，连同产生它的快照，便于审计。
type Advice struct {
	Kind    AdviceKind
	RoundID string
	At      time.Time

	// AdvicePlay
	Action Action
	Hand   HandView

	// AdviceBet
	Amount float64
	Units  float64
	SitOut bool

	// AdviceRiskAlert
	ReasonCode string

	// 公共
	Reason string
	Phase  Phase
	Count  CountSnapshot
	Risk   RiskSnapshot
}

// HandView 建议所附的手牌快照。
type HandView struct {
	Cards       []string
	Value       int
	Soft        bool
	Blackjack   bool
	Bust        bool
	DealerUp    string
	DealerValue int
}

func newHandView(h *Hand, dealerUp card.Card) HandView {
	v := HandView{
		Value:     h.Value(),
		Soft:      h.IsSoft(),
		Blackjack: h.IsBlackjack(),
		Bust:      h.IsBust(),
	}
	v.Cards = h.Cards.Codes()
	if dealerUp != card.CardInvalid {
		v.DealerUp = dealerUp.String()
		v.DealerValue = dealerUp.HardValue()
	}
	return v
}
