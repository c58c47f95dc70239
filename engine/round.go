package engine

import (
	"time"

	"blackjack-lite/card"
)

// Round 一个完整发牌周期。活动 Round 由 Engine 独占持有。
type Round struct {
	ID        string
	StartedAt time.Time

	// 分牌后会有多手；索引 0 是主手。
	PlayerHands []*Hand
	Dealer      *Hand

	Phase Phase

	Doubled        bool
	Split          bool
	InsuranceTaken bool
	Surrendered    bool

	Outcome  Outcome
	Amount   float64
	Abnormal bool
	EndedAt  time.Time
}

func newRound(id string, at time.Time) *Round {
	return &Round{
		ID:          id,
		StartedAt:   at,
		PlayerHands: []*Hand{NewHand()},
		Dealer:      NewHand(),
		Phase:       PhaseBetsOpen,
	}
}

// PrimaryHand 主手牌。
func (r *Round) PrimaryHand() *Hand {
	return r.PlayerHands[0]
}

// DealerUp 庄家明牌（第一张非牌背）。
func (r *Round) DealerUp() card.Card {
	for _, c := range r.Dealer.Cards {
		if c != card.CardHole {
			return c
		}
	}
	return card.CardInvalid
}

func (r *Round) addPlayerCard(c card.Card) {
	r.PrimaryHand().Add(c)
}

func (r *Round) addDealerCard(c card.Card) {
	r.Dealer.Add(c)
}

// forceClose 标记残局：未走到终态就被新一局顶掉。
func (r *Round) forceClose(at time.Time) {
	r.Phase = PhasePayouts
	r.Outcome = OutcomeAbnormal
	r.Abnormal = true
	r.EndedAt = at
}

func (r *Round) close(outcome Outcome, amount float64, at time.Time) {
	r.Phase = PhasePayouts
	r.Outcome = outcome
	r.Amount = amount
	r.EndedAt = at
}
