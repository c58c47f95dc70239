package engine

import "blackjack-lite/card"

// Hand 一手牌。总点数永远由完整牌序重算，不做增量修补，
// 避免软/硬 A 漂移。
type Hand struct {
	Cards card.CardList
}

func NewHand(cards ...card.Card) *Hand {
	h := &Hand{}
	h.Cards.Init(cards)
	return h
}

func (h *Hand) Add(c card.Card) {
	h.Cards.Add(c)
}

func (h *Hand) Len() int { return h.Cards.Count() }

// evaluate 重算总值：A 先按 11，爆则逐个降为 1。
// 返回 (总值, 是否仍有 A 按 11 计)。
func (h *Hand) evaluate() (int, bool) {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		if c == card.CardHole {
			continue
		}
		total += c.HardValue()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0 && total <= 21
}

func (h *Hand) Value() int {
	v, _ := h.evaluate()
	return v
}

func (h *Hand) IsSoft() bool {
	_, soft := h.evaluate()
	return soft
}

func (h *Hand) IsBlackjack() bool {
	return h.Cards.Count() == 2 && h.Value() == 21
}

func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// IsPair 前两张同点（按计牌点数：T/J/Q/K 互为对子）。
func (h *Hand) IsPair() bool {
	if h.Cards.Count() != 2 {
		return false
	}
	return h.Cards[0].HardValue() == h.Cards[1].HardValue()
}

func (h *Hand) String() string {
	out := ""
	for i, c := range h.Cards {
		if i > 0 {
			out += " "
		}
		out += c.String()
	}
	return out
}
