package engine

import (
	"testing"

	"blackjack-lite/card"
)

func TestHand_SoftAceAdjustment(t *testing.T) {
	// A,6 = soft 17
	h := NewHand(card.MustParse("As"), card.MustParse("6d"))
	if v := h.Value(); v != 17 {
		t.Fatalf("A,6 value = %d, want 17", v)
	}
	if !h.IsSoft() {
		t.Fatal("A,6 should be soft")
	}

	// A,6,K = hard 17：A 降为 1
	h.Add(card.MustParse("Kh"))
	if v := h.Value(); v != 17 {
		t.Fatalf("A,6,K value = %d, want 17", v)
	}
	if h.IsSoft() {
		t.Fatal("A,6,K should be hard")
	}
}

func TestHand_MultipleAces(t *testing.T) {
	h := NewHand(card.MustParse("As"), card.MustParse("Ah"))
	if v := h.Value(); v != 12 {
		t.Fatalf("A,A value = %d, want 12", v)
	}
	if !h.IsSoft() {
		t.Fatal("A,A should be soft")
	}
	h.Add(card.MustParse("9c"))
	if v := h.Value(); v != 21 {
		t.Fatalf("A,A,9 value = %d, want 21", v)
	}
}

func TestHand_Blackjack(t *testing.T) {
	h := NewHand(card.MustParse("As"), card.MustParse("Kd"))
	if !h.IsBlackjack() {
		t.Fatal("A,K should be blackjack")
	}
	// 三张凑 21 不是天生 BJ
	h = NewHand(card.MustParse("7s"), card.MustParse("7d"), card.MustParse("7c"))
	if h.Value() != 21 || h.IsBlackjack() {
		t.Fatalf("7,7,7 value=%d blackjack=%v, want 21/false", h.Value(), h.IsBlackjack())
	}
}

func TestHand_Bust(t *testing.T) {
	h := NewHand(card.MustParse("Ks"), card.MustParse("Qd"), card.MustParse("5c"))
	if !h.IsBust() {
		t.Fatalf("K,Q,5 value = %d, should bust", h.Value())
	}
}

func TestHand_Pair(t *testing.T) {
	if !NewHand(card.MustParse("8s"), card.MustParse("8d")).IsPair() {
		t.Fatal("8,8 should be a pair")
	}
	// T/J/Q/K 按十点互为对子
	if !NewHand(card.MustParse("Ts"), card.MustParse("Kd")).IsPair() {
		t.Fatal("T,K should pair by value")
	}
	if NewHand(card.MustParse("8s"), card.MustParse("9d")).IsPair() {
		t.Fatal("8,9 is not a pair")
	}
}

func TestHand_HoleCardIgnored(t *testing.T) {
	h := NewHand(card.MustParse("Ts"), card.CardHole)
	if v := h.Value(); v != 10 {
		t.Fatalf("T + hole value = %d, want 10", v)
	}
}
