package engine

import (
	"math"
	"testing"

	"blackjack-lite/card"
)

func countingConfig() CountingConfig {
	return CountingConfig{
		Decks:             8,
		System:            SystemHiLo,
		PlayRounding:      RoundFloor,
		BetRounding:       RoundExact,
		MinDecksRemaining: 0.5,
	}
}

func TestCounter_RunningCount(t *testing.T) {
	c := newCounter(countingConfig())
	for _, code := range []string{"2s", "3d", "4h", "5c", "6s"} {
		c.ObserveCard(card.MustParse(code))
	}
	if rc := c.RunningCount(); rc != 5 {
		t.Fatalf("running count after 2..6 = %d, want +5", rc)
	}
	if c.cardsSeen != 5 {
		t.Fatalf("cards seen = %d, want 5", c.cardsSeen)
	}

	c.ObserveCard(card.MustParse("Ks"))
	c.ObserveCard(card.MustParse("As"))
	if rc := c.RunningCount(); rc != 3 {
		t.Fatalf("running count = %d, want +3", rc)
	}
}

func TestCounter_ZenSystem(t *testing.T) {
	cfg := countingConfig()
	cfg.System = SystemZen
	c := newCounter(cfg)
	// 4 → +2, 7 → +1, K → -2
	c.ObserveCard(card.MustParse("4s"))
	c.ObserveCard(card.MustParse("7d"))
	c.ObserveCard(card.MustParse("Kh"))
	if rc := c.RunningCount(); rc != 1 {
		t.Fatalf("zen running count = %d, want +1", rc)
	}
	// Hi-Lo 并行维护
	if c.runningHiLo != 0 {
		t.Fatalf("hilo running count = %d, want 0", c.runningHiLo)
	}
}

func TestCounter_TrueCountRounding(t *testing.T) {
	// 构造 running +5、剩余 2.5 副：8 副靴见过 5.5*52 张
	cfg := countingConfig()
	c := newCounter(cfg)
	c.runningHiLo = 5
	c.cardsSeen = int(5.5 * 52)

	if dr := c.DecksRemaining(); math.Abs(dr-2.5) > 1e-9 {
		t.Fatalf("decks remaining = %v, want 2.5", dr)
	}
	// 打法 floor → 2；下注 exact → 2.0
	if tc := c.TrueCountForPlay(); tc != 2 {
		t.Fatalf("play TC = %v, want 2", tc)
	}
	if tc := c.TrueCountForBet(); math.Abs(tc-2.0) > 1e-9 {
		t.Fatalf("bet TC = %v, want 2.0", tc)
	}

	// 负数方向 floor 向下
	c.runningHiLo = -3
	if tc := c.TrueCountForPlay(); tc != -2 {
		t.Fatalf("play TC = %v, want -2 (floor of -1.2)", tc)
	}
}

func TestCounter_DecksRemainingFloor(t *testing.T) {
	c := newCounter(countingConfig())
	c.cardsSeen = 8 * 52 // 整靴发完
	if dr := c.DecksRemaining(); dr != 0.5 {
		t.Fatalf("decks remaining = %v, want floor 0.5", dr)
	}
}

func TestCounter_HoleCardNotCounted(t *testing.T) {
	c := newCounter(countingConfig())
	c.ObserveCard(card.CardHole)
	if c.cardsSeen != 0 || c.RunningCount() != 0 {
		t.Fatal("hole card must not affect the count")
	}
}

func TestCounter_ShoeReset(t *testing.T) {
	c := newCounter(countingConfig())
	c.ObserveCard(card.MustParse("5s"))
	c.snapshotPre()
	c.ResetShoe()
	if c.RunningCount() != 0 || c.cardsSeen != 0 || c.tcPre != 0 {
		t.Fatal("shoe reset must clear running state and snapshots")
	}
}

func TestCounter_Snapshots(t *testing.T) {
	c := newCounter(countingConfig())
	c.ObserveCard(card.MustParse("5s"))
	pre := c.snapshotPre()
	c.ObserveCard(card.MustParse("6s"))
	post := c.snapshotPost()

	snap := c.Snapshot()
	if snap.TCPre != pre || snap.TCPost != post {
		t.Fatalf("snapshot pre/post = %v/%v, want %v/%v", snap.TCPre, snap.TCPost, pre, post)
	}
	if snap.CardsSeen != 2 {
		t.Fatalf("snapshot cards seen = %d, want 2", snap.CardsSeen)
	}
	if snap.Penetration <= 0 {
		t.Fatal("penetration should be positive after observations")
	}
}

func TestCounter_Advantage(t *testing.T) {
	c := newCounter(countingConfig())

	// 新靴 TC 0 → (0-0.5)*0.5% = -0.25%
	if adv := c.Advantage(); math.Abs(adv-(-0.0025)) > 1e-9 {
		t.Fatalf("fresh shoe advantage = %.4f, want -0.0025", adv)
	}

	// running +8、剩余 2 副 → TC 4 → 1.75%
	c.runningHiLo = 8
	c.cardsSeen = 6 * 52
	if adv := c.Advantage(); math.Abs(adv-0.0175) > 1e-9 {
		t.Fatalf("TC 4 advantage = %.4f, want 0.0175", adv)
	}

	// 深负真数被 -2% 托底
	c.runningHiLo = -40
	if adv := c.Advantage(); adv != -0.02 {
		t.Fatalf("advantage floor = %.4f, want -0.02", adv)
	}
}
