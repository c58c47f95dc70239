package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"blackjack-lite/engine"
)

func baseServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:       ":8080",
		LedgerMode:       "memory",
		Decks:            8,
		DealerHitsSoft17: true,
		BlackjackPayout:  1.5,
		CountSystem:      "hilo",
		PlayRounding:     "floor",
		BetRounding:      "exact",
		BetStrategy:      "ramp",
		UnitValue:        25,
		TableMin:         25,
		TableMax:         1000,
		WongOut:          -1,
		InitialBankroll:  10000,
		StopLossAbs:      1000,
		StopWinAbs:       2000,
		MaxLossStreak:    5,
		Cooldown:         time.Minute,
	}
}

func TestBuildEngineConfig_Defaults(t *testing.T) {
	sc := baseServerConfig()
	cfg, err := sc.BuildEngineConfig()
	if err != nil {
		t.Fatalf("BuildEngineConfig: %v", err)
	}
	if cfg.Counting.System != engine.SystemHiLo {
		t.Fatalf("system = %s", cfg.Counting.System)
	}
	if cfg.Counting.PlayRounding != engine.RoundFloor || cfg.Counting.BetRounding != engine.RoundExact {
		t.Fatalf("rounding = %s/%s", cfg.Counting.PlayRounding, cfg.Counting.BetRounding)
	}
	if len(cfg.Deviations) == 0 {
		t.Fatal("defaults must include deviation indices")
	}
}

func TestBuildEngineConfig_RejectsBadKnobs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"bad system", func(sc *ServerConfig) { sc.CountSystem = "omega2" }},
		{"bad rounding", func(sc *ServerConfig) { sc.PlayRounding = "truncate" }},
		{"bad strategy", func(sc *ServerConfig) { sc.BetStrategy = "martingale" }},
		{"zero bankroll", func(sc *ServerConfig) { sc.InitialBankroll = 0 }},
	}
	for _, tc := range cases {
		sc := baseServerConfig()
		tc.mutate(&sc)
		if _, err := sc.BuildEngineConfig(); err == nil {
			t.Fatalf("%s: want error", tc.name)
		}
	}
}

func TestBuildEngineConfig_TablesFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.json")
	blob := `{
  "ramp": {"-1": 1, "0": 1, "1": 3, "2": 5},
  "deviations": [
    {"hand_value": 16, "dealer_up": 10, "threshold": 0, "action": "STAND"},
    {"hand_value": 13, "dealer_up": 2, "threshold": -1, "below": true, "action": "HIT"}
  ]
}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatalf("write tables file: %v", err)
	}

	sc := baseServerConfig()
	sc.TablesPath = path
	cfg, err := sc.BuildEngineConfig()
	if err != nil {
		t.Fatalf("BuildEngineConfig: %v", err)
	}

	if cfg.Bet.Ramp[1] != 3 || cfg.Bet.Ramp[2] != 5 {
		t.Fatalf("ramp = %+v", cfg.Bet.Ramp)
	}
	if len(cfg.Deviations) != 2 {
		t.Fatalf("deviations = %d, want 2", len(cfg.Deviations))
	}
	if cfg.Deviations[0].Action != engine.ActionStand {
		t.Fatalf("action = %s", cfg.Deviations[0].Action)
	}
	if !cfg.Deviations[1].Below || cfg.Deviations[1].Action != engine.ActionHit {
		t.Fatalf("deviation = %+v", cfg.Deviations[1])
	}
}

func TestBuildEngineConfig_RejectsBadTablesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.json")
	blob := `{"deviations": [{"hand_value": 16, "dealer_up": 10, "threshold": 0, "action": "YOLO"}]}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatalf("write tables file: %v", err)
	}

	sc := baseServerConfig()
	sc.TablesPath = path
	if _, err := sc.BuildEngineConfig(); err == nil {
		t.Fatal("unknown action must be rejected")
	}
}
