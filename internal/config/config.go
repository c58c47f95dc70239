// Package config assembles the engine configuration from environment
// variables and an optional strategy tables file. Env covers deployment
// knobs; the tables file carries ramp and deviation overrides that
// operators tune between sessions.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"blackjack-lite/engine"
)

// ServerConfig deployment knobs, parsed from the environment.
type ServerConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LedgerMode string `env:"LEDGER_MODE" envDefault:"memory"`
	TablesPath string `env:"TABLES_PATH"`

	Decks            int     `env:"TABLE_DECKS" envDefault:"8"`
	DealerHitsSoft17 bool    `env:"DEALER_HITS_SOFT17" envDefault:"true"`
	SurrenderAllowed bool    `env:"SURRENDER_ALLOWED" envDefault:"false"`
	BlackjackPayout  float64 `env:"BLACKJACK_PAYOUT" envDefault:"1.5"`

	CountSystem  string `env:"COUNT_SYSTEM" envDefault:"hilo"`
	PlayRounding string `env:"PLAY_ROUNDING" envDefault:"floor"`
	BetRounding  string `env:"BET_ROUNDING" envDefault:"exact"`

	BetStrategy string  `env:"BET_STRATEGY" envDefault:"ramp"`
	UnitValue   float64 `env:"BET_UNIT" envDefault:"25"`
	TableMin    float64 `env:"TABLE_MIN" envDefault:"25"`
	TableMax    float64 `env:"TABLE_MAX" envDefault:"1000"`
	WongOut     float64 `env:"WONG_OUT_TC" envDefault:"-1"`

	InitialBankroll float64       `env:"INITIAL_BANKROLL" envDefault:"10000"`
	StopLossAbs     float64       `env:"STOP_LOSS_ABS" envDefault:"1000"`
	StopWinAbs      float64       `env:"STOP_WIN_ABS" envDefault:"2000"`
	MaxLossStreak   int           `env:"MAX_LOSS_STREAK" envDefault:"5"`
	Cooldown        time.Duration `env:"COOLDOWN" envDefault:"1m"`
	MaxRounds       int           `env:"MAX_ROUNDS" envDefault:"0"`
	MaxSessionTime  time.Duration `env:"MAX_SESSION_TIME" envDefault:"0"`
}

// TablesFile optional strategy overrides loaded from TABLES_PATH.
// Ramp keys are true-count buckets as strings ("-1", "0", ...).
type TablesFile struct {
	Ramp       map[string]float64 `json:"ramp,omitempty"`
	Deviations []engine.Deviation `json:"deviations,omitempty"`
}

// Load parses the environment (after a best-effort .env load) and
// builds the full engine configuration.
func Load() (*ServerConfig, engine.Config, error) {
	_ = godotenv.Load()

	var sc ServerConfig
	if err := env.Parse(&sc); err != nil {
		return nil, engine.Config{}, fmt.Errorf("parse env: %w", err)
	}
	ec, err := sc.BuildEngineConfig()
	if err != nil {
		return nil, engine.Config{}, err
	}
	return &sc, ec, nil
}

// BuildEngineConfig starts from engine defaults and applies the knobs.
func (sc *ServerConfig) BuildEngineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()

	cfg.Rules.Decks = sc.Decks
	cfg.Rules.DealerHitsSoft17 = sc.DealerHitsSoft17
	cfg.Rules.SurrenderAllowed = sc.SurrenderAllowed
	cfg.Rules.BlackjackPayout = sc.BlackjackPayout
	cfg.Actions.Surrender = sc.SurrenderAllowed
	cfg.Counting.Decks = sc.Decks

	system, ok := engine.ParseCountSystem(sc.CountSystem)
	if !ok {
		return engine.Config{}, fmt.Errorf("unknown count system %q", sc.CountSystem)
	}
	cfg.Counting.System = system

	playRounding, ok := engine.ParseRounding(sc.PlayRounding)
	if !ok {
		return engine.Config{}, fmt.Errorf("unknown play rounding %q", sc.PlayRounding)
	}
	cfg.Counting.PlayRounding = playRounding

	betRounding, ok := engine.ParseRounding(sc.BetRounding)
	if !ok {
		return engine.Config{}, fmt.Errorf("unknown bet rounding %q", sc.BetRounding)
	}
	cfg.Counting.BetRounding = betRounding

	strategy, ok := engine.ParseBetStrategy(sc.BetStrategy)
	if !ok {
		return engine.Config{}, fmt.Errorf("unknown bet strategy %q", sc.BetStrategy)
	}
	cfg.Bet.Strategy = strategy
	cfg.Bet.UnitValue = sc.UnitValue
	cfg.Bet.TableMin = sc.TableMin
	cfg.Bet.TableMax = sc.TableMax
	cfg.Bet.WongOut = sc.WongOut

	cfg.InitialBankroll = sc.InitialBankroll
	cfg.Risk.StopLossAbs = sc.StopLossAbs
	cfg.Risk.StopWinAbs = sc.StopWinAbs
	cfg.Risk.MaxConsecutiveLosses = sc.MaxLossStreak
	cfg.Risk.CooldownDuration = sc.Cooldown
	cfg.Risk.MaxRounds = sc.MaxRounds
	cfg.Risk.MaxSessionTime = sc.MaxSessionTime

	if sc.TablesPath != "" {
		if err := applyTablesFile(&cfg, sc.TablesPath); err != nil {
			return engine.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func applyTablesFile(cfg *engine.Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tables file: %w", err)
	}
	var tf TablesFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return fmt.Errorf("parse tables file %s: %w", path, err)
	}

	if len(tf.Ramp) > 0 {
		ramp := make(map[int]float64, len(tf.Ramp))
		for key, units := range tf.Ramp {
			var bucket int
			if _, err := fmt.Sscanf(key, "%d", &bucket); err != nil {
				return fmt.Errorf("tables file: bad ramp bucket %q", key)
			}
			ramp[bucket] = units
		}
		cfg.Bet.Ramp = ramp
	}

	if len(tf.Deviations) > 0 {
		for i := range tf.Deviations {
			action, ok := parseAction(tf.Deviations[i].ActionStr)
			if !ok {
				return fmt.Errorf("tables file: deviation %d has unknown action %q", i, tf.Deviations[i].ActionStr)
			}
			tf.Deviations[i].Action = action
		}
		cfg.Deviations = tf.Deviations
	}
	return nil
}

func parseAction(s string) (engine.Action, bool) {
	for action, name := range engine.ActionDictionary {
		if name == s {
			return action, action != engine.ActionNone
		}
	}
	return engine.ActionNone, false
}
