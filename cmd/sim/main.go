// sim 用可复现的随机牌靴跑一整段会话，输出磁带与终态快照。
// 磁带可直接交给 replaycli 复核。
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"blackjack-lite/internal/config"
	"blackjack-lite/sim"
)

func main() {
	seed := flag.Int64("seed", 1, "shoe RNG seed")
	rounds := flag.Int("rounds", 100, "rounds to play")
	seats := flag.Int("seats", 2, "other seats at the table")
	tapePath := flag.String("tape", "", "write the session tape to this file")
	flag.Parse()

	_, engineCfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Sim] Failed to load config: %v", err)
	}

	opts := sim.DefaultOptions()
	opts.Seed = *seed
	opts.Rounds = *rounds
	opts.OtherSeats = *seats
	opts.Config = engineCfg

	res, err := sim.Run(opts)
	if err != nil {
		log.Fatalf("[Sim] Run failed: %v", err)
	}

	if *tapePath != "" {
		data, err := json.MarshalIndent(res.Tape, "", "  ")
		if err != nil {
			log.Fatalf("[Sim] Failed to encode tape: %v", err)
		}
		if err := os.WriteFile(*tapePath, data, 0o644); err != nil {
			log.Fatalf("[Sim] Failed to write tape: %v", err)
		}
		log.Printf("[Sim] Tape written to %s (%d events)", *tapePath, len(res.Tape.Events))
	}

	log.Printf("[Sim] Session %s: %d rounds, halted=%v", res.SessionID, res.RoundsPlayed, res.Halted)
	final, err := json.MarshalIndent(res.Final, "", "  ")
	if err != nil {
		log.Fatalf("[Sim] Failed to encode snapshot: %v", err)
	}
	os.Stdout.Write(append(final, '\n'))
}
