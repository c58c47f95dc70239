// replaycli 离线重放一盘会话磁带：同一盘磁带 + 同一份配置必然
// 复现同一串建议，用于事后核对与回归比对。
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"blackjack-lite/internal/codec"
	"blackjack-lite/internal/config"
	"blackjack-lite/replay"
)

func main() {
	tapePath := flag.String("tape", "", "session tape file (JSON)")
	verbose := flag.Bool("v", false, "print every advice envelope")
	flag.Parse()

	if *tapePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_, engineCfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Replay] Failed to load config: %v", err)
	}
	tape, err := replay.LoadFile(*tapePath)
	if err != nil {
		log.Fatalf("[Replay] Failed to load tape: %v", err)
	}

	report, err := replay.Run(tape, engineCfg)
	if err != nil {
		log.Fatalf("[Replay] Replay rejected: %v", err)
	}

	if *verbose {
		for _, a := range report.Advice {
			data, err := codec.EncodeAdvice(a)
			if err != nil {
				log.Fatalf("[Replay] Failed to encode advice: %v", err)
			}
			fmt.Println(string(data))
		}
	}

	final, err := json.MarshalIndent(report.Final, "", "  ")
	if err != nil {
		log.Fatalf("[Replay] Failed to encode snapshot: %v", err)
	}
	log.Printf("[Replay] Session %s: %d events, %d advice", report.SessionID, report.EventsFed, len(report.Advice))
	fmt.Println(string(final))
}
