package main

import (
	"log"
	"net/http"

	"blackjack-lite/internal/auth"
	"blackjack-lite/internal/config"
	"blackjack-lite/internal/gateway"
	"blackjack-lite/internal/ledger"
	"blackjack-lite/internal/session"
)

func main() {
	serverCfg, engineCfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	guard, err := auth.NewGuardFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init operator guard: %v", err)
	}
	ledgerService, ledgerMode, err := ledger.NewServiceFromEnv(serverCfg.LedgerMode)
	if err != nil {
		log.Fatalf("[Server] Failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	// session 的广播经 gateway 扇出，二者互相持有，闭包解环
	var gw *gateway.Gateway
	sess, err := session.New("", engineCfg, ledgerService, func(data []byte) {
		if gw != nil {
			gw.Broadcast(data)
		}
	})
	if err != nil {
		log.Fatalf("[Server] Failed to start session: %v", err)
	}
	defer sess.Close()
	gw = gateway.New(guard, sess)

	mux := http.NewServeMux()
	gateway.NewHTTPHandler(guard, gw, ledgerService).RegisterRoutes(mux)

	log.Printf("[Server] Ledger mode: %s", ledgerMode)
	log.Printf("[Server] Session: %s", sess.ID)
	log.Printf("[Server] Starting WebSocket server on %s", serverCfg.ListenAddr)
	if err := http.ListenAndServe(serverCfg.ListenAddr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
