package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"blackjack-lite/internal/auth"
	"blackjack-lite/internal/ledger"
)

type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	SessionToken string `json:"session_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPHandler serves the non-WebSocket surface: login, health,
// session status and tape download.
type HTTPHandler struct {
	guard   *auth.Guard
	gateway *Gateway
	ledger  ledger.Service
}

func NewHTTPHandler(guard *auth.Guard, gw *Gateway, ledgerService ledger.Service) *HTTPHandler {
	return &HTTPHandler{guard: guard, gateway: gw, ledger: ledgerService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/health", h.handleHealth)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/tape", h.handleTape)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/ws", h.gateway.HandleWebSocket)
}

func (h *HTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.guard.Login(req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid operator token")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{SessionToken: token})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.gateway.session.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"session_id": snap.SessionID,
		"phase":      snap.PhaseText,
		"halted":     h.gateway.session.Halted(),
	})
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, h.gateway.session.Snapshot())
}

func (h *HTTPHandler) handleTape(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, h.gateway.session.Tape())
}

func (h *HTTPHandler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	items, err := h.ledger.ListRecentSessions(r.Context(), 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ledger query failed")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) authorized(r *http.Request) bool {
	return h.guard.Resolve(bearerToken(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
