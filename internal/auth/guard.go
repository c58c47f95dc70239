// Package auth guards the gateway with a single operator token.
// The perception client and any observer dashboards authenticate with
// the same shared token and get short-lived session tokens back.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 12 * time.Hour
	tokenBytes        = 32
)

var (
	ErrInvalidToken  = errors.New("invalid operator token")
	ErrNotConfigured = errors.New("operator token not configured")
)

// Guard verifies the operator token and manages issued sessions.
type Guard struct {
	mu sync.Mutex

	tokenHash  []byte
	sessionTTL time.Duration
	sessions   map[string]time.Time // token -> expiry
}

// NewGuardFromEnv reads OPERATOR_TOKEN_HASH (bcrypt) or, for local runs,
// OPERATOR_TOKEN in plaintext which is hashed at startup.
func NewGuardFromEnv() (*Guard, error) {
	if hash := strings.TrimSpace(os.Getenv("OPERATOR_TOKEN_HASH")); hash != "" {
		return NewGuard([]byte(hash))
	}
	if plain := strings.TrimSpace(os.Getenv("OPERATOR_TOKEN")); plain != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		return NewGuard(hash)
	}
	return nil, ErrNotConfigured
}

func NewGuard(tokenHash []byte) (*Guard, error) {
	if len(tokenHash) == 0 {
		return nil, ErrNotConfigured
	}
	return &Guard{
		tokenHash:  tokenHash,
		sessionTTL: defaultSessionTTL,
		sessions:   make(map[string]time.Time),
	}, nil
}

// Login exchanges the operator token for a session token.
func (g *Guard) Login(operatorToken string) (string, error) {
	if bcrypt.CompareHashAndPassword(g.tokenHash, []byte(operatorToken)) != nil {
		return "", ErrInvalidToken
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	token := mustToken()
	g.sessions[token] = time.Now().Add(g.sessionTTL)
	return token, nil
}

// Resolve validates and refreshes a session token.
func (g *Guard) Resolve(sessionToken string) bool {
	if sessionToken == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, exists := g.sessions[sessionToken]
	if !exists {
		return false
	}
	now := time.Now()
	if !now.Before(expiry) {
		delete(g.sessions, sessionToken)
		return false
	}
	g.sessions[sessionToken] = now.Add(g.sessionTTL)
	return true
}

// Logout invalidates a session token.
func (g *Guard) Logout(sessionToken string) {
	if sessionToken == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionToken)
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
