package webui

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	sessionCookie = "arrowdash_session"
	sessionTTL    = 12 * time.Hour
)

// secretsEqual compares the submitted password against the configured
// secret in constant time.
func secretsEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// sessionStore is an in-memory token store. Sessions do not survive a
// restart; analysts just log in again, which also covers cache-epoch
// questions after a redeploy.
type sessionStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

func newSessionStore() *sessionStore {
	return &sessionStore{tokens: map[string]time.Time{}}
}

// issue mints a new random session token.
func (st *sessionStore) issue() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("webui: session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.tokens[token] = time.Now().Add(sessionTTL)
	return token, nil
}

// valid reports whether token identifies a live session, pruning it when
// expired.
func (st *sessionStore) valid(token string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	exp, ok := st.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(st.tokens, token)
		return false
	}
	return true
}

// authenticated reports whether the request carries a live session cookie.
func (s *Server) authenticated(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return s.sessions.valid(c.Value)
}
