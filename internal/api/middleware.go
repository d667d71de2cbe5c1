package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/content-agent/internal/service"
)

// requireNonce rejects requests without a valid session nonce
func (s *Server) requireNonce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce := r.Header.Get(NonceHeader)
		if nonce == "" {
			WriteError(w, http.StatusUnauthorized, service.CodeForbidden, "Missing nonce.")
			return
		}
		if _, err := s.deps.Nonces.Verify(nonce); err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("Nonce rejected")
			WriteError(w, http.StatusUnauthorized, service.CodeForbidden, "Cookie check failed.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse is returned by POST /session
type SessionResponse struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleSession exchanges the admin bearer token for a nonce
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || s.deps.Nonces.CheckAdminToken(strings.TrimSpace(token)) != nil {
		WriteError(w, http.StatusUnauthorized, service.CodeForbidden, "Sorry, you are not allowed to do that.")
		return
	}

	nonce, expires, err := s.deps.Nonces.Issue()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, SessionResponse{Nonce: nonce, ExpiresAt: expires})
}
