package testserver

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RefreshCookie is the name of the reuse cookie
const RefreshCookie = "refreshToken"

// issueAccessToken signs a short-lived HS256 token for username
func (s *Server) issueAccessToken(username string) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// setRefreshCookie issues a new reuse token for username
func (s *Server) setRefreshCookie(w http.ResponseWriter, username string) {
	value := uuid.NewString()
	expires := s.clock.Now().Add(s.cfg.RefreshTTL)

	s.mu.Lock()
	s.refresh[value] = refreshToken{username: username, expiresAt: expires}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.cfg.RefreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// signIn answers a successful login or registration
func (s *Server) signIn(w http.ResponseWriter, username, language string, status int) {
	token, err := s.issueAccessToken(username)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setRefreshCookie(w, username)

	body := map[string]string{"token": token}
	if language != "" {
		body["preferredLanguage"] = language
	}
	writeJSON(w, status, body)
}
