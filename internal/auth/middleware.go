package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Skipper reports whether a request may bypass token verification. The health
// and metrics endpoints use it.
type Skipper func(r *http.Request) bool

// Middleware verifies the bearer token on each request and stores the
// resulting claims on the context for handlers to read via FromContext.
type Middleware struct {
	cfg     Config
	skipper Skipper
}

// NewMiddleware constructs the middleware. A nil skipper means every request
// is authenticated.
func NewMiddleware(cfg Config, skipper Skipper) Middleware {
	return Middleware{cfg: cfg, skipper: skipper}
}

// Wrap returns a handler that authenticates, then delegates to next.
// Rejections use the same JSON error envelope as the API handlers.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipper != nil && m.skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := Parse(bearerToken(r), m.cfg)
		if err != nil {
			detail := "invalid bearer token"
			if errors.Is(err, ErrMissingToken) {
				detail = "missing bearer token"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"type":   "unauthorized",
				"detail": detail,
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// bearerToken extracts the token from the Authorization header; an absent or
// non-Bearer header yields the empty string, which Parse rejects.
func bearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
