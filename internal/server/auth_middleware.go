package server

import (
	"fmt"
	"net/http"

	"novatask/internal/auth"
)

// withAuth requires a bearer token on every route except /health when tokens are configured.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.tokens.Enabled() || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if !s.tokens.Verify(auth.BearerToken(r.Header.Get("Authorization"))) {
			err := makeAPIError(http.StatusUnauthorized, "unauthorized", ErrCodeUnauthorized, fmt.Errorf("missing or invalid api token"))
			s.writeErrorReq(w, r, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
