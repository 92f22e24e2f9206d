package http

import (
	"net/http"

	"judgeboard/internal/auth"
)

// RequireAPIToken guards the admin route group with a shared bearer token.
func RequireAPIToken(want string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("Authorization")
			if want == "" || len(got) < 8 || got[:7] != "Bearer " || got[7:] != want {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// owner resolves the caller's identity from the opaque X-Client-Token
// header. There is no login flow: the client mints the token once and
// sends it on every call, and only its hash is ever stored or compared.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok := r.Header.Get("X-Client-Token")
	if tok == "" {
		writeJSON(w, 400, errResp{"missing X-Client-Token header"})
		return "", false
	}
	return auth.HashToken(tok), true
}
