package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/giladwin/chat/internal/auth"
)

type contextKey string

const usernameKey contextKey = "username"

// TokenHeader is the custom header carrying the opaque token string. The
// browser client sends the raw token here, not a Bearer scheme.
const TokenHeader = "token"

// Authenticate verifies the token header and stores the bound username in
// the request context. Unverified requests get a bare 401.
func Authenticate(authority *auth.Authority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			username, err := authority.Verify(token)
			if err != nil {
				log.Printf("[AUTH] unverified request on %s", r.URL.Path)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Username returns the authenticated username stored by Authenticate, or ""
// on unauthenticated paths.
func Username(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}
