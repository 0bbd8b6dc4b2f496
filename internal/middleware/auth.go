package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jhaveripatric/webagents/internal/auth"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer JWT and stores the
// claims in the context.
func RequireAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())

			token, err := auth.ExtractToken(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="webagents"`)
				WriteError(w, http.StatusUnauthorized, "unauthorized", err.Error(), reqID)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Token rejected")
				w.Header().Set("WWW-Authenticate", `Bearer realm="webagents", error="invalid_token"`)
				WriteError(w, http.StatusUnauthorized, "invalid_token", "Invalid or expired token", reqID)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}
