package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Recovery recovers from panics and returns a 500 JSON error.
func Recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					reqID := GetRequestID(r.Context())
					logger.Error().
						Str("request_id", reqID).
						Interface("panic", err).
						Bytes("stack", debug.Stack()).
						Msg("Handler panicked")

					WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error", reqID)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
