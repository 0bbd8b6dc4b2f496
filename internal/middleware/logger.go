package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Logger logs one line per request and stores a request-scoped logger in
// the context (zerolog.Ctx).
func Logger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With().Str("request_id", GetRequestID(r.Context())).Logger()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(reqLogger.WithContext(r.Context())))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			evt := reqLogger.Info()
			if status >= 500 {
				evt = reqLogger.Error()
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}
