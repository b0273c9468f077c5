package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/tmplkit/tmplkit/internal/handler/dto"
)

// Recoverer is a middleware that recovers from panics.
// It logs the panic and answers with the catch-all failure envelope so
// clients never see a half-written response body.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.Any("panic", rvr),
						slog.String("stack", string(debug.Stack())),
					)

					// In development, also print to stderr for visibility
					if os.Getenv("APP_ENV") == "development" {
						debug.PrintStack()
					}

					writeEnvelope(w, dto.Failed("Unable to Process the Request"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
