package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/handler/dto"
	"github.com/tmplkit/tmplkit/internal/metrics"
	"github.com/tmplkit/tmplkit/internal/model"
)

// TokenVerifier checks an Authorization header value and returns the
// embedded claims.
type TokenVerifier interface {
	Verify(header string) (*auth.Claims, error)
}

// IdentityResolver maps verified claims to a canonical identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, claims *auth.Claims) (*model.Identity, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	Resolver IdentityResolver
	Metrics  metrics.Recorder
}

// Authenticate returns a middleware that authenticates bearer requests.
// It verifies the Authorization token, resolves the token's claims to a
// stored user, and injects the resulting identity into the request
// context. Every failure answers with the 401 Access Denied envelope
// except resolution faults, which fall through to the catch-all 404.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				denyAuth(w, r, cfg.Logger, recorder, "missing_token", "Please provide Authorization token")
				return
			}

			claims, err := cfg.Verifier.Verify(header)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrMalformedToken):
					denyAuth(w, r, cfg.Logger, recorder, "malformed", "Invalid Authorization token")
				case errors.Is(err, auth.ErrInvalidSignature):
					denyAuth(w, r, cfg.Logger, recorder, "signature", "Token signature verification failed")
				case errors.Is(err, auth.ErrTokenExpired):
					denyAuth(w, r, cfg.Logger, recorder, "expired", "Authorization token expired")
				default:
					cfg.Logger.Error("token verification fault",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeEnvelope(w, dto.Failed("Unable to Process the Request"))
				}
				return
			}

			identity, err := cfg.Resolver.Resolve(r.Context(), claims)
			if err != nil {
				if errors.Is(err, auth.ErrUnknownUser) {
					denyAuth(w, r, cfg.Logger, recorder, "unknown_user", "User not recognized")
					return
				}
				// Covers ErrAmbiguousIdentity and store faults. The
				// detail stays in the log, not the response.
				cfg.Logger.Error("identity resolution fault",
					slog.String("error", err.Error()),
					slog.String("email", claims.Email),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeEnvelope(w, dto.Failed("Unable to Process the Request"))
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// denyAuth logs an authentication denial and writes the 401 envelope.
func denyAuth(w http.ResponseWriter, r *http.Request, logger *slog.Logger, recorder metrics.Recorder, reason, message string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	recorder.IncAuthDenied(reason)
	writeEnvelope(w, dto.AccessDenied(message))
}
