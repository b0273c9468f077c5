package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/handler/dto"
	"github.com/tmplkit/tmplkit/internal/metrics"
	"github.com/tmplkit/tmplkit/internal/model"
)

// Guard enforces per-route access policy. Each route declares its policy
// explicitly by stacking the guard middleware it needs; there is no
// implicit endpoint-to-rule mapping. Must be applied after Authenticate.
type Guard struct {
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewGuard creates a Guard.
func NewGuard(logger *slog.Logger, recorder metrics.Recorder) *Guard {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Guard{logger: logger, metrics: recorder}
}

// RequireViewPermission permits only identities with the ViewTemplates
// flag set.
func (g *Guard) RequireViewPermission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.IdentityFromContext(r.Context())
		if identity == nil || !identity.Permissions.CanViewTemplates() {
			g.deny(w, r, identity, "view_templates", "You do not have permission to view templates")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTemplateOwner permits only the owner of the template named by
// the id URL parameter.
func (g *Guard) RequireTemplateOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.IdentityFromContext(r.Context())
		id := chi.URLParam(r, "id")
		if identity == nil || !identity.OwnsTemplate(id) {
			g.deny(w, r, identity, "template_owner", "You do not own this template")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermissionAdmin permits only identities with the
// ManagePermissions flag set.
func (g *Guard) RequirePermissionAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.IdentityFromContext(r.Context())
		if identity == nil || !identity.Permissions.CanManagePermissions() {
			g.deny(w, r, identity, "manage_permissions", "You do not have permission to manage user permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, identity *model.Identity, policy, message string) {
	email := ""
	if identity != nil {
		email = identity.Email
	}
	g.logger.Warn("authorization denied",
		slog.String("policy", policy),
		slog.String("email", email),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	g.metrics.IncAuthDenied(policy)
	writeEnvelope(w, dto.AccessDenied(message))
}
