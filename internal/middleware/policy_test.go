package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/handler/dto"
	"github.com/tmplkit/tmplkit/internal/metrics"
	"github.com/tmplkit/tmplkit/internal/model"
)

// guardRequest runs a guard middleware against a request carrying the
// given identity and optional chi id URL param.
func guardRequest(t *testing.T, guard func(http.Handler) http.Handler, identity *model.Identity, templateID string) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	ctx := req.Context()
	if identity != nil {
		ctx = auth.ContextWithIdentity(ctx, identity)
	}
	if templateID != "" {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", templateID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	guard(next).ServeHTTP(rec, req)
	return rec
}

func TestGuard_RequireViewPermission(t *testing.T) {
	t.Parallel()

	g := NewGuard(discardLogger(), nil)

	testCases := []struct {
		name       string
		identity   *model.Identity
		wantStatus int
	}{
		{
			name:       "granted",
			identity:   &model.Identity{Permissions: model.Permissions{ViewTemplates: "Y"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "denied flag",
			identity:   &model.Identity{Permissions: model.Permissions{ViewTemplates: "N"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no identity",
			identity:   nil,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := guardRequest(t, g.RequireViewPermission, tc.identity, "")
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			if tc.wantStatus == http.StatusUnauthorized {
				env := decodeEnvelope(t, rec)
				if env.ResponseMessage != dto.MessageAccessDenied {
					t.Errorf("responseMessage = %q, want %q", env.ResponseMessage, dto.MessageAccessDenied)
				}
				if env.ResponseData != "You do not have permission to view templates" {
					t.Errorf("unexpected responseData: %v", env.ResponseData)
				}
			}
		})
	}
}

func TestGuard_RequireTemplateOwner(t *testing.T) {
	t.Parallel()

	g := NewGuard(discardLogger(), nil)

	owner := &model.Identity{Email: "jane@example.com", Templates: []string{"1", "7"}}

	testCases := []struct {
		name       string
		identity   *model.Identity
		templateID string
		wantStatus int
	}{
		{"owns requested template", owner, "7", http.StatusOK},
		{"does not own template", owner, "2", http.StatusUnauthorized},
		{"empty owned list", &model.Identity{}, "1", http.StatusUnauthorized},
		{"no identity", nil, "1", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := guardRequest(t, g.RequireTemplateOwner, tc.identity, tc.templateID)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			if tc.wantStatus == http.StatusUnauthorized {
				env := decodeEnvelope(t, rec)
				if env.ResponseData != "You do not own this template" {
					t.Errorf("unexpected responseData: %v", env.ResponseData)
				}
			}
		})
	}
}

func TestGuard_RequirePermissionAdmin(t *testing.T) {
	t.Parallel()

	g := NewGuard(discardLogger(), nil)

	admin := &model.Identity{Permissions: model.Permissions{ManagePermissions: "Y"}}
	regular := &model.Identity{Permissions: model.Permissions{ViewTemplates: "Y"}}

	if rec := guardRequest(t, g.RequirePermissionAdmin, admin, ""); rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := guardRequest(t, g.RequirePermissionAdmin, regular, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("regular status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	env := decodeEnvelope(t, rec)
	if env.ResponseData != "You do not have permission to manage user permissions" {
		t.Errorf("unexpected responseData: %v", env.ResponseData)
	}
}

func TestGuard_DenialsCountedPerPolicy(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	g := NewGuard(discardLogger(), recorder)

	nobody := &model.Identity{}
	guardRequest(t, g.RequireViewPermission, nobody, "")
	guardRequest(t, g.RequireTemplateOwner, nobody, "1")
	guardRequest(t, g.RequirePermissionAdmin, nobody, "")
	guardRequest(t, g.RequirePermissionAdmin, nobody, "")

	snap := recorder.Snapshot()
	want := map[string]uint64{
		"view_templates":     1,
		"template_owner":     1,
		"manage_permissions": 2,
	}
	for policy, count := range want {
		if snap.AuthDenied[policy] != count {
			t.Errorf("AuthDenied[%s] = %d, want %d", policy, snap.AuthDenied[policy], count)
		}
	}
}
