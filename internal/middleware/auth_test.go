package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/handler/dto"
	"github.com/tmplkit/tmplkit/internal/model"
)

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) Verify(string) (*auth.Claims, error) {
	return f.claims, f.err
}

type fakeResolver struct {
	identity *model.Identity
	err      error
}

func (f *fakeResolver) Resolve(context.Context, *auth.Claims) (*model.Identity, error) {
	return f.identity, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) dto.Envelope {
	t.Helper()
	var env dto.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestAuthenticate_Denials(t *testing.T) {
	t.Parallel()

	claims := &auth.Claims{Email: "jane@example.com"}

	testCases := []struct {
		name        string
		header      string
		verifier    *fakeVerifier
		resolver    *fakeResolver
		wantStatus  int
		wantMessage string
		wantData    string
	}{
		{
			name:        "missing header",
			header:      "",
			verifier:    &fakeVerifier{},
			resolver:    &fakeResolver{},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: dto.MessageAccessDenied,
			wantData:    "Please provide Authorization token",
		},
		{
			name:        "malformed token",
			header:      "Bearer junk",
			verifier:    &fakeVerifier{err: auth.ErrMalformedToken},
			resolver:    &fakeResolver{},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: dto.MessageAccessDenied,
			wantData:    "Invalid Authorization token",
		},
		{
			name:        "bad signature",
			header:      "Bearer forged",
			verifier:    &fakeVerifier{err: auth.ErrInvalidSignature},
			resolver:    &fakeResolver{},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: dto.MessageAccessDenied,
			wantData:    "Token signature verification failed",
		},
		{
			name:        "expired token",
			header:      "Bearer stale",
			verifier:    &fakeVerifier{err: auth.ErrTokenExpired},
			resolver:    &fakeResolver{},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: dto.MessageAccessDenied,
			wantData:    "Authorization token expired",
		},
		{
			name:        "unknown user",
			header:      "Bearer ok",
			verifier:    &fakeVerifier{claims: claims},
			resolver:    &fakeResolver{err: auth.ErrUnknownUser},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: dto.MessageAccessDenied,
			wantData:    "User not recognized",
		},
		{
			name:        "ambiguous identity becomes catch-all",
			header:      "Bearer ok",
			verifier:    &fakeVerifier{claims: claims},
			resolver:    &fakeResolver{err: auth.ErrAmbiguousIdentity},
			wantStatus:  http.StatusNotFound,
			wantMessage: dto.MessageFailed,
			wantData:    "Unable to Process the Request",
		},
		{
			name:        "resolver fault becomes catch-all",
			header:      "Bearer ok",
			verifier:    &fakeVerifier{claims: claims},
			resolver:    &fakeResolver{err: errors.New("connection refused")},
			wantStatus:  http.StatusNotFound,
			wantMessage: dto.MessageFailed,
			wantData:    "Unable to Process the Request",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mw := Authenticate(AuthConfig{
				Logger:   discardLogger(),
				Verifier: tc.verifier,
				Resolver: tc.resolver,
			})

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler should not run on denial")
			})

			req := httptest.NewRequest(http.MethodGet, "/template", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			mw(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			env := decodeEnvelope(t, rec)
			if env.ResponseMessage != tc.wantMessage {
				t.Errorf("responseMessage = %q, want %q", env.ResponseMessage, tc.wantMessage)
			}
			if env.ResponseData != tc.wantData {
				t.Errorf("responseData = %v, want %q", env.ResponseData, tc.wantData)
			}
		})
	}
}

func TestAuthenticate_InjectsIdentity(t *testing.T) {
	t.Parallel()

	identity := &model.Identity{Email: "jane@example.com", Templates: []string{"1"}}

	mw := Authenticate(AuthConfig{
		Logger:   discardLogger(),
		Verifier: &fakeVerifier{claims: &auth.Claims{Email: identity.Email}},
		Resolver: &fakeResolver{identity: identity},
	})

	var seen *model.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/template", nil)
	req.Header.Set("Authorization", "Bearer ok")
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen == nil {
		t.Fatal("identity missing from request context")
	}
	if seen.Email != identity.Email {
		t.Errorf("identity email = %q, want %q", seen.Email, identity.Email)
	}
}
