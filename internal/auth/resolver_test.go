package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/tmplkit/tmplkit/internal/model"
	"github.com/tmplkit/tmplkit/internal/repository"
)

// fakeUserFinder returns canned users and records the filters it saw.
type fakeUserFinder struct {
	users   []*model.User
	err     error
	filters []repository.UserFilter
}

func (f *fakeUserFinder) FindUsers(_ context.Context, filter repository.UserFilter) ([]*model.User, error) {
	f.filters = append(f.filters, filter)
	return f.users, f.err
}

// fakeIdentityCache is an in-memory IdentityCache.
type fakeIdentityCache struct {
	entries map[string]*model.Identity
	sets    int
}

func newFakeIdentityCache() *fakeIdentityCache {
	return &fakeIdentityCache{entries: make(map[string]*model.Identity)}
}

func (f *fakeIdentityCache) GetIdentity(_ context.Context, key string) (*model.Identity, error) {
	return f.entries[key], nil
}

func (f *fakeIdentityCache) SetIdentity(_ context.Context, key string, identity *model.Identity) error {
	f.entries[key] = identity
	f.sets++
	return nil
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	user := &model.User{
		ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Templates: []string{"1"},
	}

	testCases := []struct {
		name    string
		claims  *Claims
		users   []*model.User
		findErr error
		wantErr error
	}{
		{
			name:   "single match resolves",
			claims: &Claims{Email: "jane@example.com"},
			users:  []*model.User{user},
		},
		{
			name:    "no match",
			claims:  &Claims{Email: "ghost@example.com"},
			users:   nil,
			wantErr: ErrUnknownUser,
		},
		{
			name:    "multiple matches",
			claims:  &Claims{Email: "jane@example.com"},
			users:   []*model.User{user, user},
			wantErr: ErrAmbiguousIdentity,
		},
		{
			name:    "nil claims",
			claims:  nil,
			wantErr: ErrUnknownUser,
		},
		{
			name:    "empty email",
			claims:  &Claims{},
			wantErr: ErrUnknownUser,
		},
		{
			name:    "store fault propagates",
			claims:  &Claims{Email: "jane@example.com"},
			findErr: errors.New("connection refused"),
			wantErr: nil, // wrapped, checked below
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			finder := &fakeUserFinder{users: tc.users, err: tc.findErr}
			resolver := NewResolver(finder, nil, nil)

			identity, err := resolver.Resolve(context.Background(), tc.claims)

			if tc.findErr != nil {
				if err == nil || !errors.Is(err, tc.findErr) {
					t.Fatalf("Resolve() error = %v, want wrapped %v", err, tc.findErr)
				}
				return
			}
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if identity.Email != "jane@example.com" {
				t.Errorf("Email = %q, want %q", identity.Email, "jane@example.com")
			}
			if !identity.OwnsTemplate("1") {
				t.Error("resolved identity should carry the owned list")
			}
		})
	}
}

func TestResolver_Resolve_FiltersByEmailOnly(t *testing.T) {
	t.Parallel()

	finder := &fakeUserFinder{users: []*model.User{{Email: "jane@example.com"}}}
	resolver := NewResolver(finder, nil, nil)

	claims := &Claims{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}
	if _, err := resolver.Resolve(context.Background(), claims); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(finder.filters) != 1 {
		t.Fatalf("expected 1 lookup, got %d", len(finder.filters))
	}
	filter := finder.filters[0]
	if filter.Email != "jane@example.com" {
		t.Errorf("filter email = %q, want %q", filter.Email, "jane@example.com")
	}
	if filter.FirstName != "" || filter.LastName != "" {
		t.Error("lookup must key on email alone, not names")
	}
}

func TestResolver_Resolve_CachesResult(t *testing.T) {
	t.Parallel()

	finder := &fakeUserFinder{users: []*model.User{{Email: "jane@example.com"}}}
	cache := newFakeIdentityCache()
	resolver := NewResolver(finder, cache, nil)

	claims := &Claims{Email: "jane@example.com"}

	if _, err := resolver.Resolve(context.Background(), claims); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected 1 cache write, got %d", cache.sets)
	}

	// Second resolve should be served from the cache
	if _, err := resolver.Resolve(context.Background(), claims); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if len(finder.filters) != 1 {
		t.Errorf("expected 1 store lookup, got %d", len(finder.filters))
	}
}
