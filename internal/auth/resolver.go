package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmplkit/tmplkit/internal/metrics"
	"github.com/tmplkit/tmplkit/internal/model"
	"github.com/tmplkit/tmplkit/internal/repository"
)

var (
	// ErrUnknownUser indicates the token's claims match no user record.
	ErrUnknownUser = errors.New("unknown user")
	// ErrAmbiguousIdentity indicates the claims matched more than one
	// user record. The unique email index makes this a data-corruption
	// signal; it is surfaced, never silently resolved to the first match.
	ErrAmbiguousIdentity = errors.New("ambiguous identity: claims matched multiple users")
)

// UserFinder is the repository surface the resolver needs.
type UserFinder interface {
	FindUsers(ctx context.Context, filter repository.UserFilter) ([]*model.User, error)
}

// IdentityCache caches resolved identities between requests.
type IdentityCache interface {
	GetIdentity(ctx context.Context, cacheKey string) (*model.Identity, error)
	SetIdentity(ctx context.Context, cacheKey string, identity *model.Identity) error
}

// Resolver maps verified token claims back to a canonical user record.
// Lookups key on email alone: email is the unique identity field, so the
// older name-based matching is deliberately not reproduced.
type Resolver struct {
	users   UserFinder
	cache   IdentityCache
	metrics metrics.Recorder
}

// NewResolver creates a Resolver. cache may be nil to disable caching.
func NewResolver(users UserFinder, cache IdentityCache, recorder metrics.Recorder) *Resolver {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Resolver{users: users, cache: cache, metrics: recorder}
}

// Resolve returns the identity for the given claims.
// Zero matching users yields ErrUnknownUser; more than one yields
// ErrAmbiguousIdentity.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (*model.Identity, error) {
	if claims == nil || claims.Email == "" {
		return nil, ErrUnknownUser
	}

	cacheKey := QuickHash(claims.Email)

	if r.cache != nil {
		if identity, err := r.cache.GetIdentity(ctx, cacheKey); err == nil && identity != nil {
			r.metrics.IncIdentityCacheHit()
			return identity, nil
		}
		r.metrics.IncIdentityCacheMiss()
	}

	users, err := r.users.FindUsers(ctx, repository.UserFilter{Email: claims.Email})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	switch len(users) {
	case 0:
		return nil, ErrUnknownUser
	case 1:
	default:
		return nil, ErrAmbiguousIdentity
	}

	identity := model.IdentityFromUser(users[0])

	if r.cache != nil {
		_ = r.cache.SetIdentity(ctx, cacheKey, identity)
	}

	return identity, nil
}
