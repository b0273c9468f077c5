// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/cache"
	"github.com/tmplkit/tmplkit/internal/metrics"
	"github.com/tmplkit/tmplkit/internal/model"
	"github.com/tmplkit/tmplkit/internal/repository"
)

// Account service errors.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNameTaken          = errors.New("first and last name already exist")
	ErrUnknownEmail       = errors.New("email does not exist")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPermission  = errors.New("permission value must be Y or N")
	ErrUserNotFound       = errors.New("user not found")
)

// AccountService handles registration, login and permission management.
type AccountService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	codec   *auth.Codec
	metrics metrics.Recorder
}

// NewAccountService creates a new AccountService.
// cache may be nil to disable identity-cache invalidation.
func NewAccountService(repo *repository.Repository, cacheClient *cache.Cache, codec *auth.Codec, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		repo:    repo,
		cache:   cacheClient,
		codec:   codec,
		metrics: recorder,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register validates and creates a new user account.
// Registration is refused when the email is already registered or the
// first+last name combination already exists. The name check happens at
// registration time only; there is no store-level constraint behind it.
// Permission flags are server-assigned defaults.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) error {
	if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.Password == "" {
		return ErrMissingFields
	}

	byEmail, err := s.repo.FindUsers(ctx, repository.UserFilter{Email: input.Email})
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if len(byEmail) > 0 {
		return ErrEmailTaken
	}

	byName, err := s.repo.FindUsers(ctx, repository.UserFilter{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		return fmt.Errorf("check name: %w", err)
	}
	if len(byName) > 0 {
		return ErrNameTaken
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Templates:    []string{},
		Permissions:  model.DefaultPermissions(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		// Unique-index backstop for a registration race on the same email
		if errors.Is(err, repository.ErrEmailExists) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserRegistered()

	return nil
}

// Login authenticates the user and issues a bearer token.
// A malformed stored hash counts as a verification failure, not a fault.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrMissingFields
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailed()
			return nil, "", ErrUnknownEmail
		}
		return nil, "", fmt.Errorf("look up user: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		s.metrics.IncLoginFailed()
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.codec.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLoginSucceeded()

	return user, token, nil
}

// SetViewPermission sets the target user's ViewTemplates flag and
// invalidates their cached identity so the change applies immediately.
func (s *AccountService) SetViewPermission(ctx context.Context, email, permission string) error {
	if email == "" {
		return ErrMissingFields
	}
	if permission != model.PermissionGranted && permission != model.PermissionDenied {
		return ErrInvalidPermission
	}

	if err := s.repo.UpdateViewPermission(ctx, email, permission); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update permission: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.DeleteIdentity(ctx, auth.QuickHash(email))
	}

	return nil
}
