package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/cache"
	"github.com/tmplkit/tmplkit/internal/metrics"
	"github.com/tmplkit/tmplkit/internal/model"
	"github.com/tmplkit/tmplkit/internal/repository"
)

// Template service errors.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template already existing")
	ErrMissingName      = errors.New("template name is required")
)

// maxIDAllocationRetries bounds retries when concurrent creates collide
// on the same max+1 ID. The store's primary key is the correctness
// backstop either way.
const maxIDAllocationRetries = 3

// TemplateService handles template business logic.
type TemplateService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewTemplateService creates a new TemplateService.
// cache may be nil to disable template caching.
func NewTemplateService(repo *repository.Repository, cacheClient *cache.Cache, recorder metrics.Recorder) *TemplateService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TemplateService{
		repo:    repo,
		cache:   cacheClient,
		metrics: recorder,
	}
}

// List returns all templates in creation order.
func (s *TemplateService) List(ctx context.Context) ([]*model.Template, error) {
	return s.repo.ListTemplates(ctx)
}

// Get retrieves a single template by ID, cache-first.
func (s *TemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	if s.cache != nil {
		if t, err := s.cache.GetTemplate(ctx, id); err == nil {
			return t, nil
		}
	}

	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		// Backfill; eventual consistency is acceptable
		_ = s.cache.SetTemplate(ctx, t)
	}

	return t, nil
}

// CreateTemplateInput defines input for creating a template.
type CreateTemplateInput struct {
	Name    string
	Subject string
	Body    string
}

// Create inserts a new template owned by the given identity and returns
// the allocated ID. The creator's display name is denormalized onto the
// template and the ID is appended to the creator's owned list.
func (s *TemplateService) Create(ctx context.Context, input CreateTemplateInput, creator *model.Identity) (string, error) {
	if input.Name == "" {
		return "", ErrMissingName
	}

	t := &model.Template{
		Name:        input.Name,
		Subject:     input.Subject,
		Body:        input.Body,
		CreatedUser: creator.FullName(),
		CreatedAt:   time.Now().UTC(),
	}

	var id string
	var err error
	for attempt := 0; attempt < maxIDAllocationRetries; attempt++ {
		id, err = s.repo.CreateTemplate(ctx, t)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrTemplateExists) {
			return "", fmt.Errorf("create template: %w", err)
		}
	}
	if err != nil {
		return "", ErrTemplateExists
	}

	if err := s.repo.AppendOwnedTemplate(ctx, creator.Email, id); err != nil {
		return "", fmt.Errorf("record template ownership: %w", err)
	}

	// The owned list changed; drop the creator's cached identity so
	// ownership checks see the new template immediately.
	if s.cache != nil {
		_ = s.cache.DeleteIdentity(ctx, auth.QuickHash(creator.Email))
	}

	s.metrics.IncTemplateCreated()

	return id, nil
}

// UpdateTemplateInput defines input for updating a template.
type UpdateTemplateInput struct {
	Name    string
	Subject string
	Body    string
}

// Update replaces a template's name, subject and body.
// ID and creator display name are immutable.
func (s *TemplateService) Update(ctx context.Context, id string, input UpdateTemplateInput) error {
	if input.Name == "" {
		return ErrMissingName
	}

	if err := s.repo.UpdateTemplate(ctx, id, input.Name, input.Subject, input.Body); err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}

	if s.cache != nil {
		_ = s.cache.DeleteTemplate(ctx, id)
	}

	s.metrics.IncTemplateUpdated()

	return nil
}

// Delete removes a template and pulls its ID from the owner's list.
func (s *TemplateService) Delete(ctx context.Context, id, ownerEmail string) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}

	if err := s.repo.RemoveOwnedTemplate(ctx, ownerEmail, id); err != nil {
		// The template row is already gone; surface the inconsistency
		return fmt.Errorf("remove template ownership: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.DeleteTemplate(ctx, id)
		_ = s.cache.DeleteIdentity(ctx, auth.QuickHash(ownerEmail))
	}

	s.metrics.IncTemplateDeleted()

	return nil
}
