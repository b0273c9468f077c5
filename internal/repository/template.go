package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tmplkit/tmplkit/internal/model"
)

// Common errors for template repository operations.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template ID already exists")
)

const templateColumns = `id, template_name, subject, body, created_user, created_at`

// ListTemplates retrieves all templates in creation order.
// An empty store yields an empty slice, not an error.
func (r *Repository) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY id::integer ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.Template
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedUser, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// GetTemplate retrieves a template by its ID.
func (r *Repository) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`

	var t model.Template
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Subject,
		&t.Body,
		&t.CreatedUser,
		&t.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &t, nil
}

// CreateTemplate inserts a new template, allocating its ID as the current
// maximum numeric ID plus one ("1" when the store is empty). Allocation
// and insert happen in a single statement; the primary key is the backstop
// against concurrent allocations computing the same ID, surfaced as
// ErrTemplateExists so callers can retry.
func (r *Repository) CreateTemplate(ctx context.Context, t *model.Template) (string, error) {
	query := `
		INSERT INTO templates (id, template_name, subject, body, created_user, created_at)
		SELECT (COALESCE(MAX(id::integer), 0) + 1)::text, $1, $2, $3, $4, $5
		FROM templates
		RETURNING id
	`

	var id string
	err := r.pool.QueryRow(ctx, query,
		t.Name,
		t.Subject,
		t.Body,
		t.CreatedUser,
		t.CreatedAt,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrTemplateExists
		}
		return "", fmt.Errorf("failed to create template: %w", err)
	}

	return id, nil
}

// UpdateTemplate replaces a template's name, subject and body.
// ID and created_user are immutable.
func (r *Repository) UpdateTemplate(ctx context.Context, id, name, subject, body string) error {
	query := `
		UPDATE templates
		SET template_name = $2, subject = $3, body = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, name, subject, body)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

// DeleteTemplate removes a template by ID.
// Deleting a nonexistent ID reports ErrTemplateNotFound, never silent
// success.
func (r *Repository) DeleteTemplate(ctx context.Context, id string) error {
	query := `DELETE FROM templates WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	return nil
}
