package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/tmplkit/tmplkit/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// UserFilter defines the query filter for user lookups.
// Zero-valued fields are not applied.
type UserFilter struct {
	Email     string
	FirstName string
	LastName  string
}

const userColumns = `id, email, first_name, last_name, password_hash, templates, view_templates, manage_permissions, created_at`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash, templates, view_templates, manage_permissions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		pq.Array(user.Templates),
		user.Permissions.ViewTemplates,
		user.Permissions.ManagePermissions,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindUsers retrieves all users matching the filter.
// An empty result is not an error.
func (r *Repository) FindUsers(ctx context.Context, filter UserFilter) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.Email != "" {
		query += fmt.Sprintf(" AND email = $%d", argIndex)
		args = append(args, filter.Email)
		argIndex++
	}
	if filter.FirstName != "" {
		query += fmt.Sprintf(" AND first_name = $%d", argIndex)
		args = append(args, filter.FirstName)
		argIndex++
	}
	if filter.LastName != "" {
		query += fmt.Sprintf(" AND last_name = $%d", argIndex)
		args = append(args, filter.LastName)
		argIndex++
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUserFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// AppendOwnedTemplate appends a template ID to the user's owned list.
// Insertion order is creation order.
func (r *Repository) AppendOwnedTemplate(ctx context.Context, email, templateID string) error {
	query := `
		UPDATE users
		SET templates = array_append(templates, $2)
		WHERE email = $1
	`

	result, err := r.pool.Exec(ctx, query, email, templateID)
	if err != nil {
		return fmt.Errorf("failed to append owned template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// RemoveOwnedTemplate pulls a template ID from the user's owned list.
func (r *Repository) RemoveOwnedTemplate(ctx context.Context, email, templateID string) error {
	query := `
		UPDATE users
		SET templates = array_remove(templates, $2)
		WHERE email = $1
	`

	result, err := r.pool.Exec(ctx, query, email, templateID)
	if err != nil {
		return fmt.Errorf("failed to remove owned template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateViewPermission sets the ViewTemplates flag for the given user.
func (r *Repository) UpdateViewPermission(ctx context.Context, email, value string) error {
	query := `
		UPDATE users
		SET view_templates = $2
		WHERE email = $1
	`

	result, err := r.pool.Exec(ctx, query, email, value)
	if err != nil {
		return fmt.Errorf("failed to update view permission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateManagePermission sets the ManagePermissions flag for the given
// user. Used by the admin bootstrap tooling; there is no HTTP route for
// this.
func (r *Repository) UpdateManagePermission(ctx context.Context, email, value string) error {
	query := `
		UPDATE users
		SET manage_permissions = $2
		WHERE email = $1
	`

	result, err := r.pool.Exec(ctx, query, email, value)
	if err != nil {
		return fmt.Errorf("failed to update manage permission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		pq.Array(&user.Templates),
		&user.Permissions.ViewTemplates,
		&user.Permissions.ManagePermissions,
		&user.CreatedAt,
	)
	return &user, err
}

// scanUserFromRows scans a row from pgx.Rows into a User model.
func scanUserFromRows(rows pgx.Rows) (*model.User, error) {
	var user model.User
	err := rows.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		pq.Array(&user.Templates),
		&user.Permissions.ViewTemplates,
		&user.Permissions.ManagePermissions,
		&user.CreatedAt,
	)
	return &user, err
}
