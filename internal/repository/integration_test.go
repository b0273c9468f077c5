//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/tmplkit/tmplkit/internal/model"
	"github.com/tmplkit/tmplkit/internal/testutil"
)

func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if err := testutil.TruncateAll(ctx, repo.Pool()); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return ctx, repo
}

// ============================================================================
// User Store Integration Tests
// ============================================================================

func TestIntegrationUserStore_CreateAndGet(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("create"))
	user.Templates = []string{"1", "2"}

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	if retrieved.ID != user.ID {
		t.Errorf("ID mismatch: got %q, want %q", retrieved.ID, user.ID)
	}
	if retrieved.FirstName != user.FirstName || retrieved.LastName != user.LastName {
		t.Errorf("Name mismatch: got %q %q", retrieved.FirstName, retrieved.LastName)
	}
	if len(retrieved.Templates) != 2 || retrieved.Templates[0] != "1" || retrieved.Templates[1] != "2" {
		t.Errorf("Templates mismatch: got %v, want [1 2]", retrieved.Templates)
	}
	if retrieved.Permissions != user.Permissions {
		t.Errorf("Permissions mismatch: got %+v, want %+v", retrieved.Permissions, user.Permissions)
	}
}

func TestIntegrationUserStore_DuplicateEmail(t *testing.T) {
	ctx, repo := newTestEnv(t)

	email := testutil.UniqueEmail("dup")
	first := testutil.NewTestUser(t, email)
	second := testutil.NewTestUser(t, email)

	if err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("CreateUser (first) failed: %v", err)
	}

	if err := repo.CreateUser(ctx, second); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}
}

func TestIntegrationUserStore_FindUsers(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("find"))
	user.FirstName = "Ada"
	user.LastName = "Lovelace"

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := repo.FindUsers(ctx, UserFilter{Email: user.Email})
	if err != nil {
		t.Fatalf("FindUsers by email failed: %v", err)
	}
	if len(byEmail) != 1 {
		t.Fatalf("expected 1 user by email, got %d", len(byEmail))
	}

	byName, err := repo.FindUsers(ctx, UserFilter{FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("FindUsers by name failed: %v", err)
	}
	if len(byName) != 1 {
		t.Fatalf("expected 1 user by name, got %d", len(byName))
	}

	none, err := repo.FindUsers(ctx, UserFilter{Email: "nobody@example.com"})
	if err != nil {
		t.Fatalf("FindUsers (no match) failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no users, got %d", len(none))
	}
}

func TestIntegrationUserStore_OwnedTemplates(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("owned"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	for _, id := range []string{"1", "2", "3"} {
		if err := repo.AppendOwnedTemplate(ctx, user.Email, id); err != nil {
			t.Fatalf("AppendOwnedTemplate(%s) failed: %v", id, err)
		}
	}

	if err := repo.RemoveOwnedTemplate(ctx, user.Email, "2"); err != nil {
		t.Fatalf("RemoveOwnedTemplate failed: %v", err)
	}

	retrieved, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	// Insertion order survives the removal
	if len(retrieved.Templates) != 2 || retrieved.Templates[0] != "1" || retrieved.Templates[1] != "3" {
		t.Errorf("Templates = %v, want [1 3]", retrieved.Templates)
	}

	if err := repo.AppendOwnedTemplate(ctx, "ghost@example.com", "1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationUserStore_Permissions(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("perm"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := repo.UpdateViewPermission(ctx, user.Email, model.PermissionDenied); err != nil {
		t.Fatalf("UpdateViewPermission failed: %v", err)
	}
	if err := repo.UpdateManagePermission(ctx, user.Email, model.PermissionGranted); err != nil {
		t.Fatalf("UpdateManagePermission failed: %v", err)
	}

	retrieved, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if retrieved.Permissions.CanViewTemplates() {
		t.Error("view permission should be revoked")
	}
	if !retrieved.Permissions.CanManagePermissions() {
		t.Error("manage permission should be granted")
	}

	if err := repo.UpdateViewPermission(ctx, "ghost@example.com", model.PermissionGranted); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}
}

// ============================================================================
// Template Store Integration Tests
// ============================================================================

func TestIntegrationTemplateStore_IDAllocation(t *testing.T) {
	ctx, repo := newTestEnv(t)

	first := testutil.NewTestTemplate(t, "welcome")
	id, err := repo.CreateTemplate(ctx, first)
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if id != "1" {
		t.Errorf("first allocated ID = %q, want \"1\"", id)
	}

	second := testutil.NewTestTemplate(t, "farewell")
	id, err = repo.CreateTemplate(ctx, second)
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if id != "2" {
		t.Errorf("second allocated ID = %q, want \"2\"", id)
	}
}

func TestIntegrationTemplateStore_CRUD(t *testing.T) {
	ctx, repo := newTestEnv(t)

	tmpl := testutil.NewTestTemplate(t, "welcome")
	id, err := repo.CreateTemplate(ctx, tmpl)
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	retrieved, err := repo.GetTemplate(ctx, id)
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if retrieved.Name != tmpl.Name || retrieved.Subject != tmpl.Subject || retrieved.Body != tmpl.Body {
		t.Errorf("template mismatch: got %+v", retrieved)
	}
	if retrieved.CreatedUser != tmpl.CreatedUser {
		t.Errorf("CreatedUser = %q, want %q", retrieved.CreatedUser, tmpl.CreatedUser)
	}

	if err := repo.UpdateTemplate(ctx, id, "renamed", "new subject", "new body"); err != nil {
		t.Fatalf("UpdateTemplate failed: %v", err)
	}

	updated, err := repo.GetTemplate(ctx, id)
	if err != nil {
		t.Fatalf("GetTemplate after update failed: %v", err)
	}
	if updated.Name != "renamed" || updated.Subject != "new subject" || updated.Body != "new body" {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.CreatedUser != tmpl.CreatedUser {
		t.Error("CreatedUser must be immutable across updates")
	}

	if err := repo.DeleteTemplate(ctx, id); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}

	if _, err := repo.GetTemplate(ctx, id); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound after delete, got: %v", err)
	}
}

func TestIntegrationTemplateStore_NotFound(t *testing.T) {
	ctx, repo := newTestEnv(t)

	if _, err := repo.GetTemplate(ctx, "999"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("GetTemplate: expected ErrTemplateNotFound, got: %v", err)
	}
	if err := repo.UpdateTemplate(ctx, "999", "n", "s", "b"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("UpdateTemplate: expected ErrTemplateNotFound, got: %v", err)
	}
	if err := repo.DeleteTemplate(ctx, "999"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("DeleteTemplate: expected ErrTemplateNotFound, got: %v", err)
	}
}

func TestIntegrationTemplateStore_ListOrdering(t *testing.T) {
	ctx, repo := newTestEnv(t)

	for _, name := range []string{"a", "b", "c"} {
		if _, err := repo.CreateTemplate(ctx, testutil.NewTestTemplate(t, name)); err != nil {
			t.Fatalf("CreateTemplate(%s) failed: %v", name, err)
		}
	}

	templates, err := repo.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}

	for i, want := range []string{"1", "2", "3"} {
		if templates[i].ID != want {
			t.Errorf("templates[%d].ID = %q, want %q", i, templates[i].ID, want)
		}
	}
}

func TestIntegrationTemplateStore_ListEmpty(t *testing.T) {
	ctx, repo := newTestEnv(t)

	templates, err := repo.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(templates) != 0 {
		t.Errorf("expected empty list, got %d templates", len(templates))
	}
}
