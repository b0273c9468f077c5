// Command bootstrap-admin seeds or promotes the first administrator.
// The /permission endpoint is gated behind the ManagePermissions flag,
// so the first flag has to be granted out of band.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/model"
	"github.com/tmplkit/tmplkit/internal/repository"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Administrator email (required)")
		firstName   = flag.String("first-name", "System", "First name, used when creating the account")
		lastName    = flag.String("last-name", "Administrator", "Last name, used when creating the account")
		password    = flag.String("password", "", "Password, required when creating the account")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := promote(ctx, repo, *email, *firstName, *lastName, *password); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Printf("%s can now manage permissions\n", *email)
}

// promote grants ManagePermissions to an existing account, or creates
// the account first when no user carries the email yet.
func promote(ctx context.Context, repo *repository.Repository, email, firstName, lastName, password string) error {
	err := repo.UpdateManagePermission(ctx, email, model.PermissionGranted)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("promote user: %w", err)
	}

	if password == "" {
		return errors.New("-password is required when the account does not exist yet")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		Templates:    []string{},
		Permissions: model.Permissions{
			ViewTemplates:     model.PermissionGranted,
			ManagePermissions: model.PermissionGranted,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}
