// Package model defines domain entities for the application.
package model

import "time"

// Permission flag values stored per user.
const (
	PermissionGranted = "Y"
	PermissionDenied  = "N"
)

// Permissions holds per-user permission flags.
type Permissions struct {
	ViewTemplates     string `json:"ViewTemplates"`
	ManagePermissions string `json:"ManagePermissions"`
}

// CanViewTemplates reports whether the template listing is allowed.
func (p Permissions) CanViewTemplates() bool {
	return p.ViewTemplates == PermissionGranted
}

// CanManagePermissions reports whether the user may change other users'
// permission flags.
func (p Permissions) CanManagePermissions() bool {
	return p.ManagePermissions == PermissionGranted
}

// DefaultPermissions returns the flags assigned at registration.
// Permission flags are server-assigned, never read from the request body.
func DefaultPermissions() Permissions {
	return Permissions{
		ViewTemplates:     PermissionGranted,
		ManagePermissions: PermissionDenied,
	}
}

// User represents a registered account.
// Email is the unique identity key. The Templates slice is the
// insertion-ordered list of template IDs the user created.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	PasswordHash string      `json:"-"`
	Templates    []string    `json:"templates"`
	Permissions  Permissions `json:"permissions"`
	CreatedAt    time.Time   `json:"created_at"`
}

// FullName returns the display name denormalized onto created templates.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// OwnsTemplate reports whether the template ID is in the user's owned list.
func (u *User) OwnsTemplate(id string) bool {
	for _, t := range u.Templates {
		if t == id {
			return true
		}
	}
	return false
}
