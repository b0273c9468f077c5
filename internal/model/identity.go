package model

// Identity is the per-request authenticated principal: the canonical user
// record a verified token resolved to. It is computed by the auth
// middleware and carried in the request context; it is never stored.
type Identity struct {
	UserID      string
	Email       string
	FirstName   string
	LastName    string
	Templates   []string
	Permissions Permissions
}

// IdentityFromUser builds an Identity snapshot from a user record.
// The owned list is copied so the snapshot stays stable even if the
// user record is mutated later.
func IdentityFromUser(u *User) *Identity {
	templates := make([]string, len(u.Templates))
	copy(templates, u.Templates)

	return &Identity{
		UserID:      u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Templates:   templates,
		Permissions: u.Permissions,
	}
}

// FullName returns the identity's display name.
func (i *Identity) FullName() string {
	return i.FirstName + " " + i.LastName
}

// OwnsTemplate reports whether the template ID is in the owned list.
func (i *Identity) OwnsTemplate(id string) bool {
	for _, t := range i.Templates {
		if t == id {
			return true
		}
	}
	return false
}
