package dto

// RegisterRequest represents the request body for user registration.
// Permission flags are never accepted from the client.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PermissionRequest represents the request body for setting a user's
// ViewTemplates permission flag.
type PermissionRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}
