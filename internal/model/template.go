package model

import "time"

// Template represents an email template document.
// IDs are monotonically increasing integers stored as strings; the first
// template in an empty store gets ID "1". CreatedUser is the creator's
// display name, denormalized at creation and immutable afterwards.
type Template struct {
	ID          string    `json:"template_id"`
	Name        string    `json:"template_name"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedUser string    `json:"created_user"`
	CreatedAt   time.Time `json:"created_at"`
}
