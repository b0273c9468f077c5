package dto

// TemplateRequest represents the request body for creating or updating a
// template. Template ID and creator are never client-supplied.
type TemplateRequest struct {
	Name    string `json:"template_name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
