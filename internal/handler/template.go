package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/handler/dto"
	"github.com/tmplkit/tmplkit/internal/model"
	"github.com/tmplkit/tmplkit/internal/service"
)

// TemplateService is the template behavior the handler depends on,
// satisfied by service.TemplateService.
type TemplateService interface {
	List(ctx context.Context) ([]*model.Template, error)
	Get(ctx context.Context, id string) (*model.Template, error)
	Create(ctx context.Context, input service.CreateTemplateInput, creator *model.Identity) (string, error)
	Update(ctx context.Context, id string, input service.UpdateTemplateInput) error
	Delete(ctx context.Context, id, ownerEmail string) error
}

// TemplateHandler handles HTTP requests for template operations.
// All routes sit behind the auth middleware; the resolved identity is
// taken from the request context.
type TemplateHandler struct {
	svc    TemplateService
	logger *slog.Logger
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(svc TemplateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /template.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("template listing failed", "error", err.Error())
		writeFailed(w, "Unable to fetch templates")
		return
	}

	// An empty store is not an error
	if len(templates) == 0 {
		writeSuccess(w, "No Templates Found")
		return
	}

	writeSuccess(w, templates)
}

// Create handles POST /template.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(w, "Unable to Process the Request")
		return
	}

	identity := auth.MustIdentityFromContext(r.Context())

	input := service.CreateTemplateInput{
		Name:    req.Name,
		Subject: req.Subject,
		Body:    req.Body,
	}

	id, err := h.svc.Create(r.Context(), input, identity)
	if err != nil {
		h.handleTemplateError(w, r, err, "")
		return
	}

	h.logger.Info("template_created",
		"template_id", id,
		"created_by", identity.Email,
	)

	writeSuccess(w, fmt.Sprintf("Template Id: %s inserted successfully", id))
}

// Get handles GET /template/{id}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	template, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			writeFailed(w, fmt.Sprintf("Template ID: %s not found", id))
			return
		}
		h.logger.Error("template fetch failed", "template_id", id, "error", err.Error())
		writeFailed(w, fmt.Sprintf("Unable to fetch template %s", id))
		return
	}

	writeSuccess(w, template)
}

// Update handles PUT /template/{id}.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(w, "Unable to Process the Request")
		return
	}

	input := service.UpdateTemplateInput{
		Name:    req.Name,
		Subject: req.Subject,
		Body:    req.Body,
	}

	if err := h.svc.Update(r.Context(), id, input); err != nil {
		h.handleTemplateError(w, r, err, id)
		return
	}

	h.logger.Info("template_updated", "template_id", id)

	writeSuccess(w, fmt.Sprintf("Template Id: %s Updated successfully", id))
}

// Delete handles DELETE /template/{id}.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity := auth.MustIdentityFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), id, identity.Email); err != nil {
		h.handleTemplateError(w, r, err, id)
		return
	}

	h.logger.Info("template_deleted",
		"template_id", id,
		"deleted_by", identity.Email,
	)

	writeSuccess(w, fmt.Sprintf("Template Id: %s Deleted successfully", id))
}

// handleTemplateError maps template service errors to envelope responses.
func (h *TemplateHandler) handleTemplateError(w http.ResponseWriter, r *http.Request, err error, id string) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		writeFailed(w, fmt.Sprintf("Template ID: %s not found", id))
	case errors.Is(err, service.ErrTemplateExists):
		writeFailed(w, "Template already existing")
	case errors.Is(err, service.ErrMissingName):
		writeFailed(w, "Unable to Process the Request")
	default:
		h.logger.Error("template request failed",
			"error", err.Error(),
			"endpoint", r.Method+" "+r.URL.Path,
		)
		writeFailed(w, "Unable to Process the Request")
	}
}
