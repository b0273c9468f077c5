package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tmplkit/tmplkit/internal/handler/dto"
	"github.com/tmplkit/tmplkit/internal/service"
)

// AccountHandler handles registration, login and permission updates.
type AccountHandler struct {
	svc    *service.AccountService
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(w, "Unable to Process the Request")
		return
	}

	input := service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}

	if err := h.svc.Register(r.Context(), input); err != nil {
		h.handleAccountError(w, r, err)
		return
	}

	h.logger.Info("user_registered", "email", req.Email)

	writeSuccess(w, "User Registered successfully")
}

// Login handles POST /login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(w, "Unable to Process the Request")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleAccountError(w, r, err)
		return
	}

	h.logger.Info("user_logged_in", "email", user.Email)

	env := dto.Success(fmt.Sprintf("Login Success, Welcome %s, %s", user.FirstName, user.LastName))
	env.AuthorizationToken = token
	writeEnvelope(w, env)
}

// SetPermission handles PUT /permission.
func (h *AccountHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	var req dto.PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(w, "Unable to Process the Request")
		return
	}

	if err := h.svc.SetViewPermission(r.Context(), req.Email, req.Permission); err != nil {
		h.handleAccountError(w, r, err)
		return
	}

	h.logger.Info("permission_updated", "email", req.Email, "permission", req.Permission)

	writeSuccess(w, "User permission updated successfully")
}

// handleAccountError maps account service errors to envelope responses.
// Unexpected faults are logged and answered with the catch-all message.
func (h *AccountHandler) handleAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		writeFailed(w, "Email already registered")
	case errors.Is(err, service.ErrNameTaken):
		writeFailed(w, "User First name and Last name already exists")
	case errors.Is(err, service.ErrUnknownEmail):
		writeFailed(w, "Email does not exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeFailed(w, "Invalid Credentials")
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidPermission),
		errors.Is(err, service.ErrUserNotFound):
		writeFailed(w, "Unable to Process the Request")
	default:
		h.logger.Error("account request failed",
			"error", err.Error(),
			"endpoint", r.Method+" "+r.URL.Path,
		)
		writeFailed(w, "Unable to Process the Request")
	}
}
