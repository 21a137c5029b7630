package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/userhub/backend/internal/services"
	"go.uber.org/zap"
)

// AccountHandler serves the admin user management and profile endpoints.
type AccountHandler struct {
	service AccountManager
	session CurrentAccountReader
	logger  *zap.Logger
}

func NewAccountHandler(service AccountManager, session CurrentAccountReader, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{service: service, session: session, logger: logger.Named("http")}
}

func targetID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}

// ListUsers handles GET /admin/users
// @Summary List accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{accounts=[]models.Account}
// @Failure 403 {object} services.ErrorResponse
// @Router /admin/users [get]
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context(), h.session.Current())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "accounts": accounts})
}

// CreateUser handles POST /admin/users
// @Summary Create an account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CreateAccountRequest true "New account"
// @Success 201 {object} object{account=models.Account}
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/users [post]
func (h *AccountHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acct, err := h.service.CreateAccount(r.Context(), h.session.Current(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "account": acct})
}

// SetBlocked handles PUT /admin/users/{id}/block
// @Summary Block or unblock an account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body object{blocked=bool} true "Blocked flag"
// @Success 200 {object} object{blocked=bool}
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/users/{id}/block [put]
func (h *AccountHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	id, ok := targetID(w, r)
	if !ok {
		return
	}
	var req struct {
		Blocked *bool `json:"blocked"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Blocked == nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest,
			&services.ValidationError{Fields: map[string]string{"blocked": "blocked is required"}})
		return
	}

	if err := h.service.SetBlocked(r.Context(), h.session.Current(), id, *req.Blocked); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "blocked": *req.Blocked})
}

// DeleteUser handles DELETE /admin/users/{id}
// @Summary Delete an account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} object{success=bool}
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *AccountHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := targetID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), h.session.Current(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ToggleRole handles PUT /admin/users/{id}/role
// @Summary Toggle admin role
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} object{roles=[]string}
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/users/{id}/role [put]
func (h *AccountHandler) ToggleRole(w http.ResponseWriter, r *http.Request) {
	id, ok := targetID(w, r)
	if !ok {
		return
	}
	roles, err := h.service.ToggleAdminRole(r.Context(), h.session.Current(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "roles": roles})
}

// UpdateProfile handles PUT /profile
// @Summary Update own profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ProfileUpdate true "Profile"
// @Success 200 {object} object{account=models.Account}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /profile [put]
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	cur := h.session.Current()
	if cur == nil {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	var req services.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	acct, err := h.service.UpdateProfile(r.Context(), cur.ID, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "account": acct})
}

// ChangePassword handles PUT /profile/password
// @Summary Change own password
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ChangePasswordRequest true "Password change"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} services.ErrorResponse
// @Router /profile/password [put]
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	cur := h.session.Current()
	if cur == nil {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	var req services.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), cur.ID, req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
