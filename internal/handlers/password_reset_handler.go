package handlers

import (
	"net/http"

	"github.com/userhub/backend/internal/services"
	"go.uber.org/zap"
)

const resetRequestedMessage = "If the email is registered, a reset code has been sent"

type PasswordResetHandler struct {
	service   PasswordResetter
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewPasswordResetHandler(service PasswordResetter, logger *zap.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{
		service:   service,
		validator: services.NewValidationHelper(),
		logger:    logger.Named("http"),
	}
}

// Forgot handles POST /password/forgot. Known and unknown emails get the
// same answer; only storage or delivery failures are reported. The response
// is written after the background request has finished.
// @Summary Request a password reset code
// @Tags password
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /password/forgot [post]
func (h *PasswordResetHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	select {
	case res := <-h.service.RequestResetAsync(r.Context(), req.Email):
		if res.Err != nil {
			writeServiceError(w, h.logger, res.Err)
			return
		}
	case <-r.Context().Done():
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": resetRequestedMessage})
}

// VerifyToken handles POST /password/verify-token
// @Summary Check a reset code
// @Tags password
// @Accept json
// @Produce json
// @Param request body object{token=string} true "Reset code"
// @Success 200 {object} object{email=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /password/verify-token [post]
func (h *PasswordResetHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	email, err := h.service.EmailFromToken(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "email": email})
}

// Reset handles POST /password/reset
// @Summary Reset the password with a code
// @Tags password
// @Accept json
// @Produce json
// @Param request body services.ResetPasswordRequest true "Reset request"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} services.ErrorResponse
// @Router /password/reset [post]
func (h *PasswordResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req services.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
