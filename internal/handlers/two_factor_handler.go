package handlers

import (
	"net/http"

	"github.com/userhub/backend/internal/middleware"
	"github.com/userhub/backend/internal/services"
	"go.uber.org/zap"
)

type TwoFactorHandler struct {
	service   TwoFactorEnroller
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewTwoFactorHandler(service TwoFactorEnroller, logger *zap.Logger) *TwoFactorHandler {
	return &TwoFactorHandler{
		service:   service,
		validator: services.NewValidationHelper(),
		logger:    logger.Named("http"),
	}
}

func accountID(r *http.Request) (int, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return 0, false
	}
	return claims.AccountID, true
}

// Enroll handles POST /2fa/enroll and returns the secret with its QR code.
// @Summary Begin two-factor enrollment
// @Description Issue a TOTP secret with its otpauth URI and QR image
// @Tags 2fa
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{secret=string,provisioningUri=string,qrImage=string}
// @Failure 401 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /2fa/enroll [post]
func (h *TwoFactorHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	enrollment, err := h.service.BeginEnrollment(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"secret":          enrollment.Secret,
		"provisioningUri": enrollment.ProvisioningURI,
		"qrImage":         services.DataURI(enrollment.QRCode),
	})
}

// Verify handles POST /2fa/verify
// @Summary Complete two-factor enrollment
// @Tags 2fa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{code=string} true "Six digit code"
// @Success 200 {object} object{state=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /2fa/verify [post]
func (h *TwoFactorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Code string `json:"code" validate:"required,len=6,numeric"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := h.service.CompleteEnrollment(r.Context(), id, req.Code); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "state": services.StateVerified})
}

// Status handles GET /2fa/status
// @Summary Two-factor enrollment state
// @Tags 2fa
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{state=string}
// @Failure 401 {object} services.ErrorResponse
// @Router /2fa/status [get]
func (h *TwoFactorHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	state, err := h.service.State(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "state": state})
}
