package handlers

import (
	"net/http"

	"github.com/userhub/backend/internal/middleware"
	"github.com/userhub/backend/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth      Authenticator
	roles     RoleResolver
	tokens    TokenIssuer
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewAuthHandler(auth Authenticator, roles RoleResolver, tokens TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		roles:     roles,
		tokens:    tokens,
		validator: services.NewValidationHelper(),
		logger:    logger.Named("http"),
	}
}

// Register handles POST /auth/register
// @Summary Register a new account
// @Description Create an unverified ROLE_USER account; two-factor enrollment follows
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration request"
// @Success 201 {object} object{account=models.Account,landing=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"account": acct,
		"landing": h.roles.Landing(acct),
	})
}

// Login handles POST /auth/login. The landing field tells the client whether
// to show two-factor enrollment or a dashboard.
// @Summary Login
// @Description Authenticate with email and password and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Login request"
// @Success 200 {object} object{token=string,expiresAt=string,account=models.Account,userType=string,landing=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	acct, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(acct.ID)
	if err != nil {
		h.auth.Logout()
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     token,
		"expiresAt": expiresAt,
		"account":   acct,
		"userType":  h.roles.GetUserType(acct),
		"landing":   h.roles.Landing(acct),
	})
}

// Logout handles POST /auth/logout
// @Summary Logout
// @Description Revoke the bearer token and clear the current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool}
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		if err := h.tokens.Revoke(r.Context(), claims); err != nil {
			h.logger.Warn("failed to revoke token", zap.Error(err))
		}
	}
	h.auth.Logout()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me handles GET /auth/me
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{account=models.Account,userType=string,landing=string}
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	acct := h.auth.CurrentAccount()
	if acct == nil {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"account":  acct,
		"userType": h.roles.GetUserType(acct),
		"landing":  h.roles.Landing(acct),
	})
}
