package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/userhub/backend/internal/services"
	"go.uber.org/zap"
)

const maxBodyBytes = 1_048_576

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps a service error onto an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case services.IsValidationError(err):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrAccountBlocked),
		errors.Is(err, services.ErrAccessDenied),
		errors.Is(err, services.ErrPrivilegedTarget):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrAccountNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrPhoneTaken),
		errors.Is(err, services.ErrRoleConflict),
		errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrNoPendingEnrollment):
		return http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrInvalidTOTPCode),
		errors.Is(err, services.ErrResetTokenInvalid),
		errors.Is(err, services.ErrIncorrectPassword),
		errors.Is(err, services.ErrUnknownRole):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrTooManyAttempts):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, services.ErrMailDelivery):
		return http.StatusBadGateway, services.ErrMailDelivery.Error()
	default:
		return http.StatusInternalServerError, "An Internal Error Occurred"
	}
}

func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		logger.Error("request failed", zap.Error(err))
	}
	var validationErr error
	if services.IsValidationError(err) {
		validationErr = err
	}
	services.SendErrorResponse(w, msg, status, validationErr)
}
