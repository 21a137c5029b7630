package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[0-9]{8}$`)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validator with the account field rules registered.
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return nameError(fl.Field().String()) == ""
	})
	_ = v.RegisterValidation("phone8", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &ValidationHelper{validator: v}
}

// Validate runs the struct rules and converts failures into a *ValidationError.
func (vh *ValidationHelper) Validate(s any) error {
	err := vh.validator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

// nameError returns "" for a valid name: 3 to 20 characters after trimming,
// unicode letters and spaces only.
func nameError(name string) string {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return "Name is required"
	case n < 3:
		return "Name must be at least 3 characters long"
	case n > 20:
		return "Name must not exceed 20 characters"
	}
	for _, r := range trimmed {
		if r != ' ' && !unicode.IsLetter(r) {
			return "Name must contain letters only"
		}
	}
	return ""
}

var requiredMessages = map[string]string{
	"name":            "Name is required",
	"email":           "Email is required",
	"phoneNumber":     "Phone number is required",
	"password":        "Password is required",
	"newPassword":     "Password is required",
	"confirmPassword": "Please confirm your password",
	"currentPassword": "Current password is required",
	"token":           "Reset code is required",
	"code":            "Verification code is required",
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return msg
		}
		return fe.Field() + " is required"
	case "personname":
		return nameError(fmt.Sprint(fe.Value()))
	case "email":
		return "Please enter a valid email address"
	case "phone8":
		return "Phone number must be exactly 8 digits"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Password must be at least %s characters long", fe.Param())
		}
	case "eqfield":
		return "Passwords do not match"
	case "len", "numeric":
		if fe.Field() == "code" {
			return "Verification code must be 6 digits"
		}
	case "oneof":
		return "Unknown role"
	}
	return fmt.Sprintf("Field validation failed on '%s' tag", fe.Tag())
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	var ve *ValidationError
	if errors.As(validationErr, &ve) {
		errorResp.Details = ve.Fields
	}

	json.NewEncoder(w).Encode(errorResp)
}
