package base

import (
	"strings"

	"paygate/internal/provider"

	"github.com/go-playground/validator/v10"
)

// RequestValidator checks a payment request before any network or demo
// action. Violations come back as structured validation errors, never
// panics, so handlers can render field-level messages.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// ValidateCreate trims the free-text fields in place, then enforces
// amount > 0 and non-empty email, first name, last name and note.
func (v *RequestValidator) ValidateCreate(req *provider.PaymentRequest) *provider.ProviderError {
	req.Note = strings.TrimSpace(req.Note)
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := v.validate.Struct(req); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok || len(errs) == 0 {
			return provider.NewValidationError("", "invalid payment request")
		}
		return fieldError(errs[0])
	}
	return nil
}

func fieldError(fe validator.FieldError) *provider.ProviderError {
	switch fe.StructField() {
	case "Amount":
		return provider.NewValidationError("amount", "amount must be greater than zero")
	case "Email":
		return provider.NewValidationError("email", "a valid customer email is required")
	case "FirstName":
		return provider.NewValidationError("first_name", "customer first name is required")
	case "LastName":
		return provider.NewValidationError("last_name", "customer last name is required")
	case "Note":
		return provider.NewValidationError("note", "a payment note is required")
	default:
		return provider.NewValidationError(strings.ToLower(fe.StructField()), "invalid value")
	}
}
