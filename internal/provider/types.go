package provider

// PaymentRequest carries the caller-supplied fields for a payment
// creation. Validation tags are enforced by base.RequestValidator
// before any network or demo action.
type PaymentRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Note      string  `json:"note" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	// OrderRef is an optional caller reference echoed to the provider.
	OrderRef string `json:"order_ref,omitempty"`
	// ReturnURL overrides the post-payment redirect when set.
	ReturnURL string `json:"return_url,omitempty"`
}

// CredentialField describes one configuration field a provider needs,
// for the admin configuration UI and validation.
type CredentialField struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Type        string   `json:"type"` // text, password, select
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
}

// ProviderError is the structured error every provider operation
// returns. Code drives the caller's error classification.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field is set on validation errors so callers can render
	// field-level messages.
	Field string `json:"field,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Field != "" {
		return e.Message + " (field " + e.Field + ")"
	}
	return e.Message
}

// Error codes
const (
	ErrValidation            = "validation_error"
	ErrProviderNotConfigured = "provider_not_configured"
	ErrUnknownProvider       = "unknown_provider"
	ErrUnknownToken          = "unknown_token"
	ErrUpstreamUnavailable   = "upstream_unavailable"
	ErrProviderRejected      = "provider_rejected"
)

// Validation error constructor used by the request validator and the
// adapters.
func NewValidationError(field, message string) *ProviderError {
	return &ProviderError{Code: ErrValidation, Message: message, Field: field}
}
