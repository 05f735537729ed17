package payment

import (
	"fmt"
	"strings"

	"paygate/internal/domain/credential"
)

// Status is the normalized payment status exposed to callers. Provider
// specific status strings never leave the adapter layer.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

func (s Status) Paid() bool { return s == StatusPaid }

// ParseStatus folds the status vocabulary of the supported providers
// onto the three normalized values.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "authorised", "authorized", "completed", "success", "true", "1":
		return StatusPaid
	case "failed", "refused", "cancelled", "canceled", "error", "expired":
		return StatusFailed
	default:
		return StatusPending
	}
}

// Intent is the normalized result of a create-payment call: the opaque
// provider token, where to send the customer, and the current status.
// It lives for a single request/response cycle and is never persisted
// by this layer.
type Intent struct {
	Token        string                  `json:"token"`
	RedirectURL  string                  `json:"redirect_url"`
	Amount       float64                 `json:"amount"`
	Status       Status                  `json:"status"`
	ProviderCode credential.ProviderCode `json:"provider"`
	// Demo marks intents synthesized without a live provider call.
	Demo bool `json:"demo,omitempty"`
}

// StatusResult is the normalized result of a status check.
type StatusResult struct {
	Token         string `json:"token"`
	PaymentStatus bool   `json:"payment_status"`
	RawStatus     Status `json:"status"`
}

// NewIntent validates the invariants every adapter result must hold.
func NewIntent(code credential.ProviderCode, token, redirectURL string, amount float64, status Status, demo bool) (*Intent, error) {
	if token == "" {
		return nil, fmt.Errorf("payment intent requires a token")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("payment intent requires a positive amount, got %v", amount)
	}
	return &Intent{
		Token:        token,
		RedirectURL:  redirectURL,
		Amount:       amount,
		Status:       status,
		ProviderCode: code,
		Demo:         demo,
	}, nil
}
