package provider

import (
	"context"

	"paygate/internal/domain/credential"
	"paygate/internal/domain/payment"
)

// Provider is the contract every payment adapter implements. The
// resolved configuration is passed per call rather than held by the
// adapter, so a configuration change takes effect as soon as the
// resolver serves it.
type Provider interface {
	Code() credential.ProviderCode
	Name() string
	RequiredCredentialFields() []CredentialField

	// CreatePayment validates the request, then either calls the
	// remote API or synthesizes a demo intent when the configuration
	// is incomplete.
	CreatePayment(ctx context.Context, cfg *credential.ProviderConfig, req PaymentRequest) (*payment.Intent, error)

	// CheckStatus reports whether the payment behind token is paid,
	// boolean-normalized.
	CheckStatus(ctx context.Context, cfg *credential.ProviderConfig, token string) (*payment.StatusResult, error)

	// Ping probes provider reachability with the given configuration.
	// Used by the admin "test connection" operation; never called on
	// checkout paths.
	Ping(ctx context.Context, cfg *credential.ProviderConfig) error
}
