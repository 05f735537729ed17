package credential

import (
	"fmt"
	"strings"
)

// ProviderCode identifies a payment provider. The set is closed: every
// code maps to exactly one adapter.
type ProviderCode string

const (
	ProviderGlobalCheckout ProviderCode = "global-checkout"
	ProviderRegionalToken  ProviderCode = "regional-token"
	ProviderNetworkGateway ProviderCode = "network-gateway"
)

// KnownProviders lists every provider code an adapter exists for.
func KnownProviders() []ProviderCode {
	return []ProviderCode{
		ProviderGlobalCheckout,
		ProviderRegionalToken,
		ProviderNetworkGateway,
	}
}

func IsKnownProvider(code ProviderCode) bool {
	for _, p := range KnownProviders() {
		if p == code {
			return true
		}
	}
	return false
}

// Environment is the canonical provider environment. Provider-specific
// spellings ("sandbox", "production", ...) are normalized on input.
type Environment string

const (
	EnvironmentTest Environment = "test"
	EnvironmentLive Environment = "live"
)

// NormalizeEnvironment maps provider-specific, case-insensitive
// environment spellings onto the two canonical values. Unrecognized
// values are rejected so a typo cannot silently select an environment.
func NormalizeEnvironment(raw string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "test", "sandbox", "staging", "dev":
		return EnvironmentTest, nil
	case "live", "prod", "production":
		return EnvironmentLive, nil
	default:
		return "", fmt.Errorf("unknown environment %q", raw)
	}
}

// RawCredentialRecord is the persisted form of a provider's
// configuration. Sensitive values inside Fields are stored encoded;
// the record itself never carries plaintext secrets.
type RawCredentialRecord struct {
	ID           int64
	ProviderCode ProviderCode
	Name         string
	Description  string
	IsActive     bool
	Fields       map[string]string
}

// ProviderConfig is the resolved, decoded configuration handed to an
// adapter. It is an immutable snapshot: resolution always builds a
// fresh value and nothing mutates it afterwards.
type ProviderConfig struct {
	ProviderCode ProviderCode
	Environment  Environment
	BaseURL      string
	WebhookURL   string
	// Credentials holds the decoded secret fields keyed by canonical
	// name. Encoded form never leaves the secrets codec.
	Credentials map[string]string
	// Extra preserves any non-canonical fields verbatim.
	Extra map[string]string
}

// Credential returns a decoded credential field, "" when absent.
func (c *ProviderConfig) Credential(name string) string {
	return c.Credentials[name]
}

// Canonical credential field names.
const (
	FieldAPIKey          = "api_key"
	FieldAPIToken        = "api_token"
	FieldMerchantAccount = "merchant_account"
	FieldMerchantID      = "merchant_id"
	FieldVendorID        = "vendor_id"
	FieldClientKey       = "client_key"
)

// Non-secret field names shared by all providers.
const (
	FieldEnvironment = "environment"
	FieldBaseURL     = "base_url"
	FieldWebhookURL  = "webhook_url"
)

// fieldAliases maps, per provider, stored field spellings onto the
// canonical name. Aliasing is an explicit table per provider code so a
// missing or ambiguous field is a checked case, not a property probe.
var fieldAliases = map[ProviderCode]map[string]string{
	ProviderGlobalCheckout: {
		"apiKey":          FieldAPIKey,
		"merchantAccount": FieldMerchantAccount,
		"merchant_id":     FieldMerchantAccount,
		"clientKey":       FieldClientKey,
	},
	ProviderRegionalToken: {
		"apiToken": FieldAPIToken,
		"api_key":  FieldAPIToken,
		"vendor":   FieldVendorID,
		"vendorId": FieldVendorID,
	},
	ProviderNetworkGateway: {
		"apiKey":     FieldAPIKey,
		"merchantId": FieldMerchantID,
		"walletId":   FieldMerchantID,
	},
}

// RequiredFields lists the canonical credential fields a provider
// needs for live operation.
func RequiredFields(code ProviderCode) []string {
	switch code {
	case ProviderGlobalCheckout:
		return []string{FieldAPIKey, FieldMerchantAccount}
	case ProviderRegionalToken:
		return []string{FieldAPIToken, FieldVendorID}
	case ProviderNetworkGateway:
		return []string{FieldAPIKey, FieldMerchantID}
	default:
		return nil
	}
}

// NormalizeFields rewrites a stored field map into canonical names for
// the given provider. Unknown fields are preserved under their stored
// name; when both an alias and its canonical name are present the
// canonical one wins.
func NormalizeFields(code ProviderCode, fields map[string]string) map[string]string {
	aliases := fieldAliases[code]
	out := make(map[string]string, len(fields))

	// Canonical names first so aliases cannot overwrite them.
	for name, value := range fields {
		if aliases[name] == "" {
			out[name] = value
		}
	}
	for name, value := range fields {
		canonical := aliases[name]
		if canonical == "" {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = value
		}
	}
	return out
}
