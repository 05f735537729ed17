package gatewayconfig

import (
	"fmt"
	"strings"

	"paygate/internal/domain/credential"
)

// ValidationResult reports provider-specific configuration problems.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// ValidateProviderConfig runs the pure, synchronous checks applied
// before persisting new configuration: known provider code, required
// fields present, recognized environment. It never touches the cache
// or storage.
func ValidateProviderConfig(code credential.ProviderCode, fields map[string]string) ValidationResult {
	var errs []string

	if !credential.IsKnownProvider(code) {
		return ValidationResult{Errors: []string{fmt.Sprintf("unknown provider code %q", code)}}
	}

	normalized := credential.NormalizeFields(code, fields)
	for _, name := range credential.RequiredFields(code) {
		if strings.TrimSpace(normalized[name]) == "" {
			errs = append(errs, fmt.Sprintf("required field %s is missing", name))
		}
	}

	if raw := normalized[credential.FieldEnvironment]; raw != "" {
		if _, err := credential.NormalizeEnvironment(raw); err != nil {
			errs = append(errs, fmt.Sprintf("environment must be test or live, got %q", raw))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
