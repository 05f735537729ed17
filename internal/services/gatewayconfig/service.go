package gatewayconfig

import (
	"context"
	"fmt"

	"paygate/internal/domain/credential"
	"paygate/internal/provider"
	"paygate/internal/secrets"
	"paygate/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// Service owns the configuration write paths: encoding secrets before
// persistence, cache invalidation after every mutation, and the
// single-active-provider business rule.
type Service struct {
	repo     repositories.CredentialRepository
	codec    *secrets.Codec
	resolver *Resolver
	registry *provider.Registry
}

func NewService(repo repositories.CredentialRepository, codec *secrets.Codec, resolver *Resolver, registry *provider.Registry) *Service {
	return &Service{repo: repo, codec: codec, resolver: resolver, registry: registry}
}

// SaveRequest is the inbound shape for create and update.
type SaveRequest struct {
	ProviderCode credential.ProviderCode `json:"provider_code"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	IsActive     bool                    `json:"is_active"`
	Fields       map[string]string       `json:"fields"`
}

// Save validates, encodes and persists a provider configuration, then
// invalidates the resolver memo. An encoding failure aborts the write;
// plaintext secrets must never reach storage.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*credential.RawCredentialRecord, error) {
	if result := ValidateProviderConfig(req.ProviderCode, req.Fields); !result.IsValid {
		return nil, &provider.ProviderError{
			Code:    provider.ErrValidation,
			Message: fmt.Sprintf("invalid configuration: %v", result.Errors),
		}
	}

	encoded, err := s.codec.EncodeFields(credential.NormalizeFields(req.ProviderCode, req.Fields))
	if err != nil {
		return nil, fmt.Errorf("encode configuration for %s: %w", req.ProviderCode, err)
	}

	rec := &credential.RawCredentialRecord{
		ProviderCode: req.ProviderCode,
		Name:         req.Name,
		Description:  req.Description,
		IsActive:     req.IsActive,
		Fields:       encoded,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist configuration for %s: %w", req.ProviderCode, err)
	}

	s.resolver.ClearCache(req.ProviderCode)

	if req.IsActive {
		if err := s.deactivateOthers(ctx, req.ProviderCode); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("provider", string(req.ProviderCode)).
		Bool("active", req.IsActive).
		Msg("provider configuration saved")
	return rec, nil
}

// Activate marks one provider active and enforces the rule that at
// most one provider is active at a time.
func (s *Service) Activate(ctx context.Context, code credential.ProviderCode) error {
	if err := s.repo.SetActive(ctx, code, true); err != nil {
		return fmt.Errorf("activate %s: %w", code, err)
	}
	s.resolver.ClearCache(code)
	return s.deactivateOthers(ctx, code)
}

// Deactivate marks one provider inactive.
func (s *Service) Deactivate(ctx context.Context, code credential.ProviderCode) error {
	if err := s.repo.SetActive(ctx, code, false); err != nil {
		return fmt.Errorf("deactivate %s: %w", code, err)
	}
	s.resolver.ClearCache(code)
	return nil
}

// DeactivateAllOthers turns off every provider except excludeCode.
func (s *Service) DeactivateAllOthers(ctx context.Context, excludeCode credential.ProviderCode) error {
	return s.deactivateOthers(ctx, excludeCode)
}

func (s *Service) deactivateOthers(ctx context.Context, keep credential.ProviderCode) error {
	if err := s.repo.DeactivateAllExcept(ctx, keep); err != nil {
		return fmt.Errorf("deactivate other providers: %w", err)
	}
	// Every other provider's memoized config may now be stale.
	s.resolver.ClearCache()
	return nil
}

// List returns every stored configuration with secret fields redacted.
func (s *Service) List(ctx context.Context) ([]*credential.RawCredentialRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return redactAll(records), nil
}

// GetActiveProviders returns the active configurations, redacted.
func (s *Service) GetActiveProviders(ctx context.Context) ([]*credential.RawCredentialRecord, error) {
	records, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return redactAll(records), nil
}

// Test probes provider reachability with the stored configuration. It
// resolves through the memo like a payment would, so it exercises the
// same path operators are validating.
func (s *Service) Test(ctx context.Context, code credential.ProviderCode) error {
	cfg, err := s.resolver.GetProviderConfig(ctx, code)
	if err != nil {
		return err
	}
	p, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return p.Ping(ctx, cfg)
}

// redactAll copies the records so redaction never touches what the
// repository handed back.
func redactAll(records []*credential.RawCredentialRecord) []*credential.RawCredentialRecord {
	out := make([]*credential.RawCredentialRecord, 0, len(records))
	for _, rec := range records {
		cp := *rec
		cp.Fields = redact(rec.Fields)
		out = append(out, &cp)
	}
	return out
}

func redact(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		if secrets.IsSensitiveField(name) && value != "" {
			out[name] = "••••••"
			continue
		}
		out[name] = value
	}
	return out
}
