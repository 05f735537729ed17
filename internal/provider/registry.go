package provider

import (
	"fmt"
	"sync"

	"paygate/internal/domain/credential"

	"github.com/rs/zerolog/log"
)

// Registry holds the fixed code-to-adapter mapping. Registration
// happens once at startup; lookups run on every request.
type Registry struct {
	mu        sync.RWMutex
	providers map[credential.ProviderCode]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[credential.ProviderCode]Provider)}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[p.Code()] = p
	log.Info().
		Str("provider", string(p.Code())).
		Str("name", p.Name()).
		Msg("registered payment provider")
}

// Get returns the adapter for a provider code.
func (r *Registry) Get(code credential.ProviderCode) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[code]
	if !ok {
		return nil, &ProviderError{
			Code:    ErrUnknownProvider,
			Message: fmt.Sprintf("provider %s not registered", code),
		}
	}
	return p, nil
}

// List returns all registered provider codes.
func (r *Registry) List() []credential.ProviderCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var codes []credential.ProviderCode
	for c := range r.providers {
		codes = append(codes, c)
	}
	return codes
}

// ProviderInfo describes an adapter for the admin configuration API.
type ProviderInfo struct {
	Code                credential.ProviderCode `json:"code"`
	Name                string                  `json:"name"`
	RequiredCredentials []CredentialField       `json:"required_credentials"`
}

// Info returns metadata for one provider.
func (r *Registry) Info(code credential.ProviderCode) (*ProviderInfo, error) {
	p, err := r.Get(code)
	if err != nil {
		return nil, err
	}
	return &ProviderInfo{
		Code:                p.Code(),
		Name:                p.Name(),
		RequiredCredentials: p.RequiredCredentialFields(),
	}, nil
}

// AllInfo returns metadata for every registered provider.
func (r *Registry) AllInfo() []*ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []*ProviderInfo
	for _, p := range r.providers {
		infos = append(infos, &ProviderInfo{
			Code:                p.Code(),
			Name:                p.Name(),
			RequiredCredentials: p.RequiredCredentialFields(),
		})
	}
	return infos
}
