package gatewayconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paygate/internal/domain/credential"
	"paygate/internal/secrets"
	"paygate/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// DefaultMemoTTL bounds how long a resolved configuration is served
// without going back to storage.
const DefaultMemoTTL = 5 * time.Minute

// ErrNotConfigured is returned when a provider has no stored record or
// its record is inactive.
var ErrNotConfigured = errors.New("provider not configured")

type memoEntry struct {
	cfg    *credential.ProviderConfig
	expiry time.Time
}

// Resolver loads a provider's raw configuration, decodes its secrets
// and memoizes the result for a bounded window. The memo is
// independent of the request cache: losing it only costs one storage
// fetch, never correctness.
type Resolver struct {
	repo  repositories.CredentialRepository
	codec *secrets.Codec
	ttl   time.Duration

	mu   sync.RWMutex
	memo map[credential.ProviderCode]memoEntry
}

func NewResolver(repo repositories.CredentialRepository, codec *secrets.Codec, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultMemoTTL
	}
	return &Resolver{
		repo:  repo,
		codec: codec,
		ttl:   ttl,
		memo:  make(map[credential.ProviderCode]memoEntry),
	}
}

// GetProviderConfig returns the live decoded configuration for a
// provider, serving the memo within its window. Negative results are
// never memoized: a provider may become active between calls.
func (r *Resolver) GetProviderConfig(ctx context.Context, code credential.ProviderCode) (*credential.ProviderConfig, error) {
	r.mu.RLock()
	entry, ok := r.memo[code]
	r.mu.RUnlock()
	if ok && time.Now().Before(entry.expiry) {
		return entry.cfg, nil
	}

	// Storage fetch happens outside the lock.
	rec, err := r.repo.FindByCode(ctx, code)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("load provider config %s: %w", code, err)
	}
	if !rec.IsActive {
		return nil, ErrNotConfigured
	}

	cfg, err := r.build(rec)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.memo[code] = memoEntry{cfg: cfg, expiry: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return cfg, nil
}

// ClearCache drops one or more memo entries, or every entry when
// called without arguments. Any code path that mutates a stored record
// must call this immediately after the write succeeds so stale decoded
// credentials are never served past a mutation.
func (r *Resolver) ClearCache(codes ...credential.ProviderCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(codes) == 0 {
		r.memo = make(map[credential.ProviderCode]memoEntry)
		return
	}
	for _, code := range codes {
		delete(r.memo, code)
	}
}

// build normalizes field aliases, decodes secrets and splits the
// record into the canonical ProviderConfig shape. Each call produces a
// fresh immutable snapshot.
func (r *Resolver) build(rec *credential.RawCredentialRecord) (*credential.ProviderConfig, error) {
	fields := credential.NormalizeFields(rec.ProviderCode, rec.Fields)
	decoded := r.codec.DecodeFields(fields)

	env, err := credential.NormalizeEnvironment(decoded[credential.FieldEnvironment])
	if err != nil {
		log.Warn().
			Str("provider", string(rec.ProviderCode)).
			Err(err).
			Msg("stored environment not recognized, defaulting to test")
		env = credential.EnvironmentTest
	}

	cfg := &credential.ProviderConfig{
		ProviderCode: rec.ProviderCode,
		Environment:  env,
		BaseURL:      decoded[credential.FieldBaseURL],
		WebhookURL:   decoded[credential.FieldWebhookURL],
		Credentials:  make(map[string]string),
		Extra:        make(map[string]string),
	}
	for name, value := range decoded {
		switch name {
		case credential.FieldEnvironment, credential.FieldBaseURL, credential.FieldWebhookURL:
			// Already lifted into dedicated fields.
		default:
			if secrets.IsSensitiveField(name) {
				cfg.Credentials[name] = value
			} else {
				cfg.Extra[name] = value
			}
		}
	}
	return cfg, nil
}
