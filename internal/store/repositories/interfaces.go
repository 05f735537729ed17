package repositories

import (
	"context"
	"errors"

	"paygate/internal/domain/credential"
)

// ErrNotFound distinguishes "no such record" from infrastructure
// failure on every repository read.
var ErrNotFound = errors.New("record not found")

// CredentialRepository defines the contract for provider credential
// persistence. Implementations store credential fields in their
// encoded form; encoding and decoding happen above this layer.
type CredentialRepository interface {
	FindByCode(ctx context.Context, code credential.ProviderCode) (*credential.RawCredentialRecord, error)
	Upsert(ctx context.Context, rec *credential.RawCredentialRecord) error
	List(ctx context.Context) ([]*credential.RawCredentialRecord, error)
	ListActive(ctx context.Context) ([]*credential.RawCredentialRecord, error)
	SetActive(ctx context.Context, code credential.ProviderCode, active bool) error
	// DeactivateAllExcept enforces the single-active-provider rule:
	// every provider other than code becomes inactive.
	DeactivateAllExcept(ctx context.Context, code credential.ProviderCode) error
}
