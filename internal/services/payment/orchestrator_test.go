package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"paygate/internal/cache"
	"paygate/internal/domain/credential"
	"paygate/internal/domain/payment"
	"paygate/internal/provider"
	"paygate/internal/secrets"
	"paygate/internal/services/gatewayconfig"
	"paygate/internal/store/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider lets each test script the adapter's answers.
type stubProvider struct {
	code      credential.ProviderCode
	createFn  func() (*payment.Intent, error)
	statusFn  func(token string) (*payment.StatusResult, error)
	lastCfg   *credential.ProviderConfig
	pingErr   error
	createErr error
}

func (s *stubProvider) Code() credential.ProviderCode { return s.code }
func (s *stubProvider) Name() string                  { return "stub" }
func (s *stubProvider) RequiredCredentialFields() []provider.CredentialField {
	return nil
}

func (s *stubProvider) CreatePayment(_ context.Context, cfg *credential.ProviderConfig, _ provider.PaymentRequest) (*payment.Intent, error) {
	s.lastCfg = cfg
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createFn()
}

func (s *stubProvider) CheckStatus(_ context.Context, cfg *credential.ProviderConfig, token string) (*payment.StatusResult, error) {
	s.lastCfg = cfg
	return s.statusFn(token)
}

func (s *stubProvider) Ping(context.Context, *credential.ProviderConfig) error {
	return s.pingErr
}

// stubRepo serves one stored record per provider code.
type stubRepo struct {
	records map[credential.ProviderCode]*credential.RawCredentialRecord
}

func (r *stubRepo) FindByCode(_ context.Context, code credential.ProviderCode) (*credential.RawCredentialRecord, error) {
	rec, ok := r.records[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return rec, nil
}

func (r *stubRepo) Upsert(context.Context, *credential.RawCredentialRecord) error { return nil }
func (r *stubRepo) List(context.Context) ([]*credential.RawCredentialRecord, error) {
	return nil, nil
}
func (r *stubRepo) ListActive(context.Context) ([]*credential.RawCredentialRecord, error) {
	return nil, nil
}
func (r *stubRepo) SetActive(context.Context, credential.ProviderCode, bool) error { return nil }
func (r *stubRepo) DeactivateAllExcept(context.Context, credential.ProviderCode) error {
	return nil
}

func newOrchestrator(t *testing.T, repo *stubRepo, providers ...provider.Provider) *Orchestrator {
	t.Helper()
	registry := provider.NewRegistry()
	for _, p := range providers {
		registry.Register(p)
	}
	resolver := gatewayconfig.NewResolver(repo, secrets.NewCodec(), time.Minute)
	return NewOrchestrator(resolver, registry, false)
}

func configuredRepo(t *testing.T, code credential.ProviderCode) *stubRepo {
	t.Helper()
	enc, err := secrets.NewCodec().EncodeFields(map[string]string{
		"api_token": "tok-1",
		"vendor_id": "v-1",
	})
	require.NoError(t, err)
	return &stubRepo{records: map[credential.ProviderCode]*credential.RawCredentialRecord{
		code: {ProviderCode: code, IsActive: true, Fields: enc},
	}}
}

func TestCreatePaymentUnknownProvider(t *testing.T) {
	o := newOrchestrator(t, &stubRepo{})

	res := o.CreatePayment(context.Background(), "bogus", provider.PaymentRequest{})

	assert.False(t, res.OK)
	require.NotNil(t, res.Err)
	assert.Equal(t, provider.ErrUnknownProvider, res.Err.Code)
}

func TestCreatePaymentNotConfigured(t *testing.T) {
	stub := &stubProvider{code: credential.ProviderRegionalToken}
	o := newOrchestrator(t, &stubRepo{}, stub)

	res := o.CreatePayment(context.Background(), credential.ProviderRegionalToken, provider.PaymentRequest{})

	assert.False(t, res.OK)
	require.NotNil(t, res.Err)
	assert.Equal(t, provider.ErrProviderNotConfigured, res.Err.Code)
	assert.Nil(t, stub.lastCfg, "adapter must not be invoked without configuration")
}

func TestCreatePaymentUnconfiguredUsesDemoWhenFallbackEnabled(t *testing.T) {
	want := &payment.Intent{
		Token:        "DEMOTOKEN",
		Amount:       45,
		Status:       payment.StatusPending,
		ProviderCode: credential.ProviderRegionalToken,
		Demo:         true,
	}
	stub := &stubProvider{
		code:     credential.ProviderRegionalToken,
		createFn: func() (*payment.Intent, error) { return want, nil },
	}
	registry := provider.NewRegistry()
	registry.Register(stub)
	resolver := gatewayconfig.NewResolver(&stubRepo{}, secrets.NewCodec(), time.Minute)
	o := NewOrchestrator(resolver, registry, true)

	res := o.CreatePayment(context.Background(), credential.ProviderRegionalToken, provider.PaymentRequest{Amount: 45})

	assert.True(t, res.OK)
	require.NotNil(t, stub.lastCfg)
	assert.Empty(t, stub.lastCfg.Credentials, "unconfigured provider runs with an empty credential set")
}

func TestCreatePaymentDelegatesWithResolvedConfig(t *testing.T) {
	want := &payment.Intent{
		Token:        "TOK123",
		RedirectURL:  "https://pay.example/TOK123",
		Amount:       45,
		Status:       payment.StatusPending,
		ProviderCode: credential.ProviderRegionalToken,
	}
	stub := &stubProvider{
		code:     credential.ProviderRegionalToken,
		createFn: func() (*payment.Intent, error) { return want, nil },
	}
	o := newOrchestrator(t, configuredRepo(t, credential.ProviderRegionalToken), stub)

	res := o.CreatePayment(context.Background(), credential.ProviderRegionalToken, provider.PaymentRequest{Amount: 45})

	assert.True(t, res.OK)
	assert.Nil(t, res.Err)
	assert.Equal(t, want, res.Data)

	require.NotNil(t, stub.lastCfg)
	assert.Equal(t, "tok-1", stub.lastCfg.Credential(credential.FieldAPIToken), "adapter must see decoded credentials")
}

func TestCreatePaymentPassesValidationErrorThrough(t *testing.T) {
	verr := provider.NewValidationError("email", "email is required")
	stub := &stubProvider{code: credential.ProviderRegionalToken, createErr: verr}
	o := newOrchestrator(t, configuredRepo(t, credential.ProviderRegionalToken), stub)

	res := o.CreatePayment(context.Background(), credential.ProviderRegionalToken, provider.PaymentRequest{})

	assert.False(t, res.OK)
	assert.Same(t, verr, res.Err)
}

func TestCreatePaymentWrapsUnstructuredErrors(t *testing.T) {
	stub := &stubProvider{
		code:      credential.ProviderRegionalToken,
		createErr: errors.New("connection reset"),
	}
	o := newOrchestrator(t, configuredRepo(t, credential.ProviderRegionalToken), stub)

	res := o.CreatePayment(context.Background(), credential.ProviderRegionalToken, provider.PaymentRequest{})

	assert.False(t, res.OK)
	require.NotNil(t, res.Err)
	assert.Equal(t, provider.ErrUpstreamUnavailable, res.Err.Code)
}

func TestCheckStatusNormalizesPaidFlag(t *testing.T) {
	stub := &stubProvider{
		code: credential.ProviderRegionalToken,
		statusFn: func(token string) (*payment.StatusResult, error) {
			return &payment.StatusResult{Token: token, PaymentStatus: true, RawStatus: payment.StatusPaid}, nil
		},
	}
	o := newOrchestrator(t, configuredRepo(t, credential.ProviderRegionalToken), stub)

	res := o.CheckStatus(context.Background(), credential.ProviderRegionalToken, "TOK123")

	assert.True(t, res.OK)
	data, okType := res.Data.(StatusData)
	require.True(t, okType)
	assert.Equal(t, "TOK123", data.Token)
	assert.True(t, data.PaymentStatus)
	assert.Equal(t, payment.StatusPaid, data.Status)
}

func TestCheckStatusServesConfirmedPaidFromCache(t *testing.T) {
	calls := 0
	stub := &stubProvider{
		code: credential.ProviderRegionalToken,
		statusFn: func(token string) (*payment.StatusResult, error) {
			calls++
			return &payment.StatusResult{Token: token, PaymentStatus: true, RawStatus: payment.StatusPaid}, nil
		},
	}
	o := newOrchestrator(t, configuredRepo(t, credential.ProviderRegionalToken), stub).
		WithStatusCache(cache.New("127.0.0.1:1"))

	first := o.CheckStatus(context.Background(), credential.ProviderRegionalToken, "TOK123")
	second := o.CheckStatus(context.Background(), credential.ProviderRegionalToken, "TOK123")

	assert.True(t, first.OK)
	assert.True(t, second.OK)
	assert.Equal(t, 1, calls, "a confirmed paid status must be served from the cache")

	data, okType := second.Data.(StatusData)
	require.True(t, okType)
	assert.True(t, data.PaymentStatus)
}

func TestCheckStatusUnknownToken(t *testing.T) {
	stub := &stubProvider{
		code: credential.ProviderRegionalToken,
		statusFn: func(string) (*payment.StatusResult, error) {
			return nil, &provider.ProviderError{Code: provider.ErrUnknownToken, Message: "no such payment"}
		},
	}
	o := newOrchestrator(t, configuredRepo(t, credential.ProviderRegionalToken), stub)

	res := o.CheckStatus(context.Background(), credential.ProviderRegionalToken, "NOPE")

	assert.False(t, res.OK)
	require.NotNil(t, res.Err)
	assert.Equal(t, provider.ErrUnknownToken, res.Err.Code)
}
