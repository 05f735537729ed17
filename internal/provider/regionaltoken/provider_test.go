package regionaltoken

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"paygate/internal/config"
	"paygate/internal/domain/credential"
	"paygate/internal/domain/payment"
	"paygate/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCfg() config.Cfg {
	return config.Cfg{
		App:       config.AppCfg{Env: "test", BaseURL: "http://localhost:8080"},
		Providers: config.ProvidersCfg{DemoFallback: true},
	}
}

func demoConfig() *credential.ProviderConfig {
	return &credential.ProviderConfig{
		ProviderCode: credential.ProviderRegionalToken,
		Environment:  credential.EnvironmentTest,
		Credentials:  map[string]string{},
	}
}

func liveConfig(baseURL string) *credential.ProviderConfig {
	return &credential.ProviderConfig{
		ProviderCode: credential.ProviderRegionalToken,
		Environment:  credential.EnvironmentTest,
		BaseURL:      baseURL,
		Credentials: map[string]string{
			credential.FieldAPIToken: "tok-123",
			credential.FieldVendorID: "vendor-42",
		},
	}
}

func validRequest() provider.PaymentRequest {
	return provider.PaymentRequest{
		Amount:    45,
		Note:      "order-1",
		Email:     "a@b.com",
		FirstName: "J",
		LastName:  "D",
	}
}

func TestDemoModeCreateAndStatus(t *testing.T) {
	p := New(testCfg())
	ctx := context.Background()

	intent, err := p.CreatePayment(ctx, demoConfig(), validRequest())
	require.NoError(t, err)
	assert.Len(t, intent.Token, 32)
	assert.Equal(t, payment.StatusPending, intent.Status)
	assert.True(t, intent.Demo)
	assert.Contains(t, intent.RedirectURL, intent.Token)

	// First check flips Pending to Paid; every later check stays Paid.
	for i := 0; i < 3; i++ {
		res, err := p.CheckStatus(ctx, demoConfig(), intent.Token)
		require.NoError(t, err)
		assert.True(t, res.PaymentStatus)
	}
}

func TestValidationRejectsBeforeAnyAction(t *testing.T) {
	p := New(testCfg())
	ctx := context.Background()

	req := validRequest()
	req.Amount = 0
	_, err := p.CreatePayment(ctx, demoConfig(), req)

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrValidation, perr.Code)
	assert.Zero(t, p.demo.Len(), "validation failure must not touch demo state")
}

func TestPlaceholderCredentialsUseDemoMode(t *testing.T) {
	p := New(testCfg())
	cfg := demoConfig()
	cfg.Credentials = map[string]string{
		credential.FieldAPIToken: "your_api_token",
		credential.FieldVendorID: "changeme",
	}

	intent, err := p.CreatePayment(context.Background(), cfg, validRequest())
	require.NoError(t, err)
	assert.True(t, intent.Demo)
}

func TestLiveCreate(t *testing.T) {
	var gotIdempotency string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/create", r.URL.Path)
		require.Equal(t, "Token tok-123", r.Header.Get("Authorization"))
		gotIdempotency = r.Header.Get("Idempotency-Key")

		var body createReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 45.0, body.Amount)
		assert.Equal(t, "vendor-42", body.Vendor)

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"token":       "AB12CD34EF56AB12CD34EF56AB12CD34",
				"payment_url": "https://gateway/pay/AB12",
			},
		})
	}))
	defer srv.Close()

	p := New(testCfg())
	intent, err := p.CreatePayment(context.Background(), liveConfig(srv.URL), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "AB12CD34EF56AB12CD34EF56AB12CD34", intent.Token)
	assert.Equal(t, "https://gateway/pay/AB12", intent.RedirectURL)
	assert.False(t, intent.Demo)
	assert.NotEmpty(t, gotIdempotency, "creation calls must carry an idempotency key")
}

func TestLiveCreateFailureFallsBackToDemo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(testCfg())
	intent, err := p.CreatePayment(context.Background(), liveConfig(srv.URL), validRequest())
	require.NoError(t, err)
	assert.True(t, intent.Demo)

	// The synthesized token resolves through the demo arena even
	// though live credentials are configured.
	res, err := p.CheckStatus(context.Background(), liveConfig(srv.URL), intent.Token)
	require.NoError(t, err)
	assert.True(t, res.PaymentStatus)
}

func TestLiveCreateFailureSurfacesWhenFallbackDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testCfg()
	cfg.Providers.DemoFallback = false
	p := New(cfg)

	_, err := p.CreatePayment(context.Background(), liveConfig(srv.URL), validRequest())
	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrProviderRejected, perr.Code)
}

func TestLiveStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/TOK1/check", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"payment_status": true, "amount": 45.0},
		})
	}))
	defer srv.Close()

	p := New(testCfg())
	res, err := p.CheckStatus(context.Background(), liveConfig(srv.URL), "TOK1")
	require.NoError(t, err)
	assert.True(t, res.PaymentStatus)
	assert.Equal(t, payment.StatusPaid, res.RawStatus)
}

func TestLiveStatusRetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			// Drop the connection to simulate a transient network error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"payment_status": false},
		})
	}))
	defer srv.Close()

	p := New(testCfg())
	res, err := p.CheckStatus(context.Background(), liveConfig(srv.URL), "TOK2")
	require.NoError(t, err)
	assert.False(t, res.PaymentStatus)
	assert.Equal(t, 3, attempts)
}

func TestLiveStatusUnknownToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := New(testCfg())
	_, err := p.CheckStatus(context.Background(), liveConfig(srv.URL), "NOPE")

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrUnknownToken, perr.Code)
}

func TestDemoStatusUnknownToken(t *testing.T) {
	p := New(testCfg())
	_, err := p.CheckStatus(context.Background(), demoConfig(), "FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF")

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrUnknownToken, perr.Code)
}
