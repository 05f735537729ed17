package globalcheckout

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

func validRequest() provider.PaymentRequest {
	return provider.PaymentRequest{Amount: 120.50, Note: "order-9", Email: "x@y.io", FirstName: "A", LastName: "B"}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(12050), minorUnits(120.50))
	assert.Equal(t, int64(100), minorUnits(1))
	assert.Equal(t, int64(4500), minorUnits(45))
}

func TestDemoModeWithMissingMerchantAccount(t *testing.T) {
	p := New(testCfg())
	cfg := &credential.ProviderConfig{
		ProviderCode: credential.ProviderGlobalCheckout,
		Environment:  credential.EnvironmentTest,
		Credentials:  map[string]string{credential.FieldAPIKey: "real-key"},
	}

	intent, err := p.CreatePayment(context.Background(), cfg, validRequest())
	require.NoError(t, err)
	assert.True(t, intent.Demo)
	assert.Equal(t, payment.StatusPending, intent.Status)

	res, err := p.CheckStatus(context.Background(), cfg, intent.Token)
	require.NoError(t, err)
	assert.True(t, res.PaymentStatus)
}

func TestLiveSessionCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions", r.URL.Path)
		require.Equal(t, "sk-live", r.Header.Get("X-API-Key"))
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		var body sessionReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(12050), body.Amount.Value)
		assert.Equal(t, "acct-1", body.MerchantAccount)

		json.NewEncoder(w).Encode(map[string]any{
			"id":         "CS_8f3a",
			"url":        "https://checkout/cs_8f3a",
			"resultCode": "Pending",
		})
	}))
	defer srv.Close()

	p := New(testCfg())
	cfg := &credential.ProviderConfig{
		ProviderCode: credential.ProviderGlobalCheckout,
		Environment:  credential.EnvironmentTest,
		BaseURL:      srv.URL,
		Credentials: map[string]string{
			credential.FieldAPIKey:          "sk-live",
			credential.FieldMerchantAccount: "acct-1",
		},
	}

	intent, err := p.CreatePayment(context.Background(), cfg, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "CS_8f3a", intent.Token)
	assert.Equal(t, payment.StatusPending, intent.Status)
	assert.False(t, intent.Demo)
}

func TestLiveStatusAuthorisedMapsToPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "CS_1", "resultCode": "Authorised"})
	}))
	defer srv.Close()

	p := New(testCfg())
	cfg := &credential.ProviderConfig{
		ProviderCode: credential.ProviderGlobalCheckout,
		BaseURL:      srv.URL,
		Credentials: map[string]string{
			credential.FieldAPIKey:          "sk-live",
			credential.FieldMerchantAccount: "acct-1",
		},
	}

	res, err := p.CheckStatus(context.Background(), cfg, "CS_1")
	require.NoError(t, err)
	assert.True(t, res.PaymentStatus)
	assert.Equal(t, payment.StatusPaid, res.RawStatus)
}

func TestPingReportsMissingConfiguration(t *testing.T) {
	p := New(testCfg())
	err := p.Ping(context.Background(), &credential.ProviderConfig{Credentials: map[string]string{}})

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrProviderNotConfigured, perr.Code)
}
