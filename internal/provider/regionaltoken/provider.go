// Package regionaltoken adapts the regional token-based payment
// gateway: authentication via a vendor-scoped API token, payments
// addressed by an opaque 32 character token.
package regionaltoken

import (
	"context"
	"fmt"

	"paygate/internal/config"
	"paygate/internal/domain/credential"
	"paygate/internal/domain/payment"
	"paygate/internal/provider"
	"paygate/internal/provider/base"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Provider struct {
	cfg       config.Cfg
	validator *base.RequestValidator
	demo      *base.DemoArena
}

func New(cfg config.Cfg) *Provider {
	return &Provider{
		cfg:       cfg,
		validator: base.NewRequestValidator(),
		demo:      base.NewDemoArena(),
	}
}

func (p *Provider) Code() credential.ProviderCode { return credential.ProviderRegionalToken }
func (p *Provider) Name() string                  { return "Regional Token Gateway" }

func (p *Provider) RequiredCredentialFields() []provider.CredentialField {
	return []provider.CredentialField{
		{Name: credential.FieldAPIToken, DisplayName: "API Token", Type: "password", Required: true},
		{Name: credential.FieldVendorID, DisplayName: "Vendor ID", Type: "text", Required: true},
		{
			Name: credential.FieldEnvironment, DisplayName: "Environment", Type: "select",
			Required: true, Options: []string{"test", "live"},
		},
	}
}

func (p *Provider) CreatePayment(ctx context.Context, cfg *credential.ProviderConfig, req provider.PaymentRequest) (*payment.Intent, error) {
	if verr := p.validator.ValidateCreate(&req); verr != nil {
		return nil, verr
	}

	token := cfg.Credential(credential.FieldAPIToken)
	vendor := cfg.Credential(credential.FieldVendorID)
	if !base.HasLiveCredentials(token, vendor) {
		return p.demoCreate(req), nil
	}

	intent, err := p.liveCreate(ctx, cfg, req, token, vendor)
	if err == nil {
		return intent, nil
	}

	if p.cfg.Providers.DemoFallback {
		log.Warn().
			Str("provider", string(p.Code())).
			Err(err).
			Msg("live payment creation failed, falling back to demo mode")
		return p.demoCreate(req), nil
	}
	return nil, err
}

func (p *Provider) CheckStatus(ctx context.Context, cfg *credential.ProviderConfig, token string) (*payment.StatusResult, error) {
	// Demo tokens first: they exist whenever the adapter synthesized
	// an intent, including after a live-failure fallback.
	if res, ok := p.demo.ObserveResult(token); ok {
		return res, nil
	}

	apiToken := cfg.Credential(credential.FieldAPIToken)
	vendor := cfg.Credential(credential.FieldVendorID)
	if !base.HasLiveCredentials(apiToken, vendor) {
		return nil, &provider.ProviderError{
			Code:    provider.ErrUnknownToken,
			Message: fmt.Sprintf("no payment found for token %s", token),
		}
	}
	return p.liveStatus(ctx, cfg, token, apiToken)
}

// Ping verifies the configuration can reach the gateway. Demo-grade
// credentials are reported as a configuration error, not probed.
func (p *Provider) Ping(ctx context.Context, cfg *credential.ProviderConfig) error {
	token := cfg.Credential(credential.FieldAPIToken)
	vendor := cfg.Credential(credential.FieldVendorID)
	if !base.HasLiveCredentials(token, vendor) {
		return &provider.ProviderError{
			Code:    provider.ErrProviderNotConfigured,
			Message: "api_token and vendor_id are required for a live connection",
		}
	}

	client := p.client(cfg)
	resp, err := client.Get(ctx, "/payments/ping", p.authHeaders(token))
	if err != nil {
		return &provider.ProviderError{
			Code:    provider.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("gateway unreachable: %v", err),
		}
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return &provider.ProviderError{
			Code:    provider.ErrProviderNotConfigured,
			Message: "gateway rejected the API token",
		}
	}
	return nil
}

func (p *Provider) demoCreate(req provider.PaymentRequest) *payment.Intent {
	intent := p.demo.SynthesizeIntent(p.Code(), req.Amount, p.cfg.App.BaseURL)
	log.Info().
		Str("provider", string(p.Code())).
		Str("token", intent.Token).
		Float64("amount", req.Amount).
		Msg("demo payment created")
	return intent
}

type createReq struct {
	Amount     float64 `json:"amount"`
	Note       string  `json:"note"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Vendor     string  `json:"vendor"`
	OrderRef   string  `json:"order_ref,omitempty"`
	ReturnURL  string  `json:"return_url,omitempty"`
	WebhookURL string  `json:"webhook_url,omitempty"`
}

type createResp struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Token      string `json:"token"`
		PaymentURL string `json:"payment_url"`
	} `json:"data"`
}

func (p *Provider) liveCreate(ctx context.Context, cfg *credential.ProviderConfig, req provider.PaymentRequest, apiToken, vendor string) (*payment.Intent, error) {
	client := p.client(cfg)

	headers := p.authHeaders(apiToken)
	// Client-side retries must not create a second payment.
	headers["Idempotency-Key"] = uuid.NewString()

	resp, err := client.PostJSON(ctx, "/payments/create", createReq{
		Amount:     req.Amount,
		Note:       req.Note,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Vendor:     vendor,
		OrderRef:   req.OrderRef,
		ReturnURL:  req.ReturnURL,
		WebhookURL: cfg.WebhookURL,
	}, headers)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("payment creation failed: %v", err),
		}
	}

	var out createResp
	if derr := resp.Decode(&out); derr != nil || !resp.IsSuccess() || !out.Status || out.Data.Token == "" {
		return nil, &provider.ProviderError{
			Code:    provider.ErrProviderRejected,
			Message: fmt.Sprintf("gateway refused payment creation (status %d): %s", resp.StatusCode, out.Message),
		}
	}

	return payment.NewIntent(p.Code(), out.Data.Token, out.Data.PaymentURL, req.Amount, payment.StatusPending, false)
}

type statusResp struct {
	Status bool `json:"status"`
	Data   struct {
		PaymentStatus bool    `json:"payment_status"`
		Amount        float64 `json:"amount"`
	} `json:"data"`
}

func (p *Provider) liveStatus(ctx context.Context, cfg *credential.ProviderConfig, token, apiToken string) (*payment.StatusResult, error) {
	client := p.client(cfg)

	var out statusResp
	var lastStatus int
	err := base.RetryStatusCheck(ctx, func() error {
		resp, err := client.Get(ctx, "/payments/"+token+"/check", p.authHeaders(apiToken))
		if err != nil {
			// Transient transport failure; retried with a fixed delay.
			return err
		}
		lastStatus = resp.StatusCode
		if resp.StatusCode == 404 {
			return base.Permanent(fmt.Errorf("token not found"))
		}
		if !resp.IsSuccess() {
			return base.Permanent(fmt.Errorf("gateway returned status %d", resp.StatusCode))
		}
		return resp.Decode(&out)
	})
	if err != nil {
		if lastStatus == 404 {
			return nil, &provider.ProviderError{
				Code:    provider.ErrUnknownToken,
				Message: fmt.Sprintf("no payment found for token %s", token),
			}
		}
		return nil, &provider.ProviderError{
			Code:    provider.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("status check failed: %v", err),
		}
	}

	status := payment.StatusPending
	if out.Data.PaymentStatus {
		status = payment.StatusPaid
	}
	return &payment.StatusResult{Token: token, PaymentStatus: status.Paid(), RawStatus: status}, nil
}

func (p *Provider) client(cfg *credential.ProviderConfig) *base.HTTPClient {
	return base.NewHTTPClient(string(p.Code()), p.baseURL(cfg), p.cfg.Providers.HTTPTimeout)
}

func (p *Provider) authHeaders(apiToken string) map[string]string {
	return map[string]string{"Authorization": "Token " + apiToken}
}

// baseURL prefers the stored configuration and falls back to the
// environment-level default for the configured environment.
func (p *Provider) baseURL(cfg *credential.ProviderConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if cfg.Environment == credential.EnvironmentLive {
		return p.cfg.Providers.RegionalTokenLiveURL
	}
	return p.cfg.Providers.RegionalTokenTestURL
}
