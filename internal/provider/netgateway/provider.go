// Package netgateway adapts the network payment gateway: wallet-style
// merchant accounts, payment references returned by an init call.
package netgateway

import (
	"context"
	"fmt"
	"math"

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

func (p *Provider) Code() credential.ProviderCode { return credential.ProviderNetworkGateway }
func (p *Provider) Name() string                  { return "Network Payment Gateway" }

func (p *Provider) RequiredCredentialFields() []provider.CredentialField {
	return []provider.CredentialField{
		{Name: credential.FieldAPIKey, DisplayName: "API Key", Type: "password", Required: true},
		{Name: credential.FieldMerchantID, DisplayName: "Merchant Wallet ID", Type: "text", Required: true},
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

	apiKey := cfg.Credential(credential.FieldAPIKey)
	merchant := cfg.Credential(credential.FieldMerchantID)
	if !base.HasLiveCredentials(apiKey, merchant) {
		return p.demoCreate(req), nil
	}

	intent, err := p.liveCreate(ctx, cfg, req, apiKey, merchant)
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
	if res, ok := p.demo.ObserveResult(token); ok {
		return res, nil
	}

	apiKey := cfg.Credential(credential.FieldAPIKey)
	merchant := cfg.Credential(credential.FieldMerchantID)
	if !base.HasLiveCredentials(apiKey, merchant) {
		return nil, &provider.ProviderError{
			Code:    provider.ErrUnknownToken,
			Message: fmt.Sprintf("no payment found for token %s", token),
		}
	}
	return p.liveStatus(ctx, cfg, token, apiKey)
}

func (p *Provider) Ping(ctx context.Context, cfg *credential.ProviderConfig) error {
	apiKey := cfg.Credential(credential.FieldAPIKey)
	merchant := cfg.Credential(credential.FieldMerchantID)
	if !base.HasLiveCredentials(apiKey, merchant) {
		return &provider.ProviderError{
			Code:    provider.ErrProviderNotConfigured,
			Message: "api_key and merchant_id are required for a live connection",
		}
	}

	resp, err := p.client(cfg).Get(ctx, "/wallets/"+merchant, p.authHeaders(apiKey))
	if err != nil {
		return &provider.ProviderError{
			Code:    provider.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("gateway unreachable: %v", err),
		}
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return &provider.ProviderError{
			Code:    provider.ErrProviderNotConfigured,
			Message: "gateway rejected the API key",
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

// The gateway prices in thousandths of the base unit.
func milliUnits(amount float64) int64 {
	return int64(math.Round(amount * 1000))
}

type initReq struct {
	ReceiverWalletID string `json:"receiverWalletId"`
	Amount           int64  `json:"amount"`
	Description      string `json:"description"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	OrderID          string `json:"orderId,omitempty"`
	SuccessURL       string `json:"successUrl,omitempty"`
	WebhookURL       string `json:"webhook,omitempty"`
}

type initResp struct {
	PayURL     string `json:"payUrl"`
	PaymentRef string `json:"paymentRef"`
	Message    string `json:"message"`
}

func (p *Provider) liveCreate(ctx context.Context, cfg *credential.ProviderConfig, req provider.PaymentRequest, apiKey, merchant string) (*payment.Intent, error) {
	headers := p.authHeaders(apiKey)
	headers["Idempotency-Key"] = uuid.NewString()

	resp, err := p.client(cfg).PostJSON(ctx, "/payments/init-payment", initReq{
		ReceiverWalletID: merchant,
		Amount:           milliUnits(req.Amount),
		Description:      req.Note,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		OrderID:          req.OrderRef,
		SuccessURL:       req.ReturnURL,
		WebhookURL:       cfg.WebhookURL,
	}, headers)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("payment init failed: %v", err),
		}
	}

	var out initResp
	if derr := resp.Decode(&out); derr != nil || !resp.IsSuccess() || out.PaymentRef == "" {
		return nil, &provider.ProviderError{
			Code:    provider.ErrProviderRejected,
			Message: fmt.Sprintf("gateway refused payment init (status %d): %s", resp.StatusCode, out.Message),
		}
	}

	return payment.NewIntent(p.Code(), out.PaymentRef, out.PayURL, req.Amount, payment.StatusPending, false)
}

type detailsResp struct {
	Payment struct {
		Status string `json:"status"`
	} `json:"payment"`
}

func (p *Provider) liveStatus(ctx context.Context, cfg *credential.ProviderConfig, token, apiKey string) (*payment.StatusResult, error) {
	client := p.client(cfg)

	var out detailsResp
	var lastStatus int
	err := base.RetryStatusCheck(ctx, func() error {
		resp, err := client.Get(ctx, "/payments/"+token, p.authHeaders(apiKey))
		if err != nil {
			return err
		}
		lastStatus = resp.StatusCode
		if resp.StatusCode == 404 {
			return base.Permanent(fmt.Errorf("payment not found"))
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

	status := payment.ParseStatus(out.Payment.Status)
	return &payment.StatusResult{Token: token, PaymentStatus: status.Paid(), RawStatus: status}, nil
}

func (p *Provider) client(cfg *credential.ProviderConfig) *base.HTTPClient {
	return base.NewHTTPClient(string(p.Code()), p.baseURL(cfg), p.cfg.Providers.HTTPTimeout)
}

func (p *Provider) authHeaders(apiKey string) map[string]string {
	return map[string]string{"x-api-key": apiKey}
}

func (p *Provider) baseURL(cfg *credential.ProviderConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if cfg.Environment == credential.EnvironmentLive {
		return p.cfg.Providers.NetworkGatewayLiveURL
	}
	return p.cfg.Providers.NetworkGatewayTestURL
}
