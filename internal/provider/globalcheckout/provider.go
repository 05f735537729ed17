// Package globalcheckout adapts the global checkout platform: API-key
// authenticated sessions against a merchant account, amounts in minor
// units.
package globalcheckout

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

func (p *Provider) Code() credential.ProviderCode { return credential.ProviderGlobalCheckout }
func (p *Provider) Name() string                  { return "Global Checkout Platform" }

func (p *Provider) RequiredCredentialFields() []provider.CredentialField {
	return []provider.CredentialField{
		{Name: credential.FieldAPIKey, DisplayName: "API Key", Type: "password", Required: true},
		{Name: credential.FieldMerchantAccount, DisplayName: "Merchant Account", Type: "text", Required: true},
		{Name: credential.FieldClientKey, DisplayName: "Client Key", Type: "text", Required: false},
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
	merchant := cfg.Credential(credential.FieldMerchantAccount)
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
	merchant := cfg.Credential(credential.FieldMerchantAccount)
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
	merchant := cfg.Credential(credential.FieldMerchantAccount)
	if !base.HasLiveCredentials(apiKey, merchant) {
		return &provider.ProviderError{
			Code:    provider.ErrProviderNotConfigured,
			Message: "api_key and merchant_account are required for a live connection",
		}
	}

	resp, err := p.client(cfg).Get(ctx, "/me", p.authHeaders(apiKey))
	if err != nil {
		return &provider.ProviderError{
			Code:    provider.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("platform unreachable: %v", err),
		}
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return &provider.ProviderError{
			Code:    provider.ErrProviderNotConfigured,
			Message: "platform rejected the API key",
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

// The platform expects amounts in minor units.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type sessionReq struct {
	Amount struct {
		Value    int64  `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
	MerchantAccount string `json:"merchantAccount"`
	Reference       string `json:"reference"`
	ShopperEmail    string `json:"shopperEmail"`
	ShopperName     struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"shopperName"`
	ReturnURL string `json:"returnUrl,omitempty"`
}

type sessionResp struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	ResultCode    string `json:"resultCode"`
	RefusalReason string `json:"refusalReason"`
}

func (p *Provider) liveCreate(ctx context.Context, cfg *credential.ProviderConfig, req provider.PaymentRequest, apiKey, merchant string) (*payment.Intent, error) {
	body := sessionReq{
		MerchantAccount: merchant,
		Reference:       req.OrderRef,
		ShopperEmail:    req.Email,
		ReturnURL:       req.ReturnURL,
	}
	body.Amount.Value = minorUnits(req.Amount)
	body.Amount.Currency = "EUR"
	body.ShopperName.FirstName = req.FirstName
	body.ShopperName.LastName = req.LastName
	if body.Reference == "" {
		body.Reference = req.Note
	}

	headers := p.authHeaders(apiKey)
	headers["Idempotency-Key"] = uuid.NewString()

	resp, err := p.client(cfg).PostJSON(ctx, "/sessions", body, headers)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("session creation failed: %v", err),
		}
	}

	var out sessionResp
	if derr := resp.Decode(&out); derr != nil || !resp.IsSuccess() || out.ID == "" {
		return nil, &provider.ProviderError{
			Code:    provider.ErrProviderRejected,
			Message: fmt.Sprintf("platform refused session creation (status %d): %s", resp.StatusCode, out.RefusalReason),
		}
	}

	return payment.NewIntent(p.Code(), out.ID, out.URL, req.Amount, payment.ParseStatus(out.ResultCode), false)
}

func (p *Provider) liveStatus(ctx context.Context, cfg *credential.ProviderConfig, token, apiKey string) (*payment.StatusResult, error) {
	client := p.client(cfg)

	var out sessionResp
	var lastStatus int
	err := base.RetryStatusCheck(ctx, func() error {
		resp, err := client.Get(ctx, "/sessions/"+token, p.authHeaders(apiKey))
		if err != nil {
			return err
		}
		lastStatus = resp.StatusCode
		if resp.StatusCode == 404 {
			return base.Permanent(fmt.Errorf("session not found"))
		}
		if !resp.IsSuccess() {
			return base.Permanent(fmt.Errorf("platform returned status %d", resp.StatusCode))
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

	status := payment.ParseStatus(out.ResultCode)
	return &payment.StatusResult{Token: token, PaymentStatus: status.Paid(), RawStatus: status}, nil
}

func (p *Provider) client(cfg *credential.ProviderConfig) *base.HTTPClient {
	return base.NewHTTPClient(string(p.Code()), p.baseURL(cfg), p.cfg.Providers.HTTPTimeout)
}

func (p *Provider) authHeaders(apiKey string) map[string]string {
	return map[string]string{"X-API-Key": apiKey}
}

func (p *Provider) baseURL(cfg *credential.ProviderConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if cfg.Environment == credential.EnvironmentLive {
		return p.cfg.Providers.GlobalCheckoutLiveURL
	}
	return p.cfg.Providers.GlobalCheckoutTestURL
}
