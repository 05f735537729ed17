package payment

import (
	"context"
	"errors"
	"time"

	"paygate/internal/cache"
	"paygate/internal/domain/credential"
	"paygate/internal/domain/payment"
	"paygate/internal/provider"
	"paygate/internal/services/gatewayconfig"

	"github.com/rs/zerolog/log"
)

// Paid is a terminal state, so a confirmed status can be served from
// the cache instead of re-asking the provider.
const paidStatusTTL = 24 * time.Hour

// Result is the uniform envelope handed to request handlers. Callers
// never branch on provider identity, only on Err.Code.
type Result struct {
	OK   bool                    `json:"success"`
	Data any                     `json:"data,omitempty"`
	Err  *provider.ProviderError `json:"error,omitempty"`
}

// StatusData is the normalized status payload: a boolean paid flag
// alongside the canonical status string.
type StatusData struct {
	Token         string         `json:"token"`
	PaymentStatus bool           `json:"payment_status"`
	Status        payment.Status `json:"status"`
}

// Orchestrator dispatches payment operations to the adapter matching a
// provider code. It is the only component that branches on provider
// identity.
type Orchestrator struct {
	resolver *gatewayconfig.Resolver
	registry *provider.Registry
	// demoFallback lets checkout proceed in demo mode when a provider
	// has no stored configuration. With it off, an unconfigured
	// provider is reported explicitly instead.
	demoFallback bool
	// statusCache short-circuits status checks for payments already
	// confirmed paid. Optional; nil disables caching.
	statusCache *cache.Cache
}

func NewOrchestrator(resolver *gatewayconfig.Resolver, registry *provider.Registry, demoFallback bool) *Orchestrator {
	return &Orchestrator{resolver: resolver, registry: registry, demoFallback: demoFallback}
}

// WithStatusCache enables serving confirmed-paid statuses from the
// cache.
func (o *Orchestrator) WithStatusCache(c *cache.Cache) *Orchestrator {
	o.statusCache = c
	return o
}

// CreatePayment resolves the provider's live configuration, dispatches
// to its adapter and re-shapes the outcome into the uniform envelope.
func (o *Orchestrator) CreatePayment(ctx context.Context, code credential.ProviderCode, req provider.PaymentRequest) Result {
	p, cfg, perr := o.dispatch(ctx, code)
	if perr != nil {
		return fail(perr)
	}

	intent, err := p.CreatePayment(ctx, cfg, req)
	if err != nil {
		return fail(classify(err))
	}

	log.Info().
		Str("provider", string(code)).
		Str("token", intent.Token).
		Bool("demo", intent.Demo).
		Msg("payment created")
	return ok(intent)
}

// CheckStatus resolves the provider's configuration and asks its
// adapter for the payment's current state.
func (o *Orchestrator) CheckStatus(ctx context.Context, code credential.ProviderCode, token string) Result {
	if o.statusCache != nil {
		if raw, hit := o.statusCache.Get(ctx, statusKey(code, token)); hit && payment.Status(raw).Paid() {
			return ok(StatusData{Token: token, PaymentStatus: true, Status: payment.StatusPaid})
		}
	}

	p, cfg, perr := o.dispatch(ctx, code)
	if perr != nil {
		return fail(perr)
	}

	status, err := p.CheckStatus(ctx, cfg, token)
	if err != nil {
		return fail(classify(err))
	}

	if o.statusCache != nil && status.PaymentStatus {
		o.statusCache.Set(ctx, statusKey(code, token), string(payment.StatusPaid), paidStatusTTL)
	}

	return ok(StatusData{
		Token:         status.Token,
		PaymentStatus: status.PaymentStatus,
		Status:        status.RawStatus,
	})
}

func statusKey(code credential.ProviderCode, token string) string {
	return "paystatus:" + string(code) + ":" + token
}

// dispatch performs the two lookups every operation needs: adapter by
// code, then resolved configuration.
func (o *Orchestrator) dispatch(ctx context.Context, code credential.ProviderCode) (provider.Provider, *credential.ProviderConfig, *provider.ProviderError) {
	p, err := o.registry.Get(code)
	if err != nil {
		return nil, nil, classify(err)
	}

	cfg, err := o.resolver.GetProviderConfig(ctx, code)
	if err != nil {
		if errors.Is(err, gatewayconfig.ErrNotConfigured) {
			if o.demoFallback {
				log.Warn().Str("provider", string(code)).
					Msg("provider not configured; proceeding in demo mode")
				return p, &credential.ProviderConfig{
					ProviderCode: code,
					Environment:  credential.EnvironmentTest,
					Credentials:  map[string]string{},
				}, nil
			}
			return nil, nil, &provider.ProviderError{
				Code:    provider.ErrProviderNotConfigured,
				Message: "provider " + string(code) + " is not configured or not active",
			}
		}
		log.Error().Err(err).Str("provider", string(code)).Msg("configuration resolution failed")
		return nil, nil, classify(err)
	}
	return p, cfg, nil
}

func ok(data any) Result {
	return Result{OK: true, Data: data}
}

func fail(err *provider.ProviderError) Result {
	return Result{OK: false, Err: err}
}

// classify maps any error to the structured shape. Adapter errors are
// already structured; anything else is infrastructure trouble.
func classify(err error) *provider.ProviderError {
	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &provider.ProviderError{
		Code:    provider.ErrUpstreamUnavailable,
		Message: err.Error(),
	}
}
