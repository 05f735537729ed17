package httpx

import (
	"encoding/json"
	"net/http"

	"paygate/internal/config"
	"paygate/internal/http/handlers"
	middlewarex "paygate/internal/http/middleware"
	"paygate/internal/provider"
	"paygate/internal/services/gatewayconfig"
	paysvc "paygate/internal/services/payment"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Config        config.Cfg
	ConfigService *gatewayconfig.Service
	Orchestrator  *paysvc.Orchestrator
	Registry      *provider.Registry
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"message": "PayGate API running",
		})
	})

	// Admin routes (protected by admin token)
	r.Route("/admin/providers", func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.Config))

		r.Get("/", handlers.ListConfigs(deps.ConfigService))
		r.Post("/", handlers.SaveConfig(deps.ConfigService))
		r.Get("/types", handlers.ListProviderTypes(deps.Registry))
		r.Get("/active", handlers.GetActiveProviders(deps.ConfigService))
		r.Post("/validate", handlers.ValidateConfig())

		r.Post("/{provider}/activate", handlers.ActivateProvider(deps.ConfigService))
		r.Post("/{provider}/deactivate", handlers.DeactivateProvider(deps.ConfigService))
		r.Post("/{provider}/test", handlers.TestProvider(deps.ConfigService))
	})

	// Public payment routes
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/{provider}", handlers.CreatePayment(deps.Orchestrator))
		r.Get("/{provider}/status/{token}", handlers.CheckStatus(deps.Orchestrator))
	})

	// Demo checkout landing page; the synthesized redirect URLs point
	// here when a provider runs in demo mode.
	r.Get("/demo/checkout/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"demo":    true,
			"token":   chi.URLParam(r, "token"),
			"message": "simulated checkout; the first status check reports this payment as paid",
		})
	})

	return r
}
