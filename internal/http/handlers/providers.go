package handlers

import (
	"encoding/json"
	"net/http"

	"paygate/internal/domain/credential"
	"paygate/internal/provider"
	"paygate/internal/services/gatewayconfig"

	"github.com/go-chi/chi/v5"
)

// ListProviderTypes returns the registered adapters and the credential
// fields each one needs, for the configuration UI.
func ListProviderTypes(registry *provider.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, registry.AllInfo())
	}
}

// ListConfigs returns every stored configuration, secrets redacted.
func ListConfigs(svc *gatewayconfig.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// GetActiveProviders returns the currently active configuration(s),
// secrets redacted.
func GetActiveProviders(svc *gatewayconfig.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.GetActiveProviders(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// SaveConfig creates or replaces a provider configuration. Secret
// fields are encoded before they reach storage.
func SaveConfig(svc *gatewayconfig.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gatewayconfig.SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		rec, err := svc.Save(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// ValidateConfig runs the pure configuration checks without touching
// storage, so operators can verify before saving.
func ValidateConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProviderCode credential.ProviderCode `json:"provider_code"`
			Fields       map[string]string       `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, gatewayconfig.ValidateProviderConfig(req.ProviderCode, req.Fields))
	}
}

// ActivateProvider marks one provider active; every other provider is
// deactivated so at most one is live at a time.
func ActivateProvider(svc *gatewayconfig.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := credential.ProviderCode(chi.URLParam(r, "provider"))
		if err := svc.Activate(r.Context(), code); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"provider": code, "active": true})
	}
}

func DeactivateProvider(svc *gatewayconfig.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := credential.ProviderCode(chi.URLParam(r, "provider"))
		if err := svc.Deactivate(r.Context(), code); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"provider": code, "active": false})
	}
}

// TestProvider pings the provider with the stored configuration.
func TestProvider(svc *gatewayconfig.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := credential.ProviderCode(chi.URLParam(r, "provider"))
		if err := svc.Test(r.Context(), code); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"provider": code, "reachable": true})
	}
}
