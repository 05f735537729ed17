package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"paygate/internal/domain/credential"
	"paygate/internal/provider"
	paysvc "paygate/internal/services/payment"

	"github.com/go-chi/chi/v5"
)

// Bounded context for provider calls so one slow upstream cannot stall
// a request indefinitely.
const providerCallTimeout = 20 * time.Second

func CreatePayment(orc *paysvc.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := credential.ProviderCode(chi.URLParam(r, "provider"))

		var req provider.PaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, paysvc.Result{
				OK:  false,
				Err: provider.NewValidationError("", "invalid JSON body"),
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), providerCallTimeout)
		defer cancel()

		writeResult(w, orc.CreatePayment(ctx, code, req))
	}
}

func CheckStatus(orc *paysvc.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := credential.ProviderCode(chi.URLParam(r, "provider"))
		token := chi.URLParam(r, "token")
		if token == "" {
			writeJSON(w, http.StatusBadRequest, paysvc.Result{
				OK:  false,
				Err: provider.NewValidationError("token", "token is required"),
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), providerCallTimeout)
		defer cancel()

		writeResult(w, orc.CheckStatus(ctx, code, token))
	}
}
