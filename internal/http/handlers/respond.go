package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"paygate/internal/provider"
	"paygate/internal/services/gatewayconfig"
	paysvc "paygate/internal/services/payment"
	"paygate/internal/store/repositories"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorStatus maps the structured error codes onto HTTP statuses.
func errorStatus(err *provider.ProviderError) int {
	switch err.Code {
	case provider.ErrValidation:
		return http.StatusBadRequest
	case provider.ErrUnknownProvider, provider.ErrUnknownToken:
		return http.StatusNotFound
	case provider.ErrProviderNotConfigured:
		return http.StatusConflict
	case provider.ErrProviderRejected, provider.ErrUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(w http.ResponseWriter, res paysvc.Result) {
	if res.OK {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, errorStatus(res.Err), res)
}

// writeError reshapes a service error into the same envelope the
// payment routes use.
func writeError(w http.ResponseWriter, err error) {
	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		writeJSON(w, errorStatus(perr), paysvc.Result{OK: false, Err: perr})
		return
	}
	if errors.Is(err, repositories.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, paysvc.Result{
			OK:  false,
			Err: &provider.ProviderError{Code: provider.ErrUnknownProvider, Message: "no such provider configuration"},
		})
		return
	}
	if errors.Is(err, gatewayconfig.ErrNotConfigured) {
		writeJSON(w, http.StatusConflict, paysvc.Result{
			OK:  false,
			Err: &provider.ProviderError{Code: provider.ErrProviderNotConfigured, Message: err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, paysvc.Result{
		OK:  false,
		Err: &provider.ProviderError{Code: provider.ErrUpstreamUnavailable, Message: err.Error()},
	})
}
