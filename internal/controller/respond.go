// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the service error taxonomy onto HTTP statuses: validation
// 400, not-found 404, invalid-state 409, quota 429, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var vErr *appErrors.ErrValidation
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": vErr.Fields})
		return
	}

	var quotaErr *appErrors.ErrQuotaExceeded
	if errors.As(err, &quotaErr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":     quotaErr.Error(),
			"remaining": quotaErr.Remaining,
		})
		return
	}

	var notEligible *appErrors.ErrNotEligible
	if errors.As(err, &notEligible) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": notEligible.Error(), "reason": notEligible.Reason})
		return
	}

	if appErrors.IsInvalidState(err) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		return
	}

	var campaignNF *appErrors.ErrCampaignNotFound
	var customerNF *appErrors.ErrCustomerNotFound
	var jobNF *appErrors.ErrJobNotFound
	if errors.As(err, &campaignNF) || errors.As(err, &customerNF) || errors.As(err, &jobNF) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
}

// validateBody reports validator failures field by field, rejected before any
// side effect.
func validateBody(v *validator.Validate, body any) error {
	err := v.Struct(body)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = "failed validation: " + fe.Tag()
	}
	return appErrors.NewValidation(fields)
}

// accountID resolves the acting account. Authentication is an external
// collaborator's concern; the gateway forwards the account in a header.
func accountID(r *http.Request) int {
	if h := r.Header.Get("X-Account-ID"); h != "" {
		if id, err := strconv.Atoi(h); err == nil && id > 0 {
			return id
		}
	}
	return 1
}
