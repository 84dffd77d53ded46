// internal/controller/customer_controller.go
package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/touchloop/touchloop-backend/internal/repository"
	"github.com/touchloop/touchloop-backend/internal/service"
)

type CustomerController struct {
	Customers repository.CustomerRepositoryInterface
}

// GetEligibility exposes the pure eligibility check for the operator UI.
func (c *CustomerController) GetEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	customer, err := c.Customers.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	elig := service.CheckEligibility(customer, time.Now(), service.DefaultCooldown)
	resp := map[string]any{
		"customer_id": id,
		"eligible":    elig.Eligible,
	}
	if !elig.Eligible {
		resp["reason"] = elig.Reason
		if elig.Reason == service.ReasonCooldown {
			resp["days_remaining"] = elig.DaysRemaining
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
