// internal/controller/send_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/touchloop/touchloop-backend/internal/service"
)

type SendController struct {
	Orchestrator *service.SendOrchestrator
	Scheduled    *service.ScheduledSendService
	Quota        *service.QuotaGate
	Validate     *validator.Validate
}

// CreateSend runs a batch immediately, or persists a scheduled send when
// scheduled_for is given.
func (c *SendController) CreateSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerIDs  []int      `json:"customer_ids" validate:"required,min=1,max=25,dive,gt=0"`
		TemplateID   *int       `json:"template_id" validate:"omitempty,gt=0"`
		Subject      string     `json:"subject"`
		Body         string     `json:"body"`
		ScheduledFor *time.Time `json:"scheduled_for"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validateBody(c.Validate, body); err != nil {
		writeError(w, err)
		return
	}

	acct := accountID(r)

	if body.ScheduledFor != nil {
		sched, err := c.Scheduled.Create(acct, body.CustomerIDs, body.TemplateID, body.Subject, body.Body, *body.ScheduledFor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"scheduled_send_id": sched.ID,
			"scheduled_for":     sched.ScheduledFor,
			"status":            sched.Status,
		})
		return
	}

	result, err := c.Orchestrator.SendBatch(acct, body.CustomerIDs, body.TemplateID, body.Subject, body.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *SendController) BulkCancel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []int `json:"ids" validate:"required,min=1,dive,gt=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validateBody(c.Validate, body); err != nil {
		writeError(w, err)
		return
	}

	if err := c.Scheduled.BulkCancel(body.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": len(body.IDs)})
}

func (c *SendController) BulkReschedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs     []int     `json:"ids" validate:"required,min=1,dive,gt=0"`
		NewTime time.Time `json:"new_time" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validateBody(c.Validate, body); err != nil {
		writeError(w, err)
		return
	}

	if err := c.Scheduled.BulkReschedule(body.IDs, body.NewTime); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rescheduled": len(body.IDs), "new_time": body.NewTime})
}

func (c *SendController) Resend(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid send log id", http.StatusBadRequest)
		return
	}

	result, err := c.Orchestrator.Resend(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *SendController) GetQuota(w http.ResponseWriter, r *http.Request) {
	remaining, err := c.Quota.Remaining(accountID(r), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"remaining": remaining})
}
