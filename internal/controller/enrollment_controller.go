// internal/controller/enrollment_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/service"
)

type EnrollmentController struct {
	Enrollments *service.EnrollmentService
	Validate    *validator.Validate
}

func (c *EnrollmentController) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		JobID int `json:"job_id" validate:"required,gt=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validateBody(c.Validate, body); err != nil {
		writeError(w, err)
		return
	}

	result, err := c.Enrollments.EvaluateJob(body.JobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *EnrollmentController) Resolve(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.Atoi(chi.URLParam(r, "jobID"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	var body struct {
		Action string `json:"action" validate:"required,oneof=replace skip queue_after"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validateBody(c.Validate, body); err != nil {
		writeError(w, err)
		return
	}

	result, err := c.Enrollments.ResolveConflict(jobID, model.ResolveAction(body.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *EnrollmentController) Revert(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.Atoi(chi.URLParam(r, "jobID"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	result, err := c.Enrollments.Revert(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *EnrollmentController) GetResolution(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := c.Enrollments.Jobs.GetByID(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":     job.ID,
		"resolution": job.Resolution,
	})
}
