// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/repository"
)

type CampaignController struct {
	Campaigns repository.CampaignRepositoryInterface
	Validate  *validator.Validate
}

type touchPayload struct {
	Seq        int    `json:"seq" validate:"required,gte=1,lte=4"`
	Channel    string `json:"channel" validate:"required,oneof=email sms"`
	DelayHours int    `json:"delay_hours" validate:"required,gte=1,lte=720"`
	TemplateID *int   `json:"template_id" validate:"omitempty,gt=0"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string         `json:"name" validate:"required"`
		ServiceType string         `json:"service_type"`
		Touches     []touchPayload `json:"touches" validate:"required,min=1,max=4,dive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validateBody(c.Validate, body); err != nil {
		writeError(w, err)
		return
	}

	touches := make([]model.Touch, len(body.Touches))
	for i, t := range body.Touches {
		touches[i] = model.Touch{
			Seq:        t.Seq,
			Channel:    t.Channel,
			DelayHours: t.DelayHours,
			TemplateID: t.TemplateID,
		}
	}

	campaign, err := model.NewCampaign(accountID(r), body.Name, body.ServiceType, touches)
	if err != nil {
		writeError(w, appErrors.NewValidation(map[string]string{"touches": err.Error()}))
		return
	}

	if err := c.Campaigns.Create(campaign); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := c.Campaigns.ListCampaigns(accountID(r), offset, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	writeJSON(w, http.StatusOK, map[string]any{
		"data": campaigns,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}
