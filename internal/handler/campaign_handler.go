// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/repository"
)

// CampaignHandler serves the campaign detail view with send stats.
type CampaignHandler struct {
	Repo repository.CampaignRepositoryInterface
}

type campaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (h *CampaignHandler) GetCampaignWithStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	campaign, err := h.Repo.GetByID(id)
	if err != nil {
		http.Error(w, "failed to fetch campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	stats, err := h.Repo.GetCampaignStats(id)
	if err != nil {
		http.Error(w, "failed to fetch campaign stats: "+err.Error(), http.StatusInternalServerError)
		return
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaignDetails{Campaign: campaign, Stats: stats})
}
