package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	// Match resolves the campaign for a completed job: first campaign whose
	// service-type scope matches, otherwise the "all services" campaign,
	// otherwise nil.
	Match(accountID int, serviceType string) (*model.Campaign, error)
	ListCampaigns(accountID, offset, limit int) ([]*model.Campaign, int, error)
	GetCampaignStats(campaignID int) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// Create inserts the campaign and its touches in one transaction.
func (r *CampaignRepository) Create(c *model.Campaign) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO campaigns (account_id, name, service_type, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	if err := tx.QueryRow(query, c.AccountID, c.Name, c.ServiceType, c.CreatedAt).Scan(&c.ID); err != nil {
		return err
	}

	for i := range c.Touches {
		t := &c.Touches[i]
		t.CampaignID = c.ID
		err := tx.QueryRow(
			`INSERT INTO touches (campaign_id, seq, channel, delay_hours, template_id)
             VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			t.CampaignID, t.Seq, t.Channel, t.DelayHours, t.TemplateID,
		).Scan(&t.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, account_id, name, service_type, created_at, updated_at
        FROM campaigns WHERE id = $1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.AccountID, &c.Name, &c.ServiceType, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if err := r.loadTouches(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) loadTouches(c *model.Campaign) error {
	rows, err := r.DB.Query(
		`SELECT id, campaign_id, seq, channel, delay_hours, template_id
         FROM touches WHERE campaign_id = $1 ORDER BY seq ASC`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Touches = []model.Touch{}
	for rows.Next() {
		var t model.Touch
		if err := rows.Scan(&t.ID, &t.CampaignID, &t.Seq, &t.Channel, &t.DelayHours, &t.TemplateID); err != nil {
			return err
		}
		c.Touches = append(c.Touches, t)
	}
	return rows.Err()
}

// Match prefers the oldest service-specific campaign; falls back to the
// "all services" campaign; returns nil when nothing matches.
func (r *CampaignRepository) Match(accountID int, serviceType string) (*model.Campaign, error) {
	query := `
        SELECT id FROM campaigns
        WHERE account_id = $1 AND service_type IN ($2, $3)
        ORDER BY CASE WHEN service_type = $2 THEN 0 ELSE 1 END, id ASC
        LIMIT 1
    `
	var id int
	err := r.DB.QueryRow(query, accountID, serviceType, model.ServiceScopeAll).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *CampaignRepository) ListCampaigns(accountID, offset, limit int) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := fmt.Sprintf(`
        SELECT id, account_id, name, service_type, created_at, updated_at
        FROM campaigns WHERE account_id = $1
        ORDER BY id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.DB.Query(query, accountID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.ServiceType, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaigns WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	for _, c := range campaigns {
		if err := r.loadTouches(c); err != nil {
			return nil, 0, err
		}
	}

	return campaigns, total, nil
}

// GetCampaignStats counts send-log rows by status for a campaign.
func (r *CampaignRepository) GetCampaignStats(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM send_logs WHERE campaign_id = $1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		model.SendPending: 0,
		model.SendSent:    0,
		model.SendFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
