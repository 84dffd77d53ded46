// internal/model/job.go
package model

import "time"

const (
	JobStatusScheduled = "scheduled"
	JobStatusCompleted = "completed"
	JobStatusDoNotSend = "do_not_send"
)

// OverrideOneOff on a job means "no sequence": the job exposes a single
// ad-hoc send opportunity and no enrollment is ever created for it.
const OverrideOneOff = "one_off"

// Job is owned by an external collaborator. The core only reads it and writes
// the enrollment resolution recorded against it.
type Job struct {
	ID          int        `db:"id" json:"id"`
	AccountID   int        `db:"account_id" json:"account_id"`
	CustomerID  int        `db:"customer_id" json:"customer_id"`
	ServiceType string     `db:"service_type" json:"service_type"`
	Status      string     `db:"status" json:"status"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	// CampaignOverride is empty (auto-match), OverrideOneOff, or a decimal
	// campaign id.
	CampaignOverride string     `db:"campaign_override" json:"campaign_override,omitempty"`
	Resolution       Resolution `db:"resolution" json:"resolution"`
}

func (j *Job) Completed() bool {
	return j.Status == JobStatusCompleted && j.CompletedAt != nil
}
