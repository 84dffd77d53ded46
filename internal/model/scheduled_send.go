// internal/model/scheduled_send.go
package model

import "time"

const (
	ScheduledPending    = "pending"
	ScheduledProcessing = "processing"
	ScheduledCompleted  = "completed"
	ScheduledFailed     = "failed"
	ScheduledCancelled  = "cancelled"
)

// ScheduledSend is a deferred batch send not tied to a campaign touch.
// Bulk cancel and reschedule operate only on pending rows. The processing
// status is a claim: the worker moves pending -> processing with a conditional
// update so two concurrent sweeps cannot both execute the same row.
type ScheduledSend struct {
	ID           int       `db:"id" json:"id"`
	AccountID    int       `db:"account_id" json:"account_id"`
	CustomerIDs  []int     `db:"customer_ids" json:"customer_ids"`
	TemplateID   *int      `db:"template_id" json:"template_id,omitempty"`
	Subject      string    `db:"subject" json:"subject,omitempty"`
	Body         string    `db:"body" json:"body,omitempty"`
	ScheduledFor time.Time `db:"scheduled_for" json:"scheduled_for"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
