// internal/model/send_log.go
package model

import "time"

const (
	SendPending    = "pending"
	SendSent       = "sent"
	SendDelivered  = "delivered"
	SendFailed     = "failed"
	SendBounced    = "bounced"
	SendComplained = "complained"
)

// SendLog is one row of the append-only send ledger. A pending row is always
// written before the outbound call, so a crash mid-send leaves an auditable
// pending row rather than silent loss. Once a row leaves pending its status,
// provider id and error message are set exactly once.
type SendLog struct {
	ID         int    `db:"id" json:"id"`
	AccountID  int    `db:"account_id" json:"account_id"`
	CustomerID int    `db:"customer_id" json:"customer_id"`
	// Campaign attribution is nullable; ad-hoc sends carry none.
	EnrollmentID   *int      `db:"enrollment_id" json:"enrollment_id,omitempty"`
	CampaignID     *int      `db:"campaign_id" json:"campaign_id,omitempty"`
	TouchSeq       *int      `db:"touch_seq" json:"touch_seq,omitempty"`
	Channel        string    `db:"channel" json:"channel"`
	TemplateID     *int      `db:"template_id" json:"template_id,omitempty"`
	Status         string    `db:"status" json:"status"`
	ProviderID     string    `db:"provider_id" json:"provider_id,omitempty"`
	ErrorMessage   string    `db:"error_message" json:"error_message,omitempty"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Resendable reports whether an operator may explicitly resend this log's
// message. Resend is never automatic.
func (l *SendLog) Resendable() bool {
	return l.Status == SendFailed || l.Status == SendBounced
}
