// internal/model/customer.go
package model

import "time"

// Customer is a send recipient. The core never creates or deletes customers;
// it only reads contact/eligibility fields and bumps the send counters after
// a successful send.
type Customer struct {
	ID         int        `db:"id" json:"id"`
	AccountID  int        `db:"account_id" json:"account_id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Email      string     `db:"email" json:"email"`
	EmailValid bool       `db:"email_valid" json:"email_valid"`
	Phone      string     `db:"phone" json:"phone"`
	PhoneValid bool       `db:"phone_valid" json:"phone_valid"`
	OptedOut   bool       `db:"opted_out" json:"opted_out"`
	Archived   bool       `db:"archived" json:"archived"`
	LastSentAt *time.Time `db:"last_sent_at" json:"last_sent_at,omitempty"`
	SendCount  int        `db:"send_count" json:"send_count"`
}

// PreferredChannel picks the channel for ad-hoc sends: email when the address
// is usable, otherwise SMS.
func (c *Customer) PreferredChannel() string {
	if c.Email != "" && c.EmailValid {
		return ChannelEmail
	}
	return ChannelSMS
}
