// internal/model/campaign.go
package model

import (
	"fmt"
	"time"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// ServiceScopeAll marks a campaign that matches every service type. It is the
// fallback when no service-specific campaign matches a completed job.
const ServiceScopeAll = "all"

// MaxTouches caps the length of a touch sequence.
const MaxTouches = 4

// Campaign is an ordered touch sequence scoped to a service type. Campaigns
// are immutable while an enrollment is active; edits only affect new
// enrollments.
type Campaign struct {
	ID          int        `db:"id" json:"id"`
	AccountID   int        `db:"account_id" json:"account_id"`
	Name        string     `db:"name" json:"name"`
	ServiceType string     `db:"service_type" json:"service_type"`
	Touches     []Touch    `json:"touches"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Touch is one step of a campaign sequence. DelayHours for touch 1 counts
// from enrollment start; for later touches it counts from the completion of
// the previous touch.
type Touch struct {
	ID         int    `db:"id" json:"id"`
	CampaignID int    `db:"campaign_id" json:"campaign_id"`
	Seq        int    `db:"seq" json:"seq"`
	Channel    string `db:"channel" json:"channel"`
	DelayHours int    `db:"delay_hours" json:"delay_hours"`
	TemplateID *int   `db:"template_id" json:"template_id,omitempty"`
}

// NewCampaign validates and builds a campaign. The touch sequence must be
// contiguous starting at 1, at most MaxTouches long, with positive delays and
// known channels.
func NewCampaign(accountID int, name, serviceType string, touches []Touch) (*Campaign, error) {
	if name == "" {
		return nil, fmt.Errorf("campaign name is required")
	}
	if serviceType == "" {
		serviceType = ServiceScopeAll
	}
	if len(touches) == 0 {
		return nil, fmt.Errorf("campaign needs at least one touch")
	}
	if len(touches) > MaxTouches {
		return nil, fmt.Errorf("campaign cannot have more than %d touches", MaxTouches)
	}
	for i, t := range touches {
		if t.Seq != i+1 {
			return nil, fmt.Errorf("touch sequence must be contiguous starting at 1, got %d at position %d", t.Seq, i+1)
		}
		if t.Channel != ChannelEmail && t.Channel != ChannelSMS {
			return nil, fmt.Errorf("touch %d: unknown channel %q", t.Seq, t.Channel)
		}
		if t.DelayHours < 1 {
			return nil, fmt.Errorf("touch %d: delay must be a positive number of hours", t.Seq)
		}
	}
	return &Campaign{
		AccountID:   accountID,
		Name:        name,
		ServiceType: serviceType,
		Touches:     touches,
		CreatedAt:   time.Now(),
	}, nil
}

// TouchBySeq returns the touch with the given sequence number, or nil.
func (c *Campaign) TouchBySeq(seq int) *Touch {
	for i := range c.Touches {
		if c.Touches[i].Seq == seq {
			return &c.Touches[i]
		}
	}
	return nil
}
