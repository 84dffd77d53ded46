// internal/service/eligibility.go
package service

import (
	"time"

	"github.com/touchloop/touchloop-backend/internal/model"
)

// DefaultCooldown is the minimum gap between review requests to one customer.
const DefaultCooldown = 14 * 24 * time.Hour

const (
	ReasonOptedOut = "opted_out"
	ReasonArchived = "archived"
	ReasonCooldown = "cooldown"
	ReasonNotFound = "not_found"
)

// Eligibility is the outcome of the pure eligibility check.
type Eligibility struct {
	Eligible      bool
	Reason        string
	DaysRemaining int
}

// CheckEligibility decides whether a send to this customer is currently
// allowed. Pure, no side effects. A customer with no prior send is always
// eligible. The cooldown boundary is exclusive: exactly at the window edge,
// sending is allowed.
func CheckEligibility(c *model.Customer, now time.Time, window time.Duration) Eligibility {
	if c == nil {
		return Eligibility{Reason: ReasonNotFound}
	}
	if c.OptedOut {
		return Eligibility{Reason: ReasonOptedOut}
	}
	if c.Archived {
		return Eligibility{Reason: ReasonArchived}
	}
	if c.LastSentAt != nil {
		until := c.LastSentAt.Add(window)
		if until.After(now) {
			remaining := until.Sub(now)
			days := int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
			return Eligibility{Reason: ReasonCooldown, DaysRemaining: days}
		}
	}
	return Eligibility{Eligible: true}
}
