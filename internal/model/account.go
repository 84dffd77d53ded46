// internal/model/account.go
package model

import "time"

const (
	PlanStarter = "starter"
	PlanGrowth  = "growth"
	PlanPro     = "pro"
)

type Account struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PlanTier  string    `db:"plan_tier" json:"plan_tier"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MonthlyQuota maps a plan tier to its monthly send allowance.
// Unknown tiers get the starter allowance.
func MonthlyQuota(tier string) int {
	switch tier {
	case PlanGrowth:
		return 500
	case PlanPro:
		return 2000
	default:
		return 50
	}
}
