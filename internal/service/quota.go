// internal/service/quota.go
package service

import (
	"fmt"
	"time"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/repository"
)

// QuotaGate checks the account's monthly send counter against its
// tier-derived limit. The count is read immediately before committing a
// batch; two concurrent batches can in principle both pass and jointly exceed
// quota by a bounded amount. Accepted soft limit.
type QuotaGate struct {
	Accounts repository.AccountRepositoryInterface
	SendLogs repository.SendLogRepositoryInterface
}

// Remaining returns how many sends the account has left this calendar month.
func (g *QuotaGate) Remaining(accountID int, now time.Time) (int, error) {
	acct, err := g.Accounts.GetByID(accountID)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, fmt.Errorf("account %d not found", accountID)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	used, err := g.SendLogs.CountMonth(accountID, monthStart)
	if err != nil {
		return 0, err
	}

	remaining := model.MonthlyQuota(acct.PlanTier) - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Check rejects the whole request up front when n exceeds remaining quota.
// Never partially sends past quota.
func (g *QuotaGate) Check(accountID, n int, now time.Time) (int, error) {
	remaining, err := g.Remaining(accountID, now)
	if err != nil {
		return 0, err
	}
	if n > remaining {
		return remaining, appErrors.NewQuotaExceeded(n, remaining)
	}
	return remaining, nil
}
