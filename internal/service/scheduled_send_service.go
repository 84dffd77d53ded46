// internal/service/scheduled_send_service.go
package service

import (
	"log"
	"time"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/repository"
)

// ScheduledSendService persists deferred batch sends and executes them when
// their time arrives, through the same batch path as immediate sends.
type ScheduledSendService struct {
	Repo         repository.ScheduledSendRepositoryInterface
	Orchestrator *SendOrchestrator
}

func (s *ScheduledSendService) Create(accountID int, customerIDs []int, templateID *int, subject, body string, scheduledFor time.Time) (*model.ScheduledSend, error) {
	if len(customerIDs) == 0 {
		return nil, appErrors.NewValidation(map[string]string{"customer_ids": "at least one recipient required"})
	}
	if len(customerIDs) > MaxBatchSize {
		return nil, appErrors.NewValidation(map[string]string{"customer_ids": "batch size exceeds limit"})
	}

	sched := &model.ScheduledSend{
		AccountID:    accountID,
		CustomerIDs:  customerIDs,
		TemplateID:   templateID,
		Subject:      subject,
		Body:         body,
		ScheduledFor: scheduledFor,
	}
	if err := s.Repo.Create(sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// RunDue executes every scheduled send whose time has come. Each row is
// claimed with a conditional update first, so concurrent sweeps never run
// the same row twice.
func (s *ScheduledSendService) RunDue(now time.Time) (int, error) {
	due, err := s.Repo.ListDue(now)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, sched := range due {
		claimed, err := s.Repo.Claim(sched.ID)
		if err != nil {
			return ran, err
		}
		if !claimed {
			continue // another sweep took it
		}

		res, err := s.Orchestrator.SendBatch(sched.AccountID, sched.CustomerIDs, sched.TemplateID, sched.Subject, sched.Body)
		if err != nil {
			// Quota or validation rejection: the whole batch did not run.
			if ferr := s.Repo.Finish(sched.ID, model.ScheduledFailed, err.Error()); ferr != nil {
				log.Println("⚠️ failed to mark scheduled send failed:", ferr)
			}
			ran++
			continue
		}

		log.Printf("📬 Scheduled send %d: sent=%d skipped=%d failed=%d", sched.ID, res.Sent, res.Skipped, res.Failed)
		if err := s.Repo.Finish(sched.ID, model.ScheduledCompleted, ""); err != nil {
			log.Println("⚠️ failed to mark scheduled send completed:", err)
		}
		ran++
	}
	return ran, nil
}

// BulkCancel cancels pending scheduled sends, all-or-nothing.
func (s *ScheduledSendService) BulkCancel(ids []int) error {
	return s.Repo.BulkCancel(ids)
}

// BulkReschedule moves pending scheduled sends to a new time, all-or-nothing.
func (s *ScheduledSendService) BulkReschedule(ids []int, newTime time.Time) error {
	return s.Repo.BulkReschedule(ids, newTime)
}
