// internal/service/send_service.go
package service

import (
	"log"
	"time"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/repository"
	"github.com/touchloop/touchloop-backend/internal/transport"
)

// MaxBatchSize bounds worst-case latency and the blast radius of a bad
// template.
const MaxBatchSize = 25

const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// RecipientResult is the final status of one input recipient.
type RecipientResult struct {
	CustomerID int    `json:"customer_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	SendLogID  int    `json:"send_log_id,omitempty"`
}

// BatchResult accounts for every input id: Sent + Skipped + Failed equals the
// input count and Details enumerates each id exactly once per occurrence.
type BatchResult struct {
	Sent    int               `json:"sent"`
	Skipped int               `json:"skipped"`
	Failed  int               `json:"failed"`
	Details []RecipientResult `json:"details"`
}

// SendOrchestrator drives single, batch and touch sends: eligibility, quota,
// pending-before-send ledger writes, the outbound transport call, and
// per-recipient outcome tracking.
type SendOrchestrator struct {
	Customers   repository.CustomerRepositoryInterface
	SendLogs    repository.SendLogRepositoryInterface
	Enrollments repository.EnrollmentRepositoryInterface
	Campaigns   repository.CampaignRepositoryInterface
	Quota       *QuotaGate
	Transport   transport.Sender
	Templates   TemplateResolverInterface
	Cooldown    time.Duration
	// OnEnrollmentCompleted fires after the final touch of an enrollment.
	// Wired to the enrollment engine so queue_after jobs get re-evaluated.
	OnEnrollmentCompleted func(enrollmentID int) error
}

func (o *SendOrchestrator) cooldown() time.Duration {
	if o.Cooldown > 0 {
		return o.Cooldown
	}
	return DefaultCooldown
}

// deliver runs the send half of the pending→send→update sequence. The pending
// ledger row must already exist; whatever happens next is recorded on it
// exactly once.
func (o *SendOrchestrator) deliver(c *model.Customer, l *model.SendLog, tpl Template, now time.Time) *RecipientResult {
	data := PersonalizationData(c)
	msg := transport.Message{
		Channel: l.Channel,
		To:      c.Email,
		ToName:  c.FirstName + " " + c.LastName,
		Subject: RenderTemplate(tpl.Subject, data),
		Body:    RenderTemplate(tpl.Body, data),
	}
	if l.Channel == model.ChannelSMS {
		msg.To = c.Phone
	}

	res, err := o.Transport.Send(msg, l.IdempotencyKey)
	if err != nil {
		// Provider error text recorded verbatim; resend is a separate,
		// explicit operator action.
		if _, markErr := o.SendLogs.MarkResult(l.ID, model.SendFailed, "", err.Error()); markErr != nil {
			log.Println("⚠️ failed to mark send log failed:", markErr)
		}
		return &RecipientResult{CustomerID: c.ID, Status: OutcomeFailed, Reason: err.Error(), SendLogID: l.ID}
	}

	if _, err := o.SendLogs.MarkResult(l.ID, model.SendSent, res.ProviderID, ""); err != nil {
		log.Println("⚠️ failed to mark send log sent:", err)
	}
	if err := o.Customers.RecordSend(c.ID, now); err != nil {
		log.Println("⚠️ failed to bump customer send counters:", err)
	}
	return &RecipientResult{CustomerID: c.ID, Status: OutcomeSent, SendLogID: l.ID}
}

// SendOne sends a single ad-hoc message. Eligibility rejections come back as
// a typed error rather than a skipped outcome.
func (o *SendOrchestrator) SendOne(accountID, customerID int, templateID *int) (*RecipientResult, error) {
	customer, err := o.Customers.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, appErrors.NewCustomerNotFound(customerID)
	}

	now := time.Now()
	elig := CheckEligibility(customer, now, o.cooldown())
	if !elig.Eligible {
		return nil, appErrors.NewNotEligible(customerID, elig.Reason)
	}

	if _, err := o.Quota.Check(accountID, 1, now); err != nil {
		return nil, err
	}

	tpl, err := o.Templates.Resolve(templateID)
	if err != nil {
		return nil, err
	}

	l := &model.SendLog{
		AccountID:  accountID,
		CustomerID: customerID,
		Channel:    customer.PreferredChannel(),
		TemplateID: templateID,
	}
	if err := o.SendLogs.Create(l); err != nil {
		return nil, err
	}

	return o.deliver(customer, l, tpl, now), nil
}

// SendBatch sends to many recipients. Quota is checked against the full batch
// size up front; after that, recipients are processed independently and one
// recipient's transport error never aborts the batch. Subject/body override
// the template when non-empty (scheduled sends carry custom text).
func (o *SendOrchestrator) SendBatch(accountID int, customerIDs []int, templateID *int, subject, body string) (*BatchResult, error) {
	if len(customerIDs) == 0 {
		return nil, appErrors.NewValidation(map[string]string{"customer_ids": "at least one recipient required"})
	}
	if len(customerIDs) > MaxBatchSize {
		return nil, appErrors.NewValidation(map[string]string{"customer_ids": "batch size exceeds limit"})
	}

	now := time.Now()
	if _, err := o.Quota.Check(accountID, len(customerIDs), now); err != nil {
		return nil, err
	}

	tpl, err := o.Templates.Resolve(templateID)
	if err != nil {
		return nil, err
	}
	if subject != "" {
		tpl.Subject = subject
	}
	if body != "" {
		tpl.Body = body
	}

	customers, err := o.Customers.ListByIDs(customerIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*model.Customer, len(customers))
	for i := range customers {
		byID[customers[i].ID] = &customers[i]
	}

	result := &BatchResult{Details: []RecipientResult{}}
	for _, id := range customerIDs {
		customer := byID[id]
		elig := CheckEligibility(customer, now, o.cooldown())
		if !elig.Eligible {
			result.Skipped++
			result.Details = append(result.Details, RecipientResult{
				CustomerID: id, Status: OutcomeSkipped, Reason: elig.Reason,
			})
			continue
		}

		l := &model.SendLog{
			AccountID:  accountID,
			CustomerID: id,
			Channel:    customer.PreferredChannel(),
			TemplateID: templateID,
		}
		if err := o.SendLogs.Create(l); err != nil {
			result.Failed++
			result.Details = append(result.Details, RecipientResult{
				CustomerID: id, Status: OutcomeFailed, Reason: err.Error(),
			})
			continue
		}

		detail := o.deliver(customer, l, tpl, now)
		switch detail.Status {
		case OutcomeSent:
			result.Sent++
		case OutcomeFailed:
			result.Failed++
		}
		result.Details = append(result.Details, *detail)
	}

	return result, nil
}

// FireTouch executes one due campaign touch. Safe to invoke concurrently and
// repeatedly: the ledger claim on (enrollment, touch) makes firing
// at-most-once, and everything before the claim is re-checked against current
// state.
func (o *SendOrchestrator) FireTouch(enrollmentID, touchSeq int, now time.Time) error {
	e, err := o.Enrollments.GetByID(enrollmentID)
	if err != nil {
		return err
	}
	if e == nil {
		return appErrors.NewInvalidState("fire touch", "enrollment not found")
	}
	if e.Status != model.EnrollmentActive {
		return nil // stopped or completed since the sweep; nothing to do
	}
	if e.CurrentTouch >= touchSeq {
		return nil // already fired
	}

	campaign, err := o.Campaigns.GetByID(e.CampaignID)
	if err != nil {
		return err
	}
	touch := campaign.TouchBySeq(touchSeq)
	if touch == nil {
		return appErrors.NewInvalidState("fire touch", "touch not in campaign")
	}

	customer, err := o.Customers.GetByID(e.CustomerID)
	if err != nil {
		return err
	}

	elig := CheckEligibility(customer, now, o.cooldown())
	if !elig.Eligible {
		switch elig.Reason {
		case ReasonCooldown:
			// Still due; a later sweep picks it up once the window opens.
			return nil
		default:
			// Opt-out, archival or deletion mid-sequence halts the
			// enrollment for good.
			if _, err := o.Enrollments.TransitionStatus(e.ID, model.EnrollmentActive, model.EnrollmentStopped); err != nil {
				return err
			}
			log.Printf("🛑 Enrollment %d stopped: customer %s", e.ID, elig.Reason)
			return nil
		}
	}

	if _, err := o.Quota.Check(customer.AccountID, 1, now); err != nil {
		if appErrors.IsQuotaExceeded(err) {
			log.Printf("⏳ Touch %d of enrollment %d deferred: %v", touchSeq, e.ID, err)
			return nil // retried by a later sweep
		}
		return err
	}

	tpl, err := o.Templates.Resolve(touch.TemplateID)
	if err != nil {
		return err
	}

	l := &model.SendLog{
		AccountID:    customer.AccountID,
		CustomerID:   customer.ID,
		EnrollmentID: &e.ID,
		CampaignID:   &campaign.ID,
		TouchSeq:     &touch.Seq,
		Channel:      touch.Channel,
		TemplateID:   touch.TemplateID,
	}
	claimed, err := o.SendLogs.ClaimTouch(l)
	if err != nil {
		return err
	}
	if !claimed {
		return nil // a concurrent invocation already logged this touch
	}

	o.deliver(customer, l, tpl, now)

	// The touch is logged either way; the sequence advances on the ledger,
	// not on transport success.
	if _, err := o.Enrollments.AdvanceTouch(e.ID, touchSeq-1, touchSeq); err != nil {
		return err
	}

	if touchSeq == len(campaign.Touches) {
		done, err := o.Enrollments.TransitionStatus(e.ID, model.EnrollmentActive, model.EnrollmentCompleted)
		if err != nil {
			return err
		}
		if done && o.OnEnrollmentCompleted != nil {
			if err := o.OnEnrollmentCompleted(e.ID); err != nil {
				log.Println("⚠️ queued-job re-evaluation failed:", err)
			}
		}
	}
	return nil
}

// Resend is the explicit operator action for failed/bounced ledger rows.
// The new row keeps campaign attribution but no enrollment link, so it does
// not collide with the touch claim.
func (o *SendOrchestrator) Resend(sendLogID int) (*RecipientResult, error) {
	prev, err := o.SendLogs.GetByID(sendLogID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, appErrors.NewInvalidState("resend", "send log not found")
	}
	if !prev.Resendable() {
		return nil, appErrors.NewInvalidState("resend", "only failed or bounced sends can be resent")
	}

	customer, err := o.Customers.GetByID(prev.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, appErrors.NewCustomerNotFound(prev.CustomerID)
	}
	if customer.OptedOut {
		return nil, appErrors.NewNotEligible(customer.ID, ReasonOptedOut)
	}
	if customer.Archived {
		return nil, appErrors.NewNotEligible(customer.ID, ReasonArchived)
	}

	now := time.Now()
	if _, err := o.Quota.Check(prev.AccountID, 1, now); err != nil {
		return nil, err
	}

	tpl, err := o.Templates.Resolve(prev.TemplateID)
	if err != nil {
		return nil, err
	}

	l := &model.SendLog{
		AccountID:  prev.AccountID,
		CustomerID: prev.CustomerID,
		CampaignID: prev.CampaignID,
		TouchSeq:   prev.TouchSeq,
		Channel:    prev.Channel,
		TemplateID: prev.TemplateID,
	}
	if err := o.SendLogs.Create(l); err != nil {
		return nil, err
	}

	return o.deliver(customer, l, tpl, now), nil
}
