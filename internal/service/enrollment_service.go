// internal/service/enrollment_service.go
package service

import (
	"log"
	"strconv"
	"time"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/queue"
	"github.com/touchloop/touchloop-backend/internal/repository"
)

// EnrollmentService reacts to job completions: matches the campaign, runs
// conflict resolution, creates/advances/stops enrollments, and hands due
// touches to the send orchestrator via the queue. It never sends anything
// itself.
type EnrollmentService struct {
	Jobs        repository.JobRepositoryInterface
	Customers   repository.CustomerRepositoryInterface
	Campaigns   repository.CampaignRepositoryInterface
	Enrollments repository.EnrollmentRepositoryInterface
	SendLogs    repository.SendLogRepositoryInterface
	Resolver    ConflictResolver
	Scheduler   TouchScheduler
	Queue       queue.Queue
}

// EvaluationResult is the read-your-writes answer to an evaluate call: either
// an enrollment, or the resolution state explaining why there is none.
type EvaluationResult struct {
	JobID      int                       `json:"job_id"`
	Resolution model.Resolution          `json:"resolution"`
	Enrollment *model.CampaignEnrollment `json:"enrollment,omitempty"`
	CampaignID int                       `json:"campaign_id,omitempty"`
	OneOff     bool                      `json:"one_off,omitempty"`
	NextDueAt  *time.Time                `json:"next_due_at,omitempty"`
}

// EvaluateJob runs the full enrollment decision for a job. Safe to call
// repeatedly: a job that already produced an enrollment returns it unchanged.
func (s *EnrollmentService) EvaluateJob(jobID int) (*EvaluationResult, error) {
	job, err := s.Jobs.GetByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, appErrors.NewJobNotFound(jobID)
	}

	result := &EvaluationResult{JobID: jobID, Resolution: job.Resolution}

	if job.Status == model.JobStatusDoNotSend {
		// Permanent: not an operator choice, so distinct from skipped.
		if job.Resolution != model.ResolutionSuppressed {
			if _, err := s.Jobs.UpdateResolution(jobID, job.Resolution, model.ResolutionSuppressed); err != nil {
				return nil, err
			}
		}
		result.Resolution = model.ResolutionSuppressed
		return result, nil
	}

	// Sticky states: skipped needs a revert, suppressed is permanent, and
	// queue_after waits for its blocker to finish.
	switch job.Resolution {
	case model.ResolutionSkipped, model.ResolutionSuppressed, model.ResolutionQueueAfter:
		return result, nil
	}

	// Idempotent re-invocation: the job already produced an enrollment.
	if existing, err := s.Enrollments.GetByJobID(jobID); err != nil {
		return nil, err
	} else if existing != nil {
		result.Enrollment = existing
		result.CampaignID = existing.CampaignID
		result.Resolution = model.ResolutionNone
		return result, nil
	}

	campaign, oneOff, err := s.matchCampaign(job)
	if err != nil {
		return nil, err
	}
	if oneOff {
		// No sequence: the job exposes a single ad-hoc send opportunity.
		result.OneOff = true
		return result, nil
	}
	if campaign == nil {
		// No matching campaign: unenrolled with no resolution, which keeps
		// the job eligible for auto-match if a campaign appears later.
		return result, nil
	}
	result.CampaignID = campaign.ID

	active, err := s.Enrollments.GetActiveByCustomer(job.CustomerID)
	if err != nil {
		return nil, err
	}

	switch s.Resolver.Evaluate(job, campaign.ID, active) {
	case DispositionNoop:
		result.Enrollment = active
		return result, nil

	case DispositionConflict:
		// Recorded even on scheduled jobs, so a foreseeable conflict can be
		// pre-resolved before the job completes.
		if job.Resolution == model.ResolutionNone {
			if _, err := s.Jobs.UpdateResolution(jobID, model.ResolutionNone, model.ResolutionConflict); err != nil {
				return nil, err
			}
		}
		result.Resolution = model.ResolutionConflict
		return result, nil

	case DispositionReplace:
		if !job.Completed() {
			result.Resolution = model.ResolutionReplaceOnComplete
			return result, nil
		}
		return s.executeReplace(job, campaign, active)

	case DispositionEnroll:
		if !job.Completed() {
			// Scheduled job with a clear path; nothing to do until it
			// completes.
			return result, nil
		}
		if job.Resolution == model.ResolutionConflict {
			// The blocker disappeared since the conflict was recorded.
			if _, err := s.Jobs.UpdateResolution(jobID, model.ResolutionConflict, model.ResolutionNone); err != nil {
				return nil, err
			}
		}
		return s.enroll(job, campaign)
	}

	return result, nil
}

// matchCampaign resolves which campaign (if any) applies to a job. A stale
// campaign override falls back to auto-matching rather than failing the job.
func (s *EnrollmentService) matchCampaign(job *model.Job) (*model.Campaign, bool, error) {
	if job.CampaignOverride == model.OverrideOneOff {
		return nil, true, nil
	}
	if job.CampaignOverride != "" {
		if id, err := strconv.Atoi(job.CampaignOverride); err == nil {
			c, err := s.Campaigns.GetByID(id)
			if err == nil && c != nil {
				return c, false, nil
			}
			log.Printf("⚠️ job %d references missing campaign %d, falling back to auto-match", job.ID, id)
		}
	}
	c, err := s.Campaigns.Match(job.AccountID, job.ServiceType)
	return c, false, err
}

func (s *EnrollmentService) enroll(job *model.Job, campaign *model.Campaign) (*EvaluationResult, error) {
	e := &model.CampaignEnrollment{
		CustomerID: job.CustomerID,
		JobID:      job.ID,
		CampaignID: campaign.ID,
		EnrolledAt: *job.CompletedAt,
	}
	if err := s.Enrollments.Create(e); err != nil {
		// Most likely the at-most-one-active index: a concurrent evaluation
		// enrolled this customer first.
		return nil, appErrors.NewInvalidState("enroll", "customer already has an active enrollment")
	}

	result := &EvaluationResult{
		JobID:      job.ID,
		Resolution: model.ResolutionNone,
		Enrollment: e,
		CampaignID: campaign.ID,
	}
	if due := s.Scheduler.NextDue(e, campaign, nil); due != nil {
		result.NextDueAt = &due.DueAt
	}
	return result, nil
}

// executeReplace stops the blocking enrollment (its remaining touches are
// cancelled for good) and enrolls the job's customer in the new campaign.
func (s *EnrollmentService) executeReplace(job *model.Job, campaign *model.Campaign, active *model.CampaignEnrollment) (*EvaluationResult, error) {
	if active != nil {
		stopped, err := s.Enrollments.TransitionStatus(active.ID, model.EnrollmentActive, model.EnrollmentStopped)
		if err != nil {
			return nil, err
		}
		if !stopped {
			log.Printf("enrollment %d left active before replace could stop it", active.ID)
		}
	}
	if job.Resolution != model.ResolutionNone {
		if _, err := s.Jobs.UpdateResolution(job.ID, job.Resolution, model.ResolutionNone); err != nil {
			return nil, err
		}
	}
	return s.enroll(job, campaign)
}

// ResolveConflict applies an operator decision to a conflicted job.
func (s *EnrollmentService) ResolveConflict(jobID int, action model.ResolveAction) (*EvaluationResult, error) {
	job, err := s.Jobs.GetByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, appErrors.NewJobNotFound(jobID)
	}

	next, err := model.NextResolution(job.Resolution, action, job.Completed())
	if err != nil {
		return nil, appErrors.NewInvalidState("resolve", err.Error())
	}

	if action == model.ActionReplace && job.Completed() {
		campaign, oneOff, err := s.matchCampaign(job)
		if err != nil {
			return nil, err
		}
		if oneOff || campaign == nil {
			return nil, appErrors.NewInvalidState("resolve", "no campaign to replace into")
		}
		active, err := s.Enrollments.GetActiveByCustomer(job.CustomerID)
		if err != nil {
			return nil, err
		}
		return s.executeReplace(job, campaign, active)
	}

	ok, err := s.Jobs.UpdateResolution(jobID, job.Resolution, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.NewInvalidState("resolve", "job resolution changed concurrently")
	}
	return &EvaluationResult{JobID: jobID, Resolution: next}, nil
}

// Revert clears a skipped or queue_after resolution and re-runs the
// evaluation, as if the resolve had never happened.
func (s *EnrollmentService) Revert(jobID int) (*EvaluationResult, error) {
	job, err := s.Jobs.GetByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, appErrors.NewJobNotFound(jobID)
	}

	next, err := model.NextResolution(job.Resolution, model.ActionRevert, job.Completed())
	if err != nil {
		return nil, appErrors.NewInvalidState("revert", err.Error())
	}
	ok, err := s.Jobs.UpdateResolution(jobID, job.Resolution, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.NewInvalidState("revert", "job resolution changed concurrently")
	}
	return s.EvaluateJob(jobID)
}

// OnEnrollmentCompleted re-evaluates jobs parked behind a finished
// enrollment. The first queued job that enrolls becomes the new blocker; any
// others fall back into conflict.
func (s *EnrollmentService) OnEnrollmentCompleted(enrollmentID int) error {
	e, err := s.Enrollments.GetByID(enrollmentID)
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}

	queued, err := s.Jobs.ListQueuedForCustomer(e.CustomerID)
	if err != nil {
		return err
	}
	for _, job := range queued {
		if _, err := s.Jobs.UpdateResolution(job.ID, model.ResolutionQueueAfter, model.ResolutionNone); err != nil {
			return err
		}
		if _, err := s.EvaluateJob(job.ID); err != nil {
			log.Printf("⚠️ re-evaluation of queued job %d failed: %v", job.ID, err)
		}
	}
	return nil
}

// SweepDueTouches finds every active enrollment with a due touch and hands it
// to the orchestrator through the queue. Invoked periodically; duplicate
// sweeps are harmless because touch firing is idempotent.
func (s *EnrollmentService) SweepDueTouches(now time.Time) (int, error) {
	active, err := s.Enrollments.ListActive()
	if err != nil {
		return 0, err
	}

	published := 0
	for i := range active {
		e := &active[i]
		campaign, err := s.Campaigns.GetByID(e.CampaignID)
		if err != nil {
			log.Printf("⚠️ sweep: campaign %d: %v", e.CampaignID, err)
			continue
		}
		logs, err := s.SendLogs.ListByEnrollment(e.ID)
		if err != nil {
			log.Printf("⚠️ sweep: enrollment %d logs: %v", e.ID, err)
			continue
		}
		due := s.Scheduler.NextDue(e, campaign, logs)
		if !due.Due(now) {
			continue
		}
		fire := queue.TouchFire{EnrollmentID: e.ID, TouchSeq: due.Touch.Seq}
		if err := s.Queue.Publish(queue.TopicTouchFires, fire); err != nil {
			log.Printf("⚠️ sweep: publish enrollment %d touch %d: %v", e.ID, due.Touch.Seq, err)
			continue
		}
		published++
	}
	return published, nil
}
