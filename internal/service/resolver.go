// internal/service/resolver.go
package service

import (
	"github.com/touchloop/touchloop-backend/internal/model"
)

// Disposition is what the conflict resolver decides about a new enrollment
// request.
type Disposition int

const (
	// DispositionEnroll: no active enrollment anywhere, enroll immediately.
	DispositionEnroll Disposition = iota
	// DispositionNoop: the customer is already active in this same campaign.
	// Re-enrollment is not a conflict; nothing happens.
	DispositionNoop
	// DispositionReplace: a replace_on_complete was pre-set on the job, so the
	// engine short-circuits straight to replacement without re-prompting.
	DispositionReplace
	// DispositionConflict: active enrollment under a different campaign;
	// the job gets a conflict resolution and waits for operator input.
	DispositionConflict
)

// ConflictResolver decides enrollment disposition. The resolution state
// machine itself lives in model.NextResolution; this component applies the
// at-most-one-active-per-customer rule, which deliberately spans all
// campaigns, not just the matched one.
type ConflictResolver struct{}

func (ConflictResolver) Evaluate(job *model.Job, campaignID int, active *model.CampaignEnrollment) Disposition {
	if active == nil {
		return DispositionEnroll
	}
	if active.CampaignID == campaignID {
		return DispositionNoop
	}
	if job.Resolution == model.ResolutionReplaceOnComplete {
		return DispositionReplace
	}
	return DispositionConflict
}
