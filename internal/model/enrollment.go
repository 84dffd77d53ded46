// internal/model/enrollment.go
package model

import (
	"fmt"
	"time"
)

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentStopped   = "stopped"
)

// CampaignEnrollment tracks one customer moving through one campaign's touch
// sequence. At most one enrollment per customer may be active at a time,
// across all campaigns.
type CampaignEnrollment struct {
	ID         int       `db:"id" json:"id"`
	CustomerID int       `db:"customer_id" json:"customer_id"`
	JobID      int       `db:"job_id" json:"job_id"`
	CampaignID int       `db:"campaign_id" json:"campaign_id"`
	Status     string    `db:"status" json:"status"`
	// CurrentTouch is the number of touches already fired (0 before touch 1).
	CurrentTouch int       `db:"current_touch" json:"current_touch"`
	EnrolledAt   time.Time `db:"enrolled_at" json:"enrolled_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Resolution records the outcome of conflict handling on a job. The empty
// string means no resolution has been recorded; such a job is still eligible
// for auto-matching.
type Resolution string

const (
	ResolutionNone              Resolution = ""
	ResolutionConflict          Resolution = "conflict"
	ResolutionQueueAfter        Resolution = "queue_after"
	ResolutionReplaceOnComplete Resolution = "replace_on_complete"
	ResolutionSuppressed        Resolution = "suppressed"
	ResolutionSkipped           Resolution = "skipped"
)

// ResolveAction is an operator decision on a conflicted job.
type ResolveAction string

const (
	ActionReplace    ResolveAction = "replace"
	ActionSkip       ResolveAction = "skip"
	ActionQueueAfter ResolveAction = "queue_after"
	ActionRevert     ResolveAction = "revert"
)

// NextResolution is the single authoritative transition function for the
// conflict-resolution state machine. jobCompleted distinguishes the pre-flight
// case: resolving "replace" on a job that has not completed yet records
// replace_on_complete instead of executing the replacement.
//
// Valid transitions:
//
//	conflict            --replace-->     none (job completed; replacement executes)
//	conflict            --replace-->     replace_on_complete (job not completed)
//	conflict            --skip-->        skipped
//	conflict            --queue_after--> queue_after
//	skipped             --revert-->      none
//	queue_after         --revert-->      none
//
// Everything else is an invalid-state error: replace is irreversible, and
// suppressed is permanent.
func NextResolution(current Resolution, action ResolveAction, jobCompleted bool) (Resolution, error) {
	switch action {
	case ActionReplace:
		if current != ResolutionConflict {
			return current, fmt.Errorf("cannot replace from resolution %q", current)
		}
		if !jobCompleted {
			return ResolutionReplaceOnComplete, nil
		}
		return ResolutionNone, nil
	case ActionSkip:
		if current != ResolutionConflict {
			return current, fmt.Errorf("cannot skip from resolution %q", current)
		}
		return ResolutionSkipped, nil
	case ActionQueueAfter:
		if current != ResolutionConflict {
			return current, fmt.Errorf("cannot queue_after from resolution %q", current)
		}
		return ResolutionQueueAfter, nil
	case ActionRevert:
		if current != ResolutionSkipped && current != ResolutionQueueAfter {
			return current, fmt.Errorf("cannot revert from resolution %q", current)
		}
		return ResolutionNone, nil
	default:
		return current, fmt.Errorf("unknown resolve action %q", action)
	}
}
