// internal/service/scheduler.go
package service

import (
	"time"

	"github.com/touchloop/touchloop-backend/internal/model"
)

// TouchScheduler computes the next due touch for an enrollment. It is pure
// over the enrollment, its campaign and the send ledger, so it can be
// re-evaluated on every invocation: a touch with any ledger row is never
// due again.
type TouchScheduler struct{}

// DueTouch is the next touch of a sequence and when it fires.
type DueTouch struct {
	Touch model.Touch
	DueAt time.Time
}

// NextDue returns the next unfired touch with its fire time, or nil when the
// sequence is exhausted. Touch 1 fires at enrolled_at + delay; touch n fires
// at the completion time of touch n-1 plus its delay, so a late-fired touch
// pushes the rest of the sequence back rather than compressing it.
func (TouchScheduler) NextDue(e *model.CampaignEnrollment, c *model.Campaign, logs []model.SendLog) *DueTouch {
	if e.Status != model.EnrollmentActive {
		return nil
	}

	fired := map[int]time.Time{}
	for _, l := range logs {
		if l.TouchSeq != nil {
			fired[*l.TouchSeq] = l.CreatedAt
		}
	}

	next := e.CurrentTouch + 1
	// The ledger can be ahead of current_touch if an advance lost a race;
	// skip anything already logged.
	for ; next <= len(c.Touches); next++ {
		if _, ok := fired[next]; !ok {
			break
		}
	}
	if next > len(c.Touches) {
		return nil
	}

	touch := c.TouchBySeq(next)
	if touch == nil {
		return nil
	}

	anchor := e.EnrolledAt
	if next > 1 {
		if at, ok := fired[next-1]; ok {
			anchor = at
		}
	}
	return &DueTouch{
		Touch: *touch,
		DueAt: anchor.Add(time.Duration(touch.DelayHours) * time.Hour),
	}
}

// Due reports whether the touch has reached its fire time.
func (d *DueTouch) Due(now time.Time) bool {
	return d != nil && !d.DueAt.After(now)
}
