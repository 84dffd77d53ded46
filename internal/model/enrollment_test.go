package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchloop/touchloop-backend/internal/model"
)

func TestNextResolutionTransitions(t *testing.T) {
	tests := []struct {
		name         string
		current      model.Resolution
		action       model.ResolveAction
		jobCompleted bool
		want         model.Resolution
		wantErr      bool
	}{
		{
			name:         "replace on completed job executes",
			current:      model.ResolutionConflict,
			action:       model.ActionReplace,
			jobCompleted: true,
			want:         model.ResolutionNone,
		},
		{
			name:    "replace before completion defers",
			current: model.ResolutionConflict,
			action:  model.ActionReplace,
			want:    model.ResolutionReplaceOnComplete,
		},
		{
			name:    "skip a conflict",
			current: model.ResolutionConflict,
			action:  model.ActionSkip,
			want:    model.ResolutionSkipped,
		},
		{
			name:    "queue a conflict",
			current: model.ResolutionConflict,
			action:  model.ActionQueueAfter,
			want:    model.ResolutionQueueAfter,
		},
		{
			name:    "revert a skip",
			current: model.ResolutionSkipped,
			action:  model.ActionRevert,
			want:    model.ResolutionNone,
		},
		{
			name:    "revert a queue_after",
			current: model.ResolutionQueueAfter,
			action:  model.ActionRevert,
			want:    model.ResolutionNone,
		},
		{
			name:    "cannot skip without a conflict",
			current: model.ResolutionNone,
			action:  model.ActionSkip,
			wantErr: true,
		},
		{
			name:    "cannot revert a conflict",
			current: model.ResolutionConflict,
			action:  model.ActionRevert,
			wantErr: true,
		},
		{
			name:    "suppressed is permanent",
			current: model.ResolutionSuppressed,
			action:  model.ActionRevert,
			wantErr: true,
		},
		{
			name:         "replace is irreversible",
			current:      model.ResolutionNone,
			action:       model.ActionReplace,
			jobCompleted: true,
			wantErr:      true,
		},
		{
			name:    "cannot re-resolve a pre-set replace",
			current: model.ResolutionReplaceOnComplete,
			action:  model.ActionSkip,
			wantErr: true,
		},
		{
			name:    "unknown action",
			current: model.ResolutionConflict,
			action:  model.ResolveAction("explode"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.NextResolution(tt.current, tt.action, tt.jobCompleted)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobCompleted(t *testing.T) {
	job := &model.Job{Status: model.JobStatusCompleted}
	assert.False(t, job.Completed(), "completed status without a timestamp does not count")

	now := timeNow()
	job.CompletedAt = &now
	assert.True(t, job.Completed())

	job.Status = model.JobStatusScheduled
	assert.False(t, job.Completed())
}
