package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchloop/touchloop-backend/internal/model"
)

func timeNow() time.Time { return time.Now() }

func validTouches() []model.Touch {
	return []model.Touch{
		{Seq: 1, Channel: model.ChannelEmail, DelayHours: 24},
		{Seq: 2, Channel: model.ChannelSMS, DelayHours: 72},
	}
}

func TestNewCampaignValid(t *testing.T) {
	c, err := model.NewCampaign(1, "Review Request", "deep_clean", validTouches())
	require.NoError(t, err)
	assert.Equal(t, "deep_clean", c.ServiceType)
	assert.Len(t, c.Touches, 2)

	// Empty service type defaults to the all-services scope.
	c, err = model.NewCampaign(1, "Review Request", "", validTouches())
	require.NoError(t, err)
	assert.Equal(t, model.ServiceScopeAll, c.ServiceType)
}

func TestNewCampaignValidation(t *testing.T) {
	tests := []struct {
		name    string
		cName   string
		touches []model.Touch
	}{
		{name: "missing name", cName: "", touches: validTouches()},
		{name: "no touches", cName: "C", touches: nil},
		{
			name:  "too many touches",
			cName: "C",
			touches: []model.Touch{
				{Seq: 1, Channel: model.ChannelEmail, DelayHours: 1},
				{Seq: 2, Channel: model.ChannelEmail, DelayHours: 1},
				{Seq: 3, Channel: model.ChannelEmail, DelayHours: 1},
				{Seq: 4, Channel: model.ChannelEmail, DelayHours: 1},
				{Seq: 5, Channel: model.ChannelEmail, DelayHours: 1},
			},
		},
		{
			name:  "gap in sequence",
			cName: "C",
			touches: []model.Touch{
				{Seq: 1, Channel: model.ChannelEmail, DelayHours: 24},
				{Seq: 3, Channel: model.ChannelEmail, DelayHours: 24},
			},
		},
		{
			name:    "sequence starts at zero",
			cName:   "C",
			touches: []model.Touch{{Seq: 0, Channel: model.ChannelEmail, DelayHours: 24}},
		},
		{
			name:    "unknown channel",
			cName:   "C",
			touches: []model.Touch{{Seq: 1, Channel: "pigeon", DelayHours: 24}},
		},
		{
			name:    "zero delay",
			cName:   "C",
			touches: []model.Touch{{Seq: 1, Channel: model.ChannelEmail, DelayHours: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.NewCampaign(1, tt.cName, "all", tt.touches)
			assert.Error(t, err)
		})
	}
}

func TestTouchBySeq(t *testing.T) {
	c, err := model.NewCampaign(1, "C", "all", validTouches())
	require.NoError(t, err)

	touch := c.TouchBySeq(2)
	require.NotNil(t, touch)
	assert.Equal(t, model.ChannelSMS, touch.Channel)
	assert.Nil(t, c.TouchBySeq(3))
}

func TestPreferredChannel(t *testing.T) {
	c := &model.Customer{Email: "a@example.com", EmailValid: true, Phone: "+254700000001"}
	assert.Equal(t, model.ChannelEmail, c.PreferredChannel())

	c.EmailValid = false
	assert.Equal(t, model.ChannelSMS, c.PreferredChannel())

	c = &model.Customer{Phone: "+254700000001"}
	assert.Equal(t, model.ChannelSMS, c.PreferredChannel())
}

func TestResendable(t *testing.T) {
	for status, want := range map[string]bool{
		model.SendFailed:     true,
		model.SendBounced:    true,
		model.SendSent:       false,
		model.SendPending:    false,
		model.SendDelivered:  false,
		model.SendComplained: false,
	} {
		l := &model.SendLog{Status: status}
		assert.Equal(t, want, l.Resendable(), "status %s", status)
	}
}

func TestMonthlyQuota(t *testing.T) {
	assert.Equal(t, 50, model.MonthlyQuota(model.PlanStarter))
	assert.Equal(t, 500, model.MonthlyQuota(model.PlanGrowth))
	assert.Equal(t, 2000, model.MonthlyQuota(model.PlanPro))
	assert.Equal(t, 50, model.MonthlyQuota("enterprise-trial"))
}
