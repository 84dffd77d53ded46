package service_test

import (
	"testing"
	"time"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/service"
)

func TestQuotaRemainingByTier(t *testing.T) {
	logs := &memSendLogs{}
	gate := &service.QuotaGate{
		Accounts: &memAccounts{byID: map[int]*model.Account{
			1: {ID: 1, PlanTier: model.PlanStarter},
			2: {ID: 2, PlanTier: model.PlanGrowth},
			3: {ID: 3, PlanTier: model.PlanPro},
			4: {ID: 4, PlanTier: "mystery"},
		}},
		SendLogs: logs,
	}
	now := time.Now()

	seedSentLogs(logs, 2, 3)

	tests := []struct {
		accountID int
		want      int
	}{
		{1, 50},
		{2, 497},
		{3, 2000},
		{4, 50}, // unknown tiers get the starter allowance
	}
	for _, tt := range tests {
		got, err := gate.Remaining(tt.accountID, now)
		if err != nil {
			t.Fatalf("remaining for account %d: %v", tt.accountID, err)
		}
		if got != tt.want {
			t.Errorf("account %d: expected %d remaining, got %d", tt.accountID, tt.want, got)
		}
	}
}

func TestQuotaIgnoresFailedSends(t *testing.T) {
	logs := &memSendLogs{}
	gate := &service.QuotaGate{
		Accounts: &memAccounts{byID: map[int]*model.Account{1: {ID: 1, PlanTier: model.PlanStarter}}},
		SendLogs: logs,
	}

	seedSentLogs(logs, 1, 2)
	failed := &model.SendLog{AccountID: 1, CustomerID: 1, Channel: model.ChannelEmail}
	logs.Create(failed)
	logs.MarkResult(failed.ID, model.SendFailed, "", "smtp timeout")

	remaining, err := gate.Remaining(1, time.Now())
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 48 {
		t.Errorf("failed sends are not billed, expected 48 remaining, got %d", remaining)
	}
}

func TestQuotaCheckRejectsOverage(t *testing.T) {
	logs := &memSendLogs{}
	gate := &service.QuotaGate{
		Accounts: &memAccounts{byID: map[int]*model.Account{1: {ID: 1, PlanTier: model.PlanStarter}}},
		SendLogs: logs,
	}
	now := time.Now()
	seedSentLogs(logs, 1, 48)

	if _, err := gate.Check(1, 2, now); err != nil {
		t.Errorf("request within quota should pass: %v", err)
	}
	_, err := gate.Check(1, 3, now)
	if !appErrors.IsQuotaExceeded(err) {
		t.Fatalf("expected quota error, got %v", err)
	}

	if _, err := gate.Check(99, 1, now); err == nil {
		t.Error("missing account should error")
	}
}
