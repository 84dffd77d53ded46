package service_test

import (
	"fmt"
	"sort"
	"time"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
	"github.com/touchloop/touchloop-backend/internal/queue"
	"github.com/touchloop/touchloop-backend/internal/transport"
)

// In-memory repositories backing the service tests. They enforce the same
// guarded-update semantics as the SQL implementations: conditional updates
// only apply when the row is in the expected prior state.

// --- customers ---

type memCustomers struct {
	byID map[int]*model.Customer
}

func (m *memCustomers) GetByID(id int) (*model.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomers) ListByIDs(ids []int) ([]model.Customer, error) {
	out := []model.Customer{}
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCustomers) RecordSend(id int, at time.Time) error {
	if c, ok := m.byID[id]; ok {
		t := at
		c.LastSentAt = &t
		c.SendCount++
	}
	return nil
}

// --- jobs ---

type memJobs struct {
	byID map[int]*model.Job
}

func (m *memJobs) GetByID(id int) (*model.Job, error) {
	j, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) UpdateResolution(jobID int, from, to model.Resolution) (bool, error) {
	j, ok := m.byID[jobID]
	if !ok || j.Resolution != from {
		return false, nil
	}
	j.Resolution = to
	return true, nil
}

func (m *memJobs) ListQueuedForCustomer(customerID int) ([]model.Job, error) {
	ids := []int{}
	for id, j := range m.byID {
		if j.CustomerID == customerID && j.Resolution == model.ResolutionQueueAfter {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := []model.Job{}
	for _, id := range ids {
		out = append(out, *m.byID[id])
	}
	return out, nil
}

// --- campaigns ---

type memCampaigns struct {
	byID map[int]*model.Campaign
}

func (m *memCampaigns) Create(c *model.Campaign) error {
	c.ID = len(m.byID) + 100
	m.byID[c.ID] = c
	return nil
}

func (m *memCampaigns) GetByID(id int) (*model.Campaign, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *memCampaigns) Match(accountID int, serviceType string) (*model.Campaign, error) {
	best := 0
	for id, c := range m.byID {
		if c.AccountID != accountID {
			continue
		}
		if c.ServiceType == serviceType {
			if best == 0 || id < best || m.byID[best].ServiceType != serviceType {
				best = id
			}
		} else if c.ServiceType == model.ServiceScopeAll {
			if best == 0 {
				best = id
			}
		}
	}
	if best == 0 {
		return nil, nil
	}
	return m.GetByID(best)
}

func (m *memCampaigns) ListCampaigns(accountID, offset, limit int) ([]*model.Campaign, int, error) {
	return []*model.Campaign{}, 0, nil
}

func (m *memCampaigns) GetCampaignStats(campaignID int) (map[string]int, error) {
	return map[string]int{}, nil
}

// --- enrollments ---

type memEnrollments struct {
	nextID int
	rows   map[int]*model.CampaignEnrollment
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{rows: map[int]*model.CampaignEnrollment{}}
}

func (m *memEnrollments) Create(e *model.CampaignEnrollment) error {
	for _, row := range m.rows {
		if row.CustomerID == e.CustomerID && row.Status == model.EnrollmentActive {
			return fmt.Errorf("duplicate key: one active enrollment per customer")
		}
	}
	m.nextID++
	e.ID = m.nextID
	e.Status = model.EnrollmentActive
	e.CurrentTouch = 0
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memEnrollments) GetByID(id int) (*model.CampaignEnrollment, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memEnrollments) GetByJobID(jobID int) (*model.CampaignEnrollment, error) {
	var latest *model.CampaignEnrollment
	for _, e := range m.rows {
		if e.JobID == jobID && (latest == nil || e.ID > latest.ID) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *memEnrollments) GetActiveByCustomer(customerID int) (*model.CampaignEnrollment, error) {
	for _, e := range m.rows {
		if e.CustomerID == customerID && e.Status == model.EnrollmentActive {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memEnrollments) ListActive() ([]model.CampaignEnrollment, error) {
	ids := []int{}
	for id, e := range m.rows {
		if e.Status == model.EnrollmentActive {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := []model.CampaignEnrollment{}
	for _, id := range ids {
		out = append(out, *m.rows[id])
	}
	return out, nil
}

func (m *memEnrollments) TransitionStatus(id int, from, to string) (bool, error) {
	e, ok := m.rows[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (m *memEnrollments) AdvanceTouch(id, fromTouch, toTouch int) (bool, error) {
	e, ok := m.rows[id]
	if !ok || e.CurrentTouch != fromTouch || e.Status != model.EnrollmentActive {
		return false, nil
	}
	e.CurrentTouch = toTouch
	return true, nil
}

// --- send logs ---

type memSendLogs struct {
	nextID int
	rows   []*model.SendLog
}

func (m *memSendLogs) insert(l *model.SendLog) {
	m.nextID++
	l.ID = m.nextID
	l.Status = model.SendPending
	l.IdempotencyKey = fmt.Sprintf("key-%d", l.ID)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	cp := *l
	m.rows = append(m.rows, &cp)
}

func (m *memSendLogs) Create(l *model.SendLog) error {
	m.insert(l)
	return nil
}

func (m *memSendLogs) ClaimTouch(l *model.SendLog) (bool, error) {
	for _, row := range m.rows {
		if row.EnrollmentID != nil && l.EnrollmentID != nil &&
			*row.EnrollmentID == *l.EnrollmentID &&
			row.TouchSeq != nil && l.TouchSeq != nil && *row.TouchSeq == *l.TouchSeq {
			return false, nil
		}
	}
	m.insert(l)
	return true, nil
}

func (m *memSendLogs) MarkResult(id int, status, providerID, errorMessage string) (bool, error) {
	for _, row := range m.rows {
		if row.ID == id && row.Status == model.SendPending {
			row.Status = status
			row.ProviderID = providerID
			row.ErrorMessage = errorMessage
			return true, nil
		}
	}
	return false, nil
}

func (m *memSendLogs) GetByID(id int) (*model.SendLog, error) {
	for _, row := range m.rows {
		if row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSendLogs) ListByEnrollment(enrollmentID int) ([]model.SendLog, error) {
	out := []model.SendLog{}
	for _, row := range m.rows {
		if row.EnrollmentID != nil && *row.EnrollmentID == enrollmentID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return *out[i].TouchSeq < *out[j].TouchSeq
	})
	return out, nil
}

func (m *memSendLogs) CountMonth(accountID int, monthStart time.Time) (int, error) {
	count := 0
	for _, row := range m.rows {
		if row.AccountID == accountID && row.Status != model.SendFailed && !row.CreatedAt.Before(monthStart) {
			count++
		}
	}
	return count, nil
}

// --- accounts ---

type memAccounts struct {
	byID map[int]*model.Account
}

func (m *memAccounts) GetByID(id int) (*model.Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// --- scheduled sends ---

type memScheduledSends struct {
	nextID int
	rows   map[int]*model.ScheduledSend
}

func newMemScheduledSends() *memScheduledSends {
	return &memScheduledSends{rows: map[int]*model.ScheduledSend{}}
}

func (m *memScheduledSends) Create(s *model.ScheduledSend) error {
	m.nextID++
	s.ID = m.nextID
	s.Status = model.ScheduledPending
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memScheduledSends) GetByID(id int) (*model.ScheduledSend, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memScheduledSends) ListDue(now time.Time) ([]model.ScheduledSend, error) {
	ids := []int{}
	for id, s := range m.rows {
		if s.Status == model.ScheduledPending && !s.ScheduledFor.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := []model.ScheduledSend{}
	for _, id := range ids {
		out = append(out, *m.rows[id])
	}
	return out, nil
}

func (m *memScheduledSends) Claim(id int) (bool, error) {
	s, ok := m.rows[id]
	if !ok || s.Status != model.ScheduledPending {
		return false, nil
	}
	s.Status = model.ScheduledProcessing
	return true, nil
}

func (m *memScheduledSends) Finish(id int, status, errorMessage string) error {
	s, ok := m.rows[id]
	if !ok || s.Status != model.ScheduledProcessing {
		return nil
	}
	s.Status = status
	s.ErrorMessage = errorMessage
	return nil
}

func (m *memScheduledSends) BulkCancel(ids []int) error {
	return m.bulkTransition(ids, func(s *model.ScheduledSend) {
		s.Status = model.ScheduledCancelled
	})
}

func (m *memScheduledSends) BulkReschedule(ids []int, newTime time.Time) error {
	return m.bulkTransition(ids, func(s *model.ScheduledSend) {
		s.ScheduledFor = newTime
	})
}

func (m *memScheduledSends) bulkTransition(ids []int, apply func(*model.ScheduledSend)) error {
	for _, id := range ids {
		s, ok := m.rows[id]
		if !ok || s.Status != model.ScheduledPending {
			return appErrors.NewInvalidState("bulk update", "one or more scheduled sends are not pending")
		}
	}
	for _, id := range ids {
		apply(m.rows[id])
	}
	return nil
}

// --- transport ---

type fakeSender struct {
	sent   []transport.Message
	failTo map[string]bool
}

func (s *fakeSender) Send(msg transport.Message, idempotencyKey string) (*transport.Result, error) {
	if s.failTo[msg.To] {
		return nil, fmt.Errorf("provider rejected recipient")
	}
	s.sent = append(s.sent, msg)
	return &transport.Result{ProviderID: "prov-" + idempotencyKey}, nil
}

// --- queue ---

type fakeQueue struct {
	published []queue.TouchFire
}

func (q *fakeQueue) Publish(topic string, payload any) error {
	if fire, ok := payload.(queue.TouchFire); ok {
		q.published = append(q.published, fire)
	}
	return nil
}

func (q *fakeQueue) Subscribe(topic string, handler func(payload any) error) error {
	return nil
}

// --- fixture helpers ---

func twoTouchCampaign(id, accountID int, serviceType string) *model.Campaign {
	return &model.Campaign{
		ID:          id,
		AccountID:   accountID,
		ServiceType: serviceType,
		Name:        fmt.Sprintf("Campaign %d", id),
		Touches: []model.Touch{
			{ID: id*10 + 1, CampaignID: id, Seq: 1, Channel: model.ChannelEmail, DelayHours: 24},
			{ID: id*10 + 2, CampaignID: id, Seq: 2, Channel: model.ChannelEmail, DelayHours: 48},
		},
	}
}

func testCustomer(id, accountID int) *model.Customer {
	return &model.Customer{
		ID:         id,
		AccountID:  accountID,
		FirstName:  fmt.Sprintf("Cust%d", id),
		LastName:   "Test",
		Email:      fmt.Sprintf("cust%d@example.com", id),
		EmailValid: true,
	}
}

func seedSentLogs(m *memSendLogs, accountID, n int) {
	for i := 0; i < n; i++ {
		l := &model.SendLog{AccountID: accountID, CustomerID: 1, Channel: model.ChannelEmail}
		m.insert(l)
		m.MarkResult(l.ID, model.SendSent, "prov", "")
	}
}

func intPtr(i int) *int { return &i }
