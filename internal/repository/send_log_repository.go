package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/touchloop/touchloop-backend/internal/model"
)

type SendLogRepositoryInterface interface {
	// Create writes a pending ledger row before the outbound call and assigns
	// the idempotency token.
	Create(l *model.SendLog) error
	// ClaimTouch creates the pending row for a campaign touch. The unique
	// index on (enrollment_id, touch_seq) makes the claim at-most-once:
	// returns false when another invocation already logged this touch.
	ClaimTouch(l *model.SendLog) (bool, error)
	// MarkResult finalizes a pending row exactly once. Returns false when the
	// row had already left pending.
	MarkResult(id int, status, providerID, errorMessage string) (bool, error)
	GetByID(id int) (*model.SendLog, error)
	ListByEnrollment(enrollmentID int) ([]model.SendLog, error)
	// CountMonth counts quota-relevant ledger rows for an account since the
	// start of the given month. Failed sends are not billed against quota.
	CountMonth(accountID int, monthStart time.Time) (int, error)
}

type SendLogRepository struct {
	DB *sql.DB
}

const sendLogColumns = `id, account_id, customer_id, enrollment_id, campaign_id, touch_seq, channel, template_id, status, provider_id, error_message, idempotency_key, created_at, updated_at`

func scanSendLog(row interface{ Scan(...any) error }) (*model.SendLog, error) {
	var l model.SendLog
	err := row.Scan(
		&l.ID, &l.AccountID, &l.CustomerID, &l.EnrollmentID, &l.CampaignID,
		&l.TouchSeq, &l.Channel, &l.TemplateID, &l.Status, &l.ProviderID,
		&l.ErrorMessage, &l.IdempotencyKey, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SendLogRepository) Create(l *model.SendLog) error {
	now := time.Now()
	l.Status = model.SendPending
	l.IdempotencyKey = uuid.NewString()
	l.CreatedAt = now
	l.UpdatedAt = now

	query := `
        INSERT INTO send_logs
        (account_id, customer_id, enrollment_id, campaign_id, touch_seq, channel, template_id, status, idempotency_key, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		l.AccountID, l.CustomerID, l.EnrollmentID, l.CampaignID, l.TouchSeq,
		l.Channel, l.TemplateID, l.Status, l.IdempotencyKey, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID)
}

func (r *SendLogRepository) ClaimTouch(l *model.SendLog) (bool, error) {
	now := time.Now()
	l.Status = model.SendPending
	l.IdempotencyKey = uuid.NewString()
	l.CreatedAt = now
	l.UpdatedAt = now

	query := `
        INSERT INTO send_logs
        (account_id, customer_id, enrollment_id, campaign_id, touch_seq, channel, template_id, status, idempotency_key, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (enrollment_id, touch_seq) DO NOTHING
        RETURNING id
    `
	err := r.DB.QueryRow(
		query,
		l.AccountID, l.CustomerID, l.EnrollmentID, l.CampaignID, l.TouchSeq,
		l.Channel, l.TemplateID, l.Status, l.IdempotencyKey, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID)
	if err == sql.ErrNoRows {
		return false, nil // already fired
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SendLogRepository) MarkResult(id int, status, providerID, errorMessage string) (bool, error) {
	query := `
        UPDATE send_logs
        SET status = $1, provider_id = $2, error_message = $3, updated_at = NOW()
        WHERE id = $4 AND status = $5
    `
	res, err := r.DB.Exec(query, status, providerID, errorMessage, id, model.SendPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SendLogRepository) GetByID(id int) (*model.SendLog, error) {
	query := `SELECT ` + sendLogColumns + ` FROM send_logs WHERE id = $1`
	l, err := scanSendLog(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (r *SendLogRepository) ListByEnrollment(enrollmentID int) ([]model.SendLog, error) {
	query := `SELECT ` + sendLogColumns + ` FROM send_logs WHERE enrollment_id = $1 ORDER BY touch_seq ASC`
	rows, err := r.DB.Query(query, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.SendLog{}
	for rows.Next() {
		l, err := scanSendLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func (r *SendLogRepository) CountMonth(accountID int, monthStart time.Time) (int, error) {
	query := `
        SELECT COUNT(*) FROM send_logs
        WHERE account_id = $1 AND created_at >= $2 AND status != $3
    `
	var count int
	err := r.DB.QueryRow(query, accountID, monthStart, model.SendFailed).Scan(&count)
	return count, err
}

var _ SendLogRepositoryInterface = (*SendLogRepository)(nil)
