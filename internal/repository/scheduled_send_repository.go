package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
)

type ScheduledSendRepositoryInterface interface {
	Create(s *model.ScheduledSend) error
	GetByID(id int) (*model.ScheduledSend, error)
	ListDue(now time.Time) ([]model.ScheduledSend, error)
	// Claim moves a row pending -> processing; returns false when another
	// sweep got there first.
	Claim(id int) (bool, error)
	// Finish moves a claimed row processing -> completed/failed.
	Finish(id int, status, errorMessage string) error
	// BulkCancel cancels all given rows or none: if any row is not pending
	// the whole set is rejected.
	BulkCancel(ids []int) error
	// BulkReschedule moves scheduled_for on all given pending rows or none.
	BulkReschedule(ids []int, newTime time.Time) error
}

type ScheduledSendRepository struct {
	DB *sql.DB
}

const scheduledSendColumns = `id, account_id, customer_ids, template_id, subject, body, scheduled_for, status, error_message, created_at, updated_at`

func scanScheduledSend(row interface{ Scan(...any) error }) (*model.ScheduledSend, error) {
	var s model.ScheduledSend
	var ids pq.Int64Array
	err := row.Scan(
		&s.ID, &s.AccountID, &ids, &s.TemplateID, &s.Subject, &s.Body,
		&s.ScheduledFor, &s.Status, &s.ErrorMessage, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CustomerIDs = make([]int, len(ids))
	for i, id := range ids {
		s.CustomerIDs[i] = int(id)
	}
	return &s, nil
}

func int64IDs(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func (r *ScheduledSendRepository) Create(s *model.ScheduledSend) error {
	now := time.Now()
	s.Status = model.ScheduledPending
	s.CreatedAt = now
	s.UpdatedAt = now
	query := `
        INSERT INTO scheduled_sends
        (account_id, customer_ids, template_id, subject, body, scheduled_for, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		s.AccountID, int64IDs(s.CustomerIDs), s.TemplateID, s.Subject, s.Body,
		s.ScheduledFor, s.Status, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
}

func (r *ScheduledSendRepository) GetByID(id int) (*model.ScheduledSend, error) {
	query := `SELECT ` + scheduledSendColumns + ` FROM scheduled_sends WHERE id = $1`
	s, err := scanScheduledSend(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *ScheduledSendRepository) ListDue(now time.Time) ([]model.ScheduledSend, error) {
	query := `SELECT ` + scheduledSendColumns + ` FROM scheduled_sends
              WHERE status = $1 AND scheduled_for <= $2 ORDER BY scheduled_for ASC`
	rows, err := r.DB.Query(query, model.ScheduledPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ScheduledSend{}
	for rows.Next() {
		s, err := scanScheduledSend(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *ScheduledSendRepository) Claim(id int) (bool, error) {
	query := `UPDATE scheduled_sends SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := r.DB.Exec(query, model.ScheduledProcessing, id, model.ScheduledPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *ScheduledSendRepository) Finish(id int, status, errorMessage string) error {
	query := `UPDATE scheduled_sends SET status = $1, error_message = $2, updated_at = NOW()
              WHERE id = $3 AND status = $4`
	_, err := r.DB.Exec(query, status, errorMessage, id, model.ScheduledProcessing)
	return err
}

func (r *ScheduledSendRepository) BulkCancel(ids []int) error {
	return r.bulkTransition(ids, func(tx *sql.Tx) (sql.Result, error) {
		return tx.Exec(
			`UPDATE scheduled_sends SET status = $1, updated_at = NOW()
             WHERE id = ANY($2) AND status = $3`,
			model.ScheduledCancelled, int64IDs(ids), model.ScheduledPending,
		)
	})
}

func (r *ScheduledSendRepository) BulkReschedule(ids []int, newTime time.Time) error {
	return r.bulkTransition(ids, func(tx *sql.Tx) (sql.Result, error) {
		return tx.Exec(
			`UPDATE scheduled_sends SET scheduled_for = $1, updated_at = NOW()
             WHERE id = ANY($2) AND status = $3`,
			newTime, int64IDs(ids), model.ScheduledPending,
		)
	})
}

// bulkTransition applies the update inside a transaction and rolls back unless
// every requested row was touched. Atomic: the whole selected set or nothing.
func (r *ScheduledSendRepository) bulkTransition(ids []int, update func(*sql.Tx) (sql.Result, error)) error {
	if len(ids) == 0 {
		return appErrors.NewInvalidState("bulk update", "no ids given")
	}
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := update(tx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return appErrors.NewInvalidState("bulk update", "one or more scheduled sends are not pending")
	}
	return tx.Commit()
}

var _ ScheduledSendRepositoryInterface = (*ScheduledSendRepository)(nil)
