package repository

import (
	"database/sql"
	"time"

	"github.com/touchloop/touchloop-backend/internal/model"
)

type EnrollmentRepositoryInterface interface {
	Create(e *model.CampaignEnrollment) error
	GetByID(id int) (*model.CampaignEnrollment, error)
	GetByJobID(jobID int) (*model.CampaignEnrollment, error)
	// GetActiveByCustomer returns the customer's single active enrollment
	// across all campaigns, or nil.
	GetActiveByCustomer(customerID int) (*model.CampaignEnrollment, error)
	ListActive() ([]model.CampaignEnrollment, error)
	// TransitionStatus is a guarded single-row status move. Returns false when
	// the enrollment was not in the expected prior status.
	TransitionStatus(id int, from, to string) (bool, error)
	// AdvanceTouch bumps current_touch from an expected value on an active
	// enrollment. Returns false if someone else advanced it first.
	AdvanceTouch(id, fromTouch, toTouch int) (bool, error)
}

type EnrollmentRepository struct {
	DB *sql.DB
}

const enrollmentColumns = `id, customer_id, job_id, campaign_id, status, current_touch, enrolled_at, updated_at`

func scanEnrollment(row interface{ Scan(...any) error }) (*model.CampaignEnrollment, error) {
	var e model.CampaignEnrollment
	err := row.Scan(
		&e.ID, &e.CustomerID, &e.JobID, &e.CampaignID,
		&e.Status, &e.CurrentTouch, &e.EnrolledAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts an active enrollment. The partial unique index on
// (customer_id) WHERE status='active' enforces at-most-one-active at the
// database level; a violation surfaces as an error here.
func (r *EnrollmentRepository) Create(e *model.CampaignEnrollment) error {
	now := time.Now()
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = now
	}
	e.Status = model.EnrollmentActive
	e.UpdatedAt = now
	query := `
        INSERT INTO enrollments (customer_id, job_id, campaign_id, status, current_touch, enrolled_at, updated_at)
        VALUES ($1, $2, $3, $4, 0, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, e.CustomerID, e.JobID, e.CampaignID, e.Status, e.EnrolledAt, e.UpdatedAt).Scan(&e.ID)
}

func (r *EnrollmentRepository) GetByID(id int) (*model.CampaignEnrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	e, err := scanEnrollment(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EnrollmentRepository) GetByJobID(jobID int) (*model.CampaignEnrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE job_id = $1 ORDER BY id DESC LIMIT 1`
	e, err := scanEnrollment(r.DB.QueryRow(query, jobID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EnrollmentRepository) GetActiveByCustomer(customerID int) (*model.CampaignEnrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE customer_id = $1 AND status = $2`
	e, err := scanEnrollment(r.DB.QueryRow(query, customerID, model.EnrollmentActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EnrollmentRepository) ListActive() ([]model.CampaignEnrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE status = $1 ORDER BY id ASC`
	rows, err := r.DB.Query(query, model.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CampaignEnrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EnrollmentRepository) TransitionStatus(id int, from, to string) (bool, error) {
	query := `UPDATE enrollments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := r.DB.Exec(query, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EnrollmentRepository) AdvanceTouch(id, fromTouch, toTouch int) (bool, error) {
	query := `
        UPDATE enrollments SET current_touch = $1, updated_at = NOW()
        WHERE id = $2 AND current_touch = $3 AND status = $4
    `
	res, err := r.DB.Exec(query, toTouch, id, fromTouch, model.EnrollmentActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

var _ EnrollmentRepositoryInterface = (*EnrollmentRepository)(nil)
