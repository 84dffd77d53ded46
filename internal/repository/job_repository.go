package repository

import (
	"database/sql"

	"github.com/touchloop/touchloop-backend/internal/model"
)

type JobRepositoryInterface interface {
	GetByID(id int) (*model.Job, error)
	// UpdateResolution moves the job's resolution from an expected prior value
	// to a new one. Returns false when the row was not in the expected state,
	// which means a concurrent actor got there first.
	UpdateResolution(jobID int, from, to model.Resolution) (bool, error)
	// ListQueuedForCustomer returns jobs parked as queue_after behind the
	// given customer's active enrollment, oldest completion first.
	ListQueuedForCustomer(customerID int) ([]model.Job, error)
}

type JobRepository struct {
	DB *sql.DB
}

const jobColumns = `id, account_id, customer_id, service_type, status, completed_at, campaign_override, resolution`

func scanJob(row interface{ Scan(...any) error }) (*model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.ID, &j.AccountID, &j.CustomerID, &j.ServiceType,
		&j.Status, &j.CompletedAt, &j.CampaignOverride, &j.Resolution,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobRepository) GetByID(id int) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	j, err := scanJob(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *JobRepository) UpdateResolution(jobID int, from, to model.Resolution) (bool, error) {
	query := `UPDATE jobs SET resolution = $1 WHERE id = $2 AND resolution = $3`
	res, err := r.DB.Exec(query, string(to), jobID, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *JobRepository) ListQueuedForCustomer(customerID int) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
              WHERE customer_id = $1 AND resolution = $2
              ORDER BY completed_at ASC NULLS LAST, id ASC`
	rows, err := r.DB.Query(query, customerID, string(model.ResolutionQueueAfter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

var _ JobRepositoryInterface = (*JobRepository)(nil)
