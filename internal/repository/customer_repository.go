package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/touchloop/touchloop-backend/internal/model"
)

// CustomerRepositoryInterface defines methods used by services
type CustomerRepositoryInterface interface {
	GetByID(id int) (*model.Customer, error)
	ListByIDs(ids []int) ([]model.Customer, error)
	RecordSend(id int, at time.Time) error
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

const customerColumns = `id, account_id, first_name, last_name, email, email_valid, phone, phone_valid, opted_out, archived, last_sent_at, send_count`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID, &c.AccountID, &c.FirstName, &c.LastName,
		&c.Email, &c.EmailValid, &c.Phone, &c.PhoneValid,
		&c.OptedOut, &c.Archived, &c.LastSentAt, &c.SendCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(id int) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	return c, err
}

// ListByIDs fetches a batch of customers in one query. Missing ids are simply
// absent from the result; the caller accounts for them.
func (r *CustomerRepository) ListByIDs(ids []int) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ANY($1)`
	rows, err := r.DB.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// RecordSend bumps last_sent_at and send_count after a successful send.
func (r *CustomerRepository) RecordSend(id int, at time.Time) error {
	query := `UPDATE customers SET last_sent_at = $1, send_count = send_count + 1 WHERE id = $2`
	_, err := r.DB.Exec(query, at, id)
	return err
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
