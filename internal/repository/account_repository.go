package repository

import (
	"database/sql"

	"github.com/touchloop/touchloop-backend/internal/model"
)

type AccountRepositoryInterface interface {
	GetByID(id int) (*model.Account, error)
}

type AccountRepository struct {
	DB *sql.DB
}

func (r *AccountRepository) GetByID(id int) (*model.Account, error) {
	query := `SELECT id, name, plan_tier, created_at FROM accounts WHERE id = $1`
	var a model.Account
	err := r.DB.QueryRow(query, id).Scan(&a.ID, &a.Name, &a.PlanTier, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var _ AccountRepositoryInterface = (*AccountRepository)(nil)
