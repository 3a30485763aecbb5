package repositories

import (
	"database/sql"
	"errors"

	"payroll-recon/internal/models"
)

// ErrPeriodNotFound signals a data-absence case: the period simply is not
// there yet. Callers skip gracefully rather than synthesizing zeros.
var ErrPeriodNotFound = errors.New("pay period not found")

type PeriodRepository interface {
	Create(tx *sql.Tx, period *models.PayPeriod) error
	GetByID(id int64) (*models.PayPeriod, error)
	GetByDates(startDate, endDate string) (*models.PayPeriod, error)
	UpdateStatus(tx *sql.Tx, id int64, status string) error
}

type periodRepository struct {
	db *sql.DB
}

func NewPeriodRepository(db *sql.DB) PeriodRepository {
	return &periodRepository{db: db}
}

func (r *periodRepository) Create(tx *sql.Tx, period *models.PayPeriod) error {
	query := `
		INSERT INTO pay_periods (start_date, end_date, status)
		VALUES (?, ?, ?)
	`
	result, err := tx.Exec(query, period.StartDate, period.EndDate, period.Status)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	period.ID = id
	return nil
}

func (r *periodRepository) GetByID(id int64) (*models.PayPeriod, error) {
	period := &models.PayPeriod{}
	query := `
		SELECT id, start_date, end_date, status, created_at, updated_at
		FROM pay_periods
		WHERE id = ?
	`
	err := r.db.QueryRow(query, id).Scan(
		&period.ID,
		&period.StartDate,
		&period.EndDate,
		&period.Status,
		&period.CreatedAt,
		&period.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	return period, nil
}

func (r *periodRepository) GetByDates(startDate, endDate string) (*models.PayPeriod, error) {
	period := &models.PayPeriod{}
	query := `
		SELECT id, start_date, end_date, status, created_at, updated_at
		FROM pay_periods
		WHERE start_date = ? AND end_date = ?
	`
	err := r.db.QueryRow(query, startDate, endDate).Scan(
		&period.ID,
		&period.StartDate,
		&period.EndDate,
		&period.Status,
		&period.CreatedAt,
		&period.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	return period, nil
}

func (r *periodRepository) UpdateStatus(tx *sql.Tx, id int64, status string) error {
	query := `
		UPDATE pay_periods
		SET status = ?
		WHERE id = ?
	`
	result, err := tx.Exec(query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPeriodNotFound
	}
	return nil
}
