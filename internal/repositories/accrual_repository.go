package repositories

import (
	"database/sql"

	"payroll-recon/internal/models"
)

type AccrualRepository interface {
	DeleteByWindow(tx *sql.Tx, periodID int64, accrualStart, accrualEnd string) error
	Insert(tx *sql.Tx, results []models.AccrualResult) error
	GetByPeriod(periodID int64) ([]models.AccrualResult, error)
}

type accrualRepository struct {
	db *sql.DB
}

func NewAccrualRepository(db *sql.DB) AccrualRepository {
	return &accrualRepository{db: db}
}

// DeleteByWindow clears a previous batch for the same accrual window so a
// recalculation replaces it wholesale.
func (r *accrualRepository) DeleteByWindow(tx *sql.Tx, periodID int64, accrualStart, accrualEnd string) error {
	_, err := tx.Exec(
		"DELETE FROM accrual_results WHERE period_id = ? AND accrual_start = ? AND accrual_end = ?",
		periodID, accrualStart, accrualEnd,
	)
	return err
}

func (r *accrualRepository) Insert(tx *sql.Tx, results []models.AccrualResult) error {
	query := `
		INSERT INTO accrual_results (
			period_id, employee_code, employee_name, basis,
			accrual_start, accrual_end, days_in_period,
			base_wage, superannuation, annual_leave, payroll_tax, workcover,
			total, excluded, exclusion_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range results {
		res := &results[i]
		result, err := tx.Exec(query,
			res.PeriodID,
			res.EmployeeCode,
			res.EmployeeName,
			res.Basis,
			res.AccrualStart,
			res.AccrualEnd,
			res.DaysInPeriod,
			res.BaseWage,
			res.Superannuation,
			res.AnnualLeave,
			res.PayrollTax,
			res.Workcover,
			res.Total,
			res.Excluded,
			res.ExclusionReason,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = id
	}
	return nil
}

func (r *accrualRepository) GetByPeriod(periodID int64) ([]models.AccrualResult, error) {
	query := `
		SELECT id, period_id, employee_code, employee_name, basis,
		       accrual_start, accrual_end, days_in_period,
		       base_wage, superannuation, annual_leave, payroll_tax, workcover,
		       total, excluded, exclusion_reason, created_at
		FROM accrual_results
		WHERE period_id = ?
		ORDER BY employee_code
	`
	rows, err := r.db.Query(query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.AccrualResult
	for rows.Next() {
		var res models.AccrualResult
		err := rows.Scan(
			&res.ID,
			&res.PeriodID,
			&res.EmployeeCode,
			&res.EmployeeName,
			&res.Basis,
			&res.AccrualStart,
			&res.AccrualEnd,
			&res.DaysInPeriod,
			&res.BaseWage,
			&res.Superannuation,
			&res.AnnualLeave,
			&res.PayrollTax,
			&res.Workcover,
			&res.Total,
			&res.Excluded,
			&res.ExclusionReason,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
