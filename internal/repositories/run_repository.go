package repositories

import (
	"database/sql"
	"errors"
	"time"

	"payroll-recon/internal/models"
)

var (
	ErrRunNotFound       = errors.New("reconciliation run not found")
	ErrExceptionNotFound = errors.New("reconciliation exception not found")
)

type RunRepository interface {
	CreateRun(run *models.ReconciliationRun) error
	GetRunByBatchID(batchID string) (*models.ReconciliationRun, error)
	GetRunsByPeriod(periodID int64) ([]models.ReconciliationRun, error)
	FinalizeRun(tx *sql.Tx, run *models.ReconciliationRun) error
	MarkRunFailed(id int64, message string) error

	DeleteEmployeeReconciliationsByPeriod(tx *sql.Tx, periodID int64) error
	InsertEmployeeReconciliations(tx *sql.Tx, rows []models.EmployeeReconciliation) error
	GetEmployeeReconciliations(runID int64) ([]models.EmployeeReconciliation, error)

	InsertExceptions(tx *sql.Tx, exceptions []models.ReconciliationException) error
	GetExceptions(runID int64) ([]models.ReconciliationException, error)
	GetExceptionByID(id int64) (*models.ReconciliationException, error)
	UpdateExceptionResolution(id int64, status, resolvedBy string) error

	InsertCostCenterRows(tx *sql.Tx, rows []models.CostCenterReconciliationRow) error
	GetCostCenterRows(runID int64) ([]models.CostCenterReconciliationRow, error)

	InsertJournalRows(tx *sql.Tx, rows []models.JournalReconciliationRow) error
	GetJournalRows(runID int64) ([]models.JournalReconciliationRow, error)
}

type runRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) CreateRun(run *models.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (
			batch_id, period_id, status, started_at
		) VALUES (?, ?, ?, ?)
	`
	result, err := r.db.Exec(query, run.BatchID, run.PeriodID, run.Status, run.StartedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id
	return nil
}

func (r *runRepository) GetRunByBatchID(batchID string) (*models.ReconciliationRun, error) {
	run := &models.ReconciliationRun{}
	query := `
		SELECT id, batch_id, period_id, status, error_message,
		       total_checks, passed_checks, failed_checks,
		       critical_count, warning_count, started_at, finished_at
		FROM reconciliation_runs
		WHERE batch_id = ?
	`
	err := r.db.QueryRow(query, batchID).Scan(
		&run.ID,
		&run.BatchID,
		&run.PeriodID,
		&run.Status,
		&run.ErrorMessage,
		&run.TotalChecks,
		&run.PassedChecks,
		&run.FailedChecks,
		&run.CriticalCount,
		&run.WarningCount,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepository) GetRunsByPeriod(periodID int64) ([]models.ReconciliationRun, error) {
	query := `
		SELECT id, batch_id, period_id, status, error_message,
		       total_checks, passed_checks, failed_checks,
		       critical_count, warning_count, started_at, finished_at
		FROM reconciliation_runs
		WHERE period_id = ?
		ORDER BY started_at DESC
	`
	rows, err := r.db.Query(query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ReconciliationRun
	for rows.Next() {
		var run models.ReconciliationRun
		err := rows.Scan(
			&run.ID,
			&run.BatchID,
			&run.PeriodID,
			&run.Status,
			&run.ErrorMessage,
			&run.TotalChecks,
			&run.PassedChecks,
			&run.FailedChecks,
			&run.CriticalCount,
			&run.WarningCount,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FinalizeRun writes the terminal counts and status inside the run's commit
// transaction so a mid-run failure never leaves a half-finalized run.
func (r *runRepository) FinalizeRun(tx *sql.Tx, run *models.ReconciliationRun) error {
	query := `
		UPDATE reconciliation_runs
		SET status = ?,
		    total_checks = ?,
		    passed_checks = ?,
		    failed_checks = ?,
		    critical_count = ?,
		    warning_count = ?,
		    finished_at = ?
		WHERE id = ?
	`
	result, err := tx.Exec(query,
		run.Status,
		run.TotalChecks,
		run.PassedChecks,
		run.FailedChecks,
		run.CriticalCount,
		run.WarningCount,
		time.Now(),
		run.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// MarkRunFailed runs outside any transaction: the failure itself must persist
// for audit even though the run's result set was rolled back.
func (r *runRepository) MarkRunFailed(id int64, message string) error {
	query := `
		UPDATE reconciliation_runs
		SET status = ?,
		    error_message = ?,
		    finished_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.RunStatusFailed, message, time.Now(), id)
	return err
}

func (r *runRepository) DeleteEmployeeReconciliationsByPeriod(tx *sql.Tx, periodID int64) error {
	_, err := tx.Exec("DELETE FROM employee_reconciliations WHERE period_id = ?", periodID)
	return err
}

func (r *runRepository) InsertEmployeeReconciliations(tx *sql.Tx, rows []models.EmployeeReconciliation) error {
	query := `
		INSERT INTO employee_reconciliations (
			run_id, period_id, employee_code, employee_name,
			worked_hours, paid_hours, hours_variance,
			worked_cost, expected_cost, paid_gross,
			cost_variance, cost_variance_pct,
			hours_match, cost_match, issue
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range rows {
		row := &rows[i]
		result, err := tx.Exec(query,
			row.RunID,
			row.PeriodID,
			row.EmployeeCode,
			row.EmployeeName,
			row.WorkedHours,
			row.PaidHours,
			row.HoursVariance,
			row.WorkedCost,
			row.ExpectedCost,
			row.PaidGross,
			row.CostVariance,
			row.CostVariancePct,
			row.HoursMatch,
			row.CostMatch,
			row.Issue,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		row.ID = id
	}
	return nil
}

func (r *runRepository) GetEmployeeReconciliations(runID int64) ([]models.EmployeeReconciliation, error) {
	query := `
		SELECT id, run_id, period_id, employee_code, employee_name,
		       worked_hours, paid_hours, hours_variance,
		       worked_cost, expected_cost, paid_gross,
		       cost_variance, cost_variance_pct,
		       hours_match, cost_match, issue, created_at
		FROM employee_reconciliations
		WHERE run_id = ?
		ORDER BY employee_code
	`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recons []models.EmployeeReconciliation
	for rows.Next() {
		var rec models.EmployeeReconciliation
		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.PeriodID,
			&rec.EmployeeCode,
			&rec.EmployeeName,
			&rec.WorkedHours,
			&rec.PaidHours,
			&rec.HoursVariance,
			&rec.WorkedCost,
			&rec.ExpectedCost,
			&rec.PaidGross,
			&rec.CostVariance,
			&rec.CostVariancePct,
			&rec.HoursMatch,
			&rec.CostMatch,
			&rec.Issue,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		recons = append(recons, rec)
	}
	return recons, rows.Err()
}

func (r *runRepository) InsertExceptions(tx *sql.Tx, exceptions []models.ReconciliationException) error {
	query := `
		INSERT INTO reconciliation_exceptions (
			run_id, period_id, employee_code, recon_type, severity,
			expected_value, actual_value, variance, description, resolution_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range exceptions {
		ex := &exceptions[i]
		result, err := tx.Exec(query,
			ex.RunID,
			ex.PeriodID,
			ex.EmployeeCode,
			ex.ReconType,
			ex.Severity,
			ex.ExpectedValue,
			ex.ActualValue,
			ex.Variance,
			ex.Description,
			ex.ResolutionStatus,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		ex.ID = id
	}
	return nil
}

func (r *runRepository) GetExceptions(runID int64) ([]models.ReconciliationException, error) {
	query := `
		SELECT id, run_id, period_id, employee_code, recon_type, severity,
		       expected_value, actual_value, variance, description,
		       resolution_status, resolved_by, resolved_at, created_at
		FROM reconciliation_exceptions
		WHERE run_id = ?
		ORDER BY severity, employee_code
	`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exceptions []models.ReconciliationException
	for rows.Next() {
		var ex models.ReconciliationException
		err := rows.Scan(
			&ex.ID,
			&ex.RunID,
			&ex.PeriodID,
			&ex.EmployeeCode,
			&ex.ReconType,
			&ex.Severity,
			&ex.ExpectedValue,
			&ex.ActualValue,
			&ex.Variance,
			&ex.Description,
			&ex.ResolutionStatus,
			&ex.ResolvedBy,
			&ex.ResolvedAt,
			&ex.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		exceptions = append(exceptions, ex)
	}
	return exceptions, rows.Err()
}

func (r *runRepository) GetExceptionByID(id int64) (*models.ReconciliationException, error) {
	ex := &models.ReconciliationException{}
	query := `
		SELECT id, run_id, period_id, employee_code, recon_type, severity,
		       expected_value, actual_value, variance, description,
		       resolution_status, resolved_by, resolved_at, created_at
		FROM reconciliation_exceptions
		WHERE id = ?
	`
	err := r.db.QueryRow(query, id).Scan(
		&ex.ID,
		&ex.RunID,
		&ex.PeriodID,
		&ex.EmployeeCode,
		&ex.ReconType,
		&ex.Severity,
		&ex.ExpectedValue,
		&ex.ActualValue,
		&ex.Variance,
		&ex.Description,
		&ex.ResolutionStatus,
		&ex.ResolvedBy,
		&ex.ResolvedAt,
		&ex.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrExceptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return ex, nil
}

func (r *runRepository) UpdateExceptionResolution(id int64, status, resolvedBy string) error {
	query := `
		UPDATE reconciliation_exceptions
		SET resolution_status = ?,
		    resolved_by = ?,
		    resolved_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, status, resolvedBy, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrExceptionNotFound
	}
	return nil
}

func (r *runRepository) InsertCostCenterRows(tx *sql.Tx, rows []models.CostCenterReconciliationRow) error {
	query := `
		INSERT INTO cost_center_reconciliation_rows (
			run_id, period_id, cost_account, paid_total, journal_total,
			variance, variance_pct, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range rows {
		row := &rows[i]
		result, err := tx.Exec(query,
			row.RunID,
			row.PeriodID,
			row.CostAccount,
			row.PaidTotal,
			row.JournalTotal,
			row.Variance,
			row.VariancePct,
			row.Status,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		row.ID = id
	}
	return nil
}

func (r *runRepository) GetCostCenterRows(runID int64) ([]models.CostCenterReconciliationRow, error) {
	query := `
		SELECT id, run_id, period_id, cost_account, paid_total, journal_total,
		       variance, variance_pct, status, created_at
		FROM cost_center_reconciliation_rows
		WHERE run_id = ?
		ORDER BY cost_account
	`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.CostCenterReconciliationRow
	for rows.Next() {
		var row models.CostCenterReconciliationRow
		err := rows.Scan(
			&row.ID,
			&row.RunID,
			&row.PeriodID,
			&row.CostAccount,
			&row.PaidTotal,
			&row.JournalTotal,
			&row.Variance,
			&row.VariancePct,
			&row.Status,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *runRepository) InsertJournalRows(tx *sql.Tx, rows []models.JournalReconciliationRow) error {
	query := `
		INSERT INTO journal_reconciliation_rows (
			run_id, period_id, description, debit, credit, net,
			gl_account, include_in_total, is_mapped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range rows {
		row := &rows[i]
		result, err := tx.Exec(query,
			row.RunID,
			row.PeriodID,
			row.Description,
			row.Debit,
			row.Credit,
			row.Net,
			row.GLAccount,
			row.IncludeInTotal,
			row.IsMapped,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		row.ID = id
	}
	return nil
}

func (r *runRepository) GetJournalRows(runID int64) ([]models.JournalReconciliationRow, error) {
	query := `
		SELECT id, run_id, period_id, description, debit, credit, net,
		       gl_account, include_in_total, is_mapped, created_at
		FROM journal_reconciliation_rows
		WHERE run_id = ?
		ORDER BY description
	`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.JournalReconciliationRow
	for rows.Next() {
		var row models.JournalReconciliationRow
		err := rows.Scan(
			&row.ID,
			&row.RunID,
			&row.PeriodID,
			&row.Description,
			&row.Debit,
			&row.Credit,
			&row.Net,
			&row.GLAccount,
			&row.IncludeInTotal,
			&row.IsMapped,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
