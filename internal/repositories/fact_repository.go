package repositories

import (
	"database/sql"

	"payroll-recon/internal/models"
)

// FactRepository persists the three already-parsed fact sources. Ingesting a
// newer file version supersedes the period's rows for that source wholesale.
type FactRepository interface {
	NextWorkedVersion(periodID int64) (int, error)
	DeleteWorkedFacts(tx *sql.Tx, periodID int64) error
	InsertWorkedFacts(tx *sql.Tx, facts []models.WorkedFact) error
	GetWorkedFacts(periodID int64) ([]models.WorkedFact, error)

	NextPaidVersion(periodID int64) (int, error)
	DeletePaidFacts(tx *sql.Tx, periodID int64) error
	InsertPaidFacts(tx *sql.Tx, facts []models.PaidFact) error
	GetPaidFacts(periodID int64) ([]models.PaidFact, error)

	NextJournalVersion(periodID int64) (int, error)
	DeleteJournalFacts(tx *sql.Tx, periodID int64) error
	InsertJournalFacts(tx *sql.Tx, facts []models.JournalFact) error
	GetJournalFacts(periodID int64) ([]models.JournalFact, error)
}

type factRepository struct {
	db *sql.DB
}

func NewFactRepository(db *sql.DB) FactRepository {
	return &factRepository{db: db}
}

func (r *factRepository) nextVersion(table string, periodID int64) (int, error) {
	var version sql.NullInt64
	err := r.db.QueryRow("SELECT MAX(version) FROM "+table+" WHERE period_id = ?", periodID).Scan(&version)
	if err != nil {
		return 0, err
	}
	return int(version.Int64) + 1, nil
}

func (r *factRepository) NextWorkedVersion(periodID int64) (int, error) {
	return r.nextVersion("worked_facts", periodID)
}

func (r *factRepository) DeleteWorkedFacts(tx *sql.Tx, periodID int64) error {
	_, err := tx.Exec("DELETE FROM worked_facts WHERE period_id = ?", periodID)
	return err
}

func (r *factRepository) InsertWorkedFacts(tx *sql.Tx, facts []models.WorkedFact) error {
	query := `
		INSERT INTO worked_facts (
			period_id, employee_code, employee_name, location, team,
			hours, cost, leave_category, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range facts {
		f := &facts[i]
		result, err := tx.Exec(query,
			f.PeriodID,
			f.EmployeeCode,
			f.EmployeeName,
			f.Location,
			f.Team,
			f.Hours,
			f.Cost,
			f.LeaveCategory,
			f.Version,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		f.ID = id
	}
	return nil
}

func (r *factRepository) GetWorkedFacts(periodID int64) ([]models.WorkedFact, error) {
	query := `
		SELECT id, period_id, employee_code, employee_name, location, team,
		       hours, cost, leave_category, version, created_at
		FROM worked_facts
		WHERE period_id = ?
	`
	rows, err := r.db.Query(query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []models.WorkedFact
	for rows.Next() {
		var f models.WorkedFact
		err := rows.Scan(
			&f.ID,
			&f.PeriodID,
			&f.EmployeeCode,
			&f.EmployeeName,
			&f.Location,
			&f.Team,
			&f.Hours,
			&f.Cost,
			&f.LeaveCategory,
			&f.Version,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (r *factRepository) NextPaidVersion(periodID int64) (int, error) {
	return r.nextVersion("paid_facts", periodID)
}

func (r *factRepository) DeletePaidFacts(tx *sql.Tx, periodID int64) error {
	_, err := tx.Exec("DELETE FROM paid_facts WHERE period_id = ?", periodID)
	return err
}

func (r *factRepository) InsertPaidFacts(tx *sql.Tx, facts []models.PaidFact) error {
	query := `
		INSERT INTO paid_facts (
			period_id, employee_code, employee_name, cost_account,
			pay_component, transaction_type, hours, amount, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range facts {
		f := &facts[i]
		result, err := tx.Exec(query,
			f.PeriodID,
			f.EmployeeCode,
			f.EmployeeName,
			f.CostAccount,
			f.PayComponent,
			f.TransactionType,
			f.Hours,
			f.Amount,
			f.Version,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		f.ID = id
	}
	return nil
}

func (r *factRepository) GetPaidFacts(periodID int64) ([]models.PaidFact, error) {
	query := `
		SELECT id, period_id, employee_code, employee_name, cost_account,
		       pay_component, transaction_type, hours, amount, version, created_at
		FROM paid_facts
		WHERE period_id = ?
	`
	rows, err := r.db.Query(query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []models.PaidFact
	for rows.Next() {
		var f models.PaidFact
		err := rows.Scan(
			&f.ID,
			&f.PeriodID,
			&f.EmployeeCode,
			&f.EmployeeName,
			&f.CostAccount,
			&f.PayComponent,
			&f.TransactionType,
			&f.Hours,
			&f.Amount,
			&f.Version,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (r *factRepository) NextJournalVersion(periodID int64) (int, error) {
	return r.nextVersion("journal_facts", periodID)
}

func (r *factRepository) DeleteJournalFacts(tx *sql.Tx, periodID int64) error {
	_, err := tx.Exec("DELETE FROM journal_facts WHERE period_id = ?", periodID)
	return err
}

func (r *factRepository) InsertJournalFacts(tx *sql.Tx, facts []models.JournalFact) error {
	query := `
		INSERT INTO journal_facts (
			period_id, ledger_account, cost_account, description,
			debit, credit, version
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := range facts {
		f := &facts[i]
		result, err := tx.Exec(query,
			f.PeriodID,
			f.LedgerAccount,
			f.CostAccount,
			f.Description,
			f.Debit,
			f.Credit,
			f.Version,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		f.ID = id
	}
	return nil
}

func (r *factRepository) GetJournalFacts(periodID int64) ([]models.JournalFact, error) {
	query := `
		SELECT id, period_id, ledger_account, cost_account, description,
		       debit, credit, version, created_at
		FROM journal_facts
		WHERE period_id = ?
	`
	rows, err := r.db.Query(query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []models.JournalFact
	for rows.Next() {
		var f models.JournalFact
		err := rows.Scan(
			&f.ID,
			&f.PeriodID,
			&f.LedgerAccount,
			&f.CostAccount,
			&f.Description,
			&f.Debit,
			&f.Credit,
			&f.Version,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
