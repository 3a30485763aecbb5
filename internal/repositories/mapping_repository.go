package repositories

import (
	"database/sql"
	"errors"

	"payroll-recon/internal/models"
)

var ErrMappingNotFound = errors.New("mapping not found")

// MappingRepository reads and maintains the reference tables the registry
// snapshot is built from.
type MappingRepository interface {
	GetLocationMappings() ([]models.LocationMapping, error)
	UpsertLocationMapping(tx *sql.Tx, mapping *models.LocationMapping) error
	DeactivateLocationMapping(tx *sql.Tx, id int64) error

	GetPayComponentMappings() ([]models.PayComponentMapping, error)
	GetSplitRules() ([]models.SplitRule, error)
	GetJournalDescriptionMappings() ([]models.JournalDescriptionMapping, error)
	GetTransactionTypes() ([]models.TransactionType, error)
}

type mappingRepository struct {
	db *sql.DB
}

func NewMappingRepository(db *sql.DB) MappingRepository {
	return &mappingRepository{db: db}
}

func (r *mappingRepository) GetLocationMappings() ([]models.LocationMapping, error) {
	query := `
		SELECT id, location, team, cost_account, department_code,
		       department_name, active, created_at, updated_at
		FROM location_mappings
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.LocationMapping
	for rows.Next() {
		var m models.LocationMapping
		err := rows.Scan(
			&m.ID,
			&m.Location,
			&m.Team,
			&m.CostAccount,
			&m.DepartmentCode,
			&m.DepartmentName,
			&m.Active,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (r *mappingRepository) UpsertLocationMapping(tx *sql.Tx, mapping *models.LocationMapping) error {
	query := `
		INSERT INTO location_mappings (
			location, team, cost_account, department_code, department_name, active
		) VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			cost_account = VALUES(cost_account),
			department_code = VALUES(department_code),
			department_name = VALUES(department_name),
			active = VALUES(active)
	`
	_, err := tx.Exec(query,
		mapping.Location,
		mapping.Team,
		mapping.CostAccount,
		mapping.DepartmentCode,
		mapping.DepartmentName,
		mapping.Active,
	)
	return err
}

// DeactivateLocationMapping soft-disables a mapping; the row is kept for
// history but is never resolved again.
func (r *mappingRepository) DeactivateLocationMapping(tx *sql.Tx, id int64) error {
	result, err := tx.Exec("UPDATE location_mappings SET active = FALSE WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMappingNotFound
	}
	return nil
}

func (r *mappingRepository) GetPayComponentMappings() ([]models.PayComponentMapping, error) {
	query := `
		SELECT id, pay_component, gl_account, include_in_gross, created_at
		FROM pay_component_mappings
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.PayComponentMapping
	for rows.Next() {
		var m models.PayComponentMapping
		if err := rows.Scan(&m.ID, &m.PayComponent, &m.GLAccount, &m.IncludeInGross, &m.CreatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (r *mappingRepository) GetSplitRules() ([]models.SplitRule, error) {
	query := `
		SELECT id, source_account, target_account, percentage, created_at
		FROM split_rules
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.SplitRule
	for rows.Next() {
		var s models.SplitRule
		if err := rows.Scan(&s.ID, &s.SourceAccount, &s.TargetAccount, &s.Percentage, &s.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, s)
	}
	return rules, rows.Err()
}

func (r *mappingRepository) GetJournalDescriptionMappings() ([]models.JournalDescriptionMapping, error) {
	query := `
		SELECT id, description, gl_account, include_in_total, created_at
		FROM journal_description_mappings
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.JournalDescriptionMapping
	for rows.Next() {
		var m models.JournalDescriptionMapping
		if err := rows.Scan(&m.ID, &m.Description, &m.GLAccount, &m.IncludeInTotal, &m.CreatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (r *mappingRepository) GetTransactionTypes() ([]models.TransactionType, error) {
	query := `
		SELECT id, code, description, include_in_cost, created_at
		FROM transaction_types
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.TransactionType
	for rows.Next() {
		var t models.TransactionType
		if err := rows.Scan(&t.ID, &t.Code, &t.Description, &t.IncludeInCost, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
