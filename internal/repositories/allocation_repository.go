package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"payroll-recon/internal/models"
)

var ErrRuleNotFound = errors.New("cost allocation rule not found")

type AllocationRepository interface {
	DeleteBySources(tx *sql.Tx, periodID int64, sources []string) error
	GetEmployeeCodesBySource(periodID int64, source string) (map[string]bool, error)
	Insert(tx *sql.Tx, rules []models.CostAllocationRule) error
	Upsert(tx *sql.Tx, rule *models.CostAllocationRule) error
	GetByPeriod(periodID int64) ([]models.CostAllocationRule, error)
	GetByEmployee(periodID int64, employeeCode string) (*models.CostAllocationRule, error)
}

type allocationRepository struct {
	db *sql.DB
}

func NewAllocationRepository(db *sql.DB) AllocationRepository {
	return &allocationRepository{db: db}
}

func (r *allocationRepository) DeleteBySources(tx *sql.Tx, periodID int64, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(sources))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(sources)+1)
	args = append(args, periodID)
	for _, s := range sources {
		args = append(args, s)
	}

	query := fmt.Sprintf("DELETE FROM cost_allocation_rules WHERE period_id = ? AND source IN (%s)", placeholders)
	_, err := tx.Exec(query, args...)
	return err
}

func (r *allocationRepository) GetEmployeeCodesBySource(periodID int64, source string) (map[string]bool, error) {
	rows, err := r.db.Query(
		"SELECT employee_code FROM cost_allocation_rules WHERE period_id = ? AND source = ?",
		periodID, source,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

func (r *allocationRepository) Insert(tx *sql.Tx, rules []models.CostAllocationRule) error {
	query := `
		INSERT INTO cost_allocation_rules (
			period_id, employee_code, allocations, source,
			total_amount, is_valid, validation_errors
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := range rules {
		rule := &rules[i]
		result, err := tx.Exec(query,
			rule.PeriodID,
			rule.EmployeeCode,
			rule.Allocations,
			rule.Source,
			rule.TotalAmount,
			rule.IsValid,
			rule.ValidationErrors,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		rule.ID = id
	}
	return nil
}

func (r *allocationRepository) Upsert(tx *sql.Tx, rule *models.CostAllocationRule) error {
	query := `
		INSERT INTO cost_allocation_rules (
			period_id, employee_code, allocations, source,
			total_amount, is_valid, validation_errors
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			allocations = VALUES(allocations),
			source = VALUES(source),
			total_amount = VALUES(total_amount),
			is_valid = VALUES(is_valid),
			validation_errors = VALUES(validation_errors)
	`
	_, err := tx.Exec(query,
		rule.PeriodID,
		rule.EmployeeCode,
		rule.Allocations,
		rule.Source,
		rule.TotalAmount,
		rule.IsValid,
		rule.ValidationErrors,
	)
	return err
}

func (r *allocationRepository) GetByPeriod(periodID int64) ([]models.CostAllocationRule, error) {
	query := `
		SELECT id, period_id, employee_code, allocations, source,
		       total_amount, is_valid, validation_errors, created_at, updated_at
		FROM cost_allocation_rules
		WHERE period_id = ?
		ORDER BY employee_code
	`
	rows, err := r.db.Query(query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.CostAllocationRule
	for rows.Next() {
		var rule models.CostAllocationRule
		err := rows.Scan(
			&rule.ID,
			&rule.PeriodID,
			&rule.EmployeeCode,
			&rule.Allocations,
			&rule.Source,
			&rule.TotalAmount,
			&rule.IsValid,
			&rule.ValidationErrors,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *allocationRepository) GetByEmployee(periodID int64, employeeCode string) (*models.CostAllocationRule, error) {
	rule := &models.CostAllocationRule{}
	query := `
		SELECT id, period_id, employee_code, allocations, source,
		       total_amount, is_valid, validation_errors, created_at, updated_at
		FROM cost_allocation_rules
		WHERE period_id = ? AND employee_code = ?
	`
	err := r.db.QueryRow(query, periodID, employeeCode).Scan(
		&rule.ID,
		&rule.PeriodID,
		&rule.EmployeeCode,
		&rule.Allocations,
		&rule.Source,
		&rule.TotalAmount,
		&rule.IsValid,
		&rule.ValidationErrors,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}
