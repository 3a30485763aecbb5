package repositories

import (
	"database/sql"
	"errors"

	"payroll-recon/internal/models"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type EmployeeRepository interface {
	Upsert(tx *sql.Tx, employee *models.Employee) error
	GetByCode(code string) (*models.Employee, error)
	GetAll() ([]models.Employee, error)
}

type employeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Upsert(tx *sql.Tx, employee *models.Employee) error {
	query := `
		INSERT INTO employees (
			code, name, employment_type, auto_pay, auto_pay_amount,
			termination_date, default_cost_account
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			employment_type = VALUES(employment_type),
			auto_pay = VALUES(auto_pay),
			auto_pay_amount = VALUES(auto_pay_amount),
			termination_date = VALUES(termination_date),
			default_cost_account = VALUES(default_cost_account)
	`
	_, err := tx.Exec(query,
		employee.Code,
		employee.Name,
		employee.EmploymentType,
		employee.AutoPay,
		employee.AutoPayAmount,
		employee.TerminationDate,
		employee.DefaultCostAccount,
	)
	return err
}

func (r *employeeRepository) GetByCode(code string) (*models.Employee, error) {
	employee := &models.Employee{}
	query := `
		SELECT id, code, name, employment_type, auto_pay, auto_pay_amount,
		       termination_date, default_cost_account, created_at, updated_at
		FROM employees
		WHERE code = ?
	`
	err := r.db.QueryRow(query, code).Scan(
		&employee.ID,
		&employee.Code,
		&employee.Name,
		&employee.EmploymentType,
		&employee.AutoPay,
		&employee.AutoPayAmount,
		&employee.TerminationDate,
		&employee.DefaultCostAccount,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (r *employeeRepository) GetAll() ([]models.Employee, error) {
	query := `
		SELECT id, code, name, employment_type, auto_pay, auto_pay_amount,
		       termination_date, default_cost_account, created_at, updated_at
		FROM employees
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var e models.Employee
		err := rows.Scan(
			&e.ID,
			&e.Code,
			&e.Name,
			&e.EmploymentType,
			&e.AutoPay,
			&e.AutoPayAmount,
			&e.TerminationDate,
			&e.DefaultCostAccount,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
