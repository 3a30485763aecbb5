package services

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"payroll-recon/internal/models"
	"payroll-recon/internal/repositories"
)

// ReferenceDataService maintains the master data the reconciliation and
// allocation runs read through their snapshot: the employee master and the
// location-to-cost-account mapping table. Changes here affect the next run
// only; in-flight runs keep the snapshot they loaded.
type ReferenceDataService struct {
	db           *sql.DB
	employeeRepo repositories.EmployeeRepository
	mappingRepo  repositories.MappingRepository
}

func NewReferenceDataService(
	db *sql.DB,
	employeeRepo repositories.EmployeeRepository,
	mappingRepo repositories.MappingRepository,
) *ReferenceDataService {
	return &ReferenceDataService{
		db:           db,
		employeeRepo: employeeRepo,
		mappingRepo:  mappingRepo,
	}
}

type EmployeeInput struct {
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	EmploymentType     string          `json:"employment_type"`
	AutoPay            bool            `json:"auto_pay"`
	AutoPayAmount      decimal.Decimal `json:"auto_pay_amount"`
	TerminationDate    string          `json:"termination_date,omitempty"`
	DefaultCostAccount string          `json:"default_cost_account"`
}

type LocationMappingInput struct {
	Location       string `json:"location"`
	Team           string `json:"team"`
	CostAccount    string `json:"cost_account"`
	DepartmentCode string `json:"department_code"`
	DepartmentName string `json:"department_name"`
	Active         *bool  `json:"active,omitempty"`
}

// UpsertEmployees replaces master records by employee code. The whole batch
// commits or none of it does; a malformed row aborts the batch with its
// position in the error.
func (s *ReferenceDataService) UpsertEmployees(inputs []EmployeeInput) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	for i, input := range inputs {
		if input.Code == "" {
			return 0, fmt.Errorf("row %d: employee code is required", i+1)
		}
		employee := models.Employee{
			Code:               input.Code,
			Name:               input.Name,
			EmploymentType:     input.EmploymentType,
			AutoPay:            input.AutoPay,
			AutoPayAmount:      input.AutoPayAmount,
			DefaultCostAccount: input.DefaultCostAccount,
		}
		if input.TerminationDate != "" {
			employee.TerminationDate = sql.NullString{String: input.TerminationDate, Valid: true}
		}
		if err := s.employeeRepo.Upsert(tx, &employee); err != nil {
			return 0, fmt.Errorf("row %d: failed to upsert employee %s: %v", i+1, input.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %v", err)
	}

	logrus.WithField("count", len(inputs)).Info("Upserted employee master records")
	return len(inputs), nil
}

// UpsertLocationMapping creates or updates the cost-account mapping for one
// location + team composite.
func (s *ReferenceDataService) UpsertLocationMapping(input LocationMappingInput) (*models.LocationMapping, error) {
	if input.Location == "" || input.Team == "" {
		return nil, fmt.Errorf("location and team are required")
	}
	if !models.IsValidCostAccount(input.CostAccount) {
		return nil, fmt.Errorf("invalid cost account %q", input.CostAccount)
	}

	mapping := models.LocationMapping{
		Location:       input.Location,
		Team:           input.Team,
		CostAccount:    input.CostAccount,
		DepartmentCode: input.DepartmentCode,
		DepartmentName: input.DepartmentName,
		Active:         true,
	}
	if input.Active != nil {
		mapping.Active = *input.Active
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.mappingRepo.UpsertLocationMapping(tx, &mapping); err != nil {
		return nil, fmt.Errorf("failed to upsert location mapping: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"location":     mapping.Location,
		"team":         mapping.Team,
		"cost_account": mapping.CostAccount,
	}).Info("Upserted location mapping")

	return &mapping, nil
}

// DeactivateLocationMapping soft-disables a mapping. Lines keyed to it resolve
// as mapping gaps on the next derived rebuild instead of the stale account.
func (s *ReferenceDataService) DeactivateLocationMapping(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.mappingRepo.DeactivateLocationMapping(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *ReferenceDataService) GetEmployees() ([]models.Employee, error) {
	return s.employeeRepo.GetAll()
}

func (s *ReferenceDataService) GetLocationMappings() ([]models.LocationMapping, error) {
	return s.mappingRepo.GetLocationMappings()
}
