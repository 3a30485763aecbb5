package services

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"payroll-recon/internal/allocation"
	"payroll-recon/internal/models"
	"payroll-recon/internal/repositories"
)

type AllocationService struct {
	db             *sql.DB
	locks          *periodLocks
	periodRepo     repositories.PeriodRepository
	factRepo       repositories.FactRepository
	employeeRepo   repositories.EmployeeRepository
	mappingRepo    repositories.MappingRepository
	allocationRepo repositories.AllocationRepository
}

func NewAllocationService(
	db *sql.DB,
	periodRepo repositories.PeriodRepository,
	factRepo repositories.FactRepository,
	employeeRepo repositories.EmployeeRepository,
	mappingRepo repositories.MappingRepository,
	allocationRepo repositories.AllocationRepository,
) *AllocationService {
	return &AllocationService{
		db:             db,
		locks:          newPeriodLocks(),
		periodRepo:     periodRepo,
		factRepo:       factRepo,
		employeeRepo:   employeeRepo,
		mappingRepo:    mappingRepo,
		allocationRepo: allocationRepo,
	}
}

type RebuildResult struct {
	Source        string                      `json:"source"`
	Rules         []models.CostAllocationRule `json:"rules"`
	SkippedCount  int                         `json:"skipped_count"`
	InvalidCount  int                         `json:"invalid_count"`
	EmployeeCount int                         `json:"employee_count"`
}

// Rebuild recomputes the period's rules from the requested source. The
// machine-built rules of both sources are deleted first so switching between
// default and derived replaces one set with the other. Employees holding an
// override keep it: rebuilds are non-destructive to overrides.
func (s *AllocationService) Rebuild(periodID int64, source string) (*RebuildResult, error) {
	if source != models.AllocationSourceDefault && source != models.AllocationSourceDerived {
		return nil, fmt.Errorf("cannot rebuild from source %q", source)
	}

	unlock := s.locks.Lock(periodID)
	defer unlock()

	if _, err := s.periodRepo.GetByID(periodID); err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(s.mappingRepo, s.employeeRepo)
	if err != nil {
		return nil, err
	}

	builder := allocation.NewBuilder(snap)
	var rules []models.CostAllocationRule
	switch source {
	case models.AllocationSourceDefault:
		paid, err := s.factRepo.GetPaidFacts(periodID)
		if err != nil {
			return nil, fmt.Errorf("failed to load paid facts: %v", err)
		}
		rules = builder.BuildDefault(periodID, paid)
	case models.AllocationSourceDerived:
		worked, err := s.factRepo.GetWorkedFacts(periodID)
		if err != nil {
			return nil, fmt.Errorf("failed to load worked facts: %v", err)
		}
		rules = builder.BuildDerived(periodID, worked)
	}

	overridden, err := s.allocationRepo.GetEmployeeCodesBySource(periodID, models.AllocationSourceOverride)
	if err != nil {
		return nil, fmt.Errorf("failed to load override rules: %v", err)
	}

	kept := rules[:0]
	skipped := 0
	for _, rule := range rules {
		if overridden[rule.EmployeeCode] {
			skipped++
			continue
		}
		kept = append(kept, rule)
	}
	rules = kept

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.allocationRepo.DeleteBySources(tx, periodID, allocation.ClobberSources(source)); err != nil {
		return nil, fmt.Errorf("failed to delete previous machine-built rules: %v", err)
	}
	if err := s.allocationRepo.Insert(tx, rules); err != nil {
		return nil, fmt.Errorf("failed to insert rules: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	invalid := 0
	for _, rule := range rules {
		if !rule.IsValid {
			invalid++
		}
	}

	logrus.WithFields(logrus.Fields{
		"period_id": periodID,
		"source":    source,
		"rules":     len(rules),
		"invalid":   invalid,
		"overrides": skipped,
	}).Info("Rebuilt cost allocation rules")

	return &RebuildResult{
		Source:        source,
		Rules:         rules,
		SkippedCount:  skipped,
		InvalidCount:  invalid,
		EmployeeCount: len(rules),
	}, nil
}

// ApplyOverride writes a manual allocation for one employee. The amounts are
// recomputed from the employee's allocatable paid cost; the override then
// survives any later rebuild of the default or derived sources.
func (s *AllocationService) ApplyOverride(periodID int64, employeeCode string, percentages map[string]decimal.Decimal) (*models.CostAllocationRule, error) {
	if len(percentages) == 0 {
		return nil, fmt.Errorf("override percentages must not be empty")
	}

	unlock := s.locks.Lock(periodID)
	defer unlock()

	if _, err := s.periodRepo.GetByID(periodID); err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(s.mappingRepo, s.employeeRepo)
	if err != nil {
		return nil, err
	}

	paid, err := s.factRepo.GetPaidFacts(periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paid facts: %v", err)
	}

	rule := allocation.NewBuilder(snap).BuildOverride(periodID, employeeCode, paid, percentages)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.allocationRepo.Upsert(tx, &rule); err != nil {
		return nil, fmt.Errorf("failed to write override rule: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"period_id":     periodID,
		"employee_code": employeeCode,
		"is_valid":      rule.IsValid,
	}).Info("Applied allocation override")

	return &rule, nil
}

func (s *AllocationService) GetByPeriod(periodID int64) ([]models.CostAllocationRule, error) {
	return s.allocationRepo.GetByPeriod(periodID)
}
