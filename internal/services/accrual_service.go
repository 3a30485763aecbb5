package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"payroll-recon/internal/accrual"
	"payroll-recon/internal/config"
	"payroll-recon/internal/models"
	"payroll-recon/internal/repositories"
)

type AccrualService struct {
	db           *sql.DB
	cfg          config.AccrualConfig
	locks        *periodLocks
	periodRepo   repositories.PeriodRepository
	factRepo     repositories.FactRepository
	employeeRepo repositories.EmployeeRepository
	mappingRepo  repositories.MappingRepository
	accrualRepo  repositories.AccrualRepository
}

func NewAccrualService(
	db *sql.DB,
	cfg config.AccrualConfig,
	periodRepo repositories.PeriodRepository,
	factRepo repositories.FactRepository,
	employeeRepo repositories.EmployeeRepository,
	mappingRepo repositories.MappingRepository,
	accrualRepo repositories.AccrualRepository,
) *AccrualService {
	return &AccrualService{
		db:           db,
		cfg:          cfg,
		locks:        newPeriodLocks(),
		periodRepo:   periodRepo,
		factRepo:     factRepo,
		employeeRepo: employeeRepo,
		mappingRepo:  mappingRepo,
		accrualRepo:  accrualRepo,
	}
}

type AccrualBatchResult struct {
	Results  []models.AccrualResult `json:"results"`
	Errors   map[string]string      `json:"errors,omitempty"`
	Excluded int                    `json:"excluded"`
}

const dateLayout = "2006-01-02"

// Calculate estimates accrued wages and on-costs for a partial period. One
// employee's failure is recorded and skipped; it never aborts the batch.
// Recalculating the same window replaces the previous batch wholesale.
func (s *AccrualService) Calculate(periodID int64, accrualStart, accrualEnd string) (*AccrualBatchResult, error) {
	start, err := time.Parse(dateLayout, accrualStart)
	if err != nil {
		return nil, fmt.Errorf("invalid accrual start date %q: %v", accrualStart, err)
	}
	end, err := time.Parse(dateLayout, accrualEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid accrual end date %q: %v", accrualEnd, err)
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

	worked, err := s.factRepo.GetWorkedFacts(periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load worked facts: %v", err)
	}

	calc := accrual.NewCalculator(accrual.RatesFromConfig(s.cfg), snap)
	batch, err := calc.Run(periodID, start, end, worked)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.accrualRepo.DeleteByWindow(tx, periodID, accrualStart, accrualEnd); err != nil {
		return nil, fmt.Errorf("failed to delete previous accrual batch: %v", err)
	}
	if err := s.accrualRepo.Insert(tx, batch.Results); err != nil {
		return nil, fmt.Errorf("failed to insert accrual results: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	excluded := 0
	for _, res := range batch.Results {
		if res.Excluded {
			excluded++
		}
	}

	logrus.WithFields(logrus.Fields{
		"period_id": periodID,
		"start":     accrualStart,
		"end":       accrualEnd,
		"results":   len(batch.Results),
		"errors":    len(batch.Errors),
		"excluded":  excluded,
	}).Info("Calculated accrual batch")

	return &AccrualBatchResult{
		Results:  batch.Results,
		Errors:   batch.Errors,
		Excluded: excluded,
	}, nil
}

func (s *AccrualService) GetByPeriod(periodID int64) ([]models.AccrualResult, error) {
	return s.accrualRepo.GetByPeriod(periodID)
}
