package services

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"payroll-recon/internal/models"
	"payroll-recon/internal/repositories"
)

// IngestionService accepts already-parsed fact rows from the upload layer.
// Each batch is one file version: the period's previous rows for that source
// are superseded wholesale. The pay period itself is created when the first
// file for it arrives.
type IngestionService struct {
	db         *sql.DB
	periodRepo repositories.PeriodRepository
	factRepo   repositories.FactRepository
}

func NewIngestionService(
	db *sql.DB,
	periodRepo repositories.PeriodRepository,
	factRepo repositories.FactRepository,
) *IngestionService {
	return &IngestionService{
		db:         db,
		periodRepo: periodRepo,
		factRepo:   factRepo,
	}
}

type WorkedFactInput struct {
	EmployeeCode  string          `json:"employee_code"`
	EmployeeName  string          `json:"employee_name"`
	Location      string          `json:"location"`
	Team          string          `json:"team"`
	Hours         decimal.Decimal `json:"hours"`
	Cost          decimal.Decimal `json:"cost"`
	LeaveCategory string          `json:"leave_category,omitempty"`
}

type PaidFactInput struct {
	EmployeeCode    string          `json:"employee_code"`
	EmployeeName    string          `json:"employee_name"`
	CostAccount     string          `json:"cost_account"`
	PayComponent    string          `json:"pay_component"`
	TransactionType string          `json:"transaction_type"`
	Hours           decimal.Decimal `json:"hours"`
	Amount          decimal.Decimal `json:"amount"`
}

type JournalFactInput struct {
	LedgerAccount string          `json:"ledger_account"`
	CostAccount   string          `json:"cost_account"`
	Description   string          `json:"description"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

type IngestionResult struct {
	Success      bool     `json:"success"`
	PeriodID     int64    `json:"period_id"`
	Source       string   `json:"source"`
	Version      int      `json:"version"`
	RecordsCount int      `json:"records_count"`
	Errors       []string `json:"errors,omitempty"`
}

// ensurePeriod finds or creates the pay period for the batch's date range.
func (s *IngestionService) ensurePeriod(startDate, endDate string) (*models.PayPeriod, error) {
	period, err := s.periodRepo.GetByDates(startDate, endDate)
	if err == nil {
		return period, nil
	}
	if err != repositories.ErrPeriodNotFound {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	period = &models.PayPeriod{
		StartDate: startDate,
		EndDate:   endDate,
		Status:    models.PeriodStatusOpen,
	}
	if err := s.periodRepo.Create(tx, period); err != nil {
		return nil, fmt.Errorf("failed to create pay period: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *IngestionService) IngestWorkedFacts(startDate, endDate string, inputs []WorkedFactInput) (*IngestionResult, error) {
	period, err := s.ensurePeriod(startDate, endDate)
	if err != nil {
		return nil, err
	}

	version, err := s.factRepo.NextWorkedVersion(period.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to determine worked fact version: %v", err)
	}

	result := &IngestionResult{
		PeriodID: period.ID,
		Source:   models.SourceWorked,
		Version:  version,
	}

	var facts []models.WorkedFact
	for i, input := range inputs {
		if input.EmployeeCode == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: employee code is required", i))
			continue
		}
		if input.Hours.IsNegative() {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: hours must not be negative", i))
			continue
		}
		facts = append(facts, models.WorkedFact{
			PeriodID:      period.ID,
			EmployeeCode:  input.EmployeeCode,
			EmployeeName:  input.EmployeeName,
			Location:      input.Location,
			Team:          input.Team,
			Hours:         input.Hours,
			Cost:          input.Cost,
			LeaveCategory: input.LeaveCategory,
			Version:       version,
		})
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.factRepo.DeleteWorkedFacts(tx, period.ID); err != nil {
		return nil, fmt.Errorf("failed to supersede worked facts: %v", err)
	}
	if err := s.factRepo.InsertWorkedFacts(tx, facts); err != nil {
		return nil, fmt.Errorf("failed to insert worked facts: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	result.RecordsCount = len(facts)
	result.Success = len(result.Errors) == 0
	s.logIngestion(result, len(inputs))
	return result, nil
}

func (s *IngestionService) IngestPaidFacts(startDate, endDate string, inputs []PaidFactInput) (*IngestionResult, error) {
	period, err := s.ensurePeriod(startDate, endDate)
	if err != nil {
		return nil, err
	}

	version, err := s.factRepo.NextPaidVersion(period.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to determine paid fact version: %v", err)
	}

	result := &IngestionResult{
		PeriodID: period.ID,
		Source:   models.SourcePaid,
		Version:  version,
	}

	var facts []models.PaidFact
	for i, input := range inputs {
		if input.EmployeeCode == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: employee code is required", i))
			continue
		}
		if input.CostAccount == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: cost account is required", i))
			continue
		}
		facts = append(facts, models.PaidFact{
			PeriodID:        period.ID,
			EmployeeCode:    input.EmployeeCode,
			EmployeeName:    input.EmployeeName,
			CostAccount:     input.CostAccount,
			PayComponent:    input.PayComponent,
			TransactionType: input.TransactionType,
			Hours:           input.Hours,
			Amount:          input.Amount,
			Version:         version,
		})
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.factRepo.DeletePaidFacts(tx, period.ID); err != nil {
		return nil, fmt.Errorf("failed to supersede paid facts: %v", err)
	}
	if err := s.factRepo.InsertPaidFacts(tx, facts); err != nil {
		return nil, fmt.Errorf("failed to insert paid facts: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	result.RecordsCount = len(facts)
	result.Success = len(result.Errors) == 0
	s.logIngestion(result, len(inputs))
	return result, nil
}

func (s *IngestionService) IngestJournalFacts(startDate, endDate string, inputs []JournalFactInput) (*IngestionResult, error) {
	period, err := s.ensurePeriod(startDate, endDate)
	if err != nil {
		return nil, err
	}

	version, err := s.factRepo.NextJournalVersion(period.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to determine journal fact version: %v", err)
	}

	result := &IngestionResult{
		PeriodID: period.ID,
		Source:   models.SourceJournal,
		Version:  version,
	}

	var facts []models.JournalFact
	for i, input := range inputs {
		if input.LedgerAccount == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: ledger account is required", i))
			continue
		}
		facts = append(facts, models.JournalFact{
			PeriodID:      period.ID,
			LedgerAccount: input.LedgerAccount,
			CostAccount:   input.CostAccount,
			Description:   input.Description,
			Debit:         input.Debit,
			Credit:        input.Credit,
			Version:       version,
		})
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.factRepo.DeleteJournalFacts(tx, period.ID); err != nil {
		return nil, fmt.Errorf("failed to supersede journal facts: %v", err)
	}
	if err := s.factRepo.InsertJournalFacts(tx, facts); err != nil {
		return nil, fmt.Errorf("failed to insert journal facts: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	result.RecordsCount = len(facts)
	result.Success = len(result.Errors) == 0
	s.logIngestion(result, len(inputs))
	return result, nil
}

func (s *IngestionService) logIngestion(result *IngestionResult, total int) {
	logrus.WithFields(logrus.Fields{
		"period_id": result.PeriodID,
		"source":    result.Source,
		"version":   result.Version,
		"total":     total,
		"inserted":  result.RecordsCount,
		"rejected":  len(result.Errors),
	}).Info("Ingested fact batch")
}
