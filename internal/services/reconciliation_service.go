package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payroll-recon/internal/config"
	"payroll-recon/internal/models"
	"payroll-recon/internal/recon"
	"payroll-recon/internal/repositories"
)

type ReconciliationService struct {
	db           *sql.DB
	cfg          config.ReconciliationConfig
	locks        *periodLocks
	periodRepo   repositories.PeriodRepository
	factRepo     repositories.FactRepository
	employeeRepo repositories.EmployeeRepository
	mappingRepo  repositories.MappingRepository
	runRepo      repositories.RunRepository
}

func NewReconciliationService(
	db *sql.DB,
	cfg config.ReconciliationConfig,
	periodRepo repositories.PeriodRepository,
	factRepo repositories.FactRepository,
	employeeRepo repositories.EmployeeRepository,
	mappingRepo repositories.MappingRepository,
	runRepo repositories.RunRepository,
) *ReconciliationService {
	return &ReconciliationService{
		db:           db,
		cfg:          cfg,
		locks:        newPeriodLocks(),
		periodRepo:   periodRepo,
		factRepo:     factRepo,
		employeeRepo: employeeRepo,
		mappingRepo:  mappingRepo,
		runRepo:      runRepo,
	}
}

type RunResult struct {
	Run         *models.ReconciliationRun            `json:"run"`
	Employees   []models.EmployeeReconciliation      `json:"employees"`
	Exceptions  []models.ReconciliationException     `json:"exceptions"`
	CostCenters []models.CostCenterReconciliationRow `json:"cost_centers"`
	Journal     []models.JournalReconciliationRow    `json:"journal"`
}

// StartReconciliation executes one run for the period. The period's previous
// employee-reconciliation rows are replaced inside the same transaction that
// commits the new result set, so a mid-run failure leaves the prior results
// untouched; only the run row records the failure.
func (s *ReconciliationService) StartReconciliation(periodID int64) (*RunResult, error) {
	unlock := s.locks.Lock(periodID)
	defer unlock()

	period, err := s.periodRepo.GetByID(periodID)
	if err != nil {
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
	paid, err := s.factRepo.GetPaidFacts(periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paid facts: %v", err)
	}
	journal, err := s.factRepo.GetJournalFacts(periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal facts: %v", err)
	}

	run := &models.ReconciliationRun{
		BatchID:   fmt.Sprintf("REC-%s", uuid.NewString()),
		PeriodID:  periodID,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.runRepo.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create reconciliation run: %v", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"batch_id":  run.BatchID,
		"period_id": periodID,
	})
	log.WithFields(logrus.Fields{
		"worked_facts":  len(worked),
		"paid_facts":    len(paid),
		"journal_facts": len(journal),
	}).Info("Starting reconciliation run")

	engine := recon.NewEngine(snap, recon.TolerancesFromConfig(s.cfg), s.cfg.LabourLedgerAccount)
	result := engine.Run(periodID, worked, paid, journal)

	if err := s.commitRun(period, run, result); err != nil {
		log.WithError(err).Error("Reconciliation run failed")
		if markErr := s.runRepo.MarkRunFailed(run.ID, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to record run failure")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"total_checks": run.TotalChecks,
		"passed":       run.PassedChecks,
		"failed":       run.FailedChecks,
		"critical":     run.CriticalCount,
		"warnings":     run.WarningCount,
	}).Info("Reconciliation run completed")

	return &RunResult{
		Run:         run,
		Employees:   result.Employees,
		Exceptions:  result.Exceptions,
		CostCenters: result.CostCenters,
		Journal:     result.Journal,
	}, nil
}

func (s *ReconciliationService) commitRun(period *models.PayPeriod, run *models.ReconciliationRun, result *recon.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	// Employee-level results are always current: the period's rows from
	// earlier runs are replaced, while earlier runs and their exceptions
	// stay for audit.
	if err := s.runRepo.DeleteEmployeeReconciliationsByPeriod(tx, run.PeriodID); err != nil {
		return fmt.Errorf("failed to delete previous employee reconciliations: %v", err)
	}

	for i := range result.Employees {
		result.Employees[i].RunID = run.ID
	}
	if err := s.runRepo.InsertEmployeeReconciliations(tx, result.Employees); err != nil {
		return fmt.Errorf("failed to insert employee reconciliations: %v", err)
	}

	for i := range result.Exceptions {
		result.Exceptions[i].RunID = run.ID
	}
	if err := s.runRepo.InsertExceptions(tx, result.Exceptions); err != nil {
		return fmt.Errorf("failed to insert exceptions: %v", err)
	}

	for i := range result.CostCenters {
		result.CostCenters[i].RunID = run.ID
	}
	if err := s.runRepo.InsertCostCenterRows(tx, result.CostCenters); err != nil {
		return fmt.Errorf("failed to insert cost center rows: %v", err)
	}

	for i := range result.Journal {
		result.Journal[i].RunID = run.ID
	}
	if err := s.runRepo.InsertJournalRows(tx, result.Journal); err != nil {
		return fmt.Errorf("failed to insert journal rows: %v", err)
	}

	run.Status = models.RunStatusCompleted
	run.TotalChecks = result.Summary.TotalChecks
	run.PassedChecks = result.Summary.PassedChecks
	run.FailedChecks = result.Summary.FailedChecks
	run.CriticalCount = result.Summary.CriticalCount
	run.WarningCount = result.Summary.WarningCount
	if err := s.runRepo.FinalizeRun(tx, run); err != nil {
		return fmt.Errorf("failed to finalize run: %v", err)
	}

	if period.Status != models.PeriodStatusReconciled {
		if err := s.periodRepo.UpdateStatus(tx, period.ID, models.PeriodStatusReconciled); err != nil {
			return fmt.Errorf("failed to update period status: %v", err)
		}
	}

	return tx.Commit()
}

// GetRun returns a completed or failed run with its full result collections.
func (s *ReconciliationService) GetRun(batchID string) (*RunResult, error) {
	run, err := s.runRepo.GetRunByBatchID(batchID)
	if err != nil {
		return nil, err
	}

	employees, err := s.runRepo.GetEmployeeReconciliations(run.ID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.runRepo.GetExceptions(run.ID)
	if err != nil {
		return nil, err
	}
	costCenters, err := s.runRepo.GetCostCenterRows(run.ID)
	if err != nil {
		return nil, err
	}
	journal, err := s.runRepo.GetJournalRows(run.ID)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Run:         run,
		Employees:   employees,
		Exceptions:  exceptions,
		CostCenters: costCenters,
		Journal:     journal,
	}, nil
}

func (s *ReconciliationService) GetRunsByPeriod(periodID int64) ([]models.ReconciliationRun, error) {
	return s.runRepo.GetRunsByPeriod(periodID)
}

// resolutionTransitions encodes the legal exception workflow moves. A
// resolved or accepted exception is terminal; re-runs never re-open it, they
// create fresh exceptions tied to the new run.
var resolutionTransitions = map[string][]string{
	models.ResolutionOpen:        {models.ResolutionUnderReview, models.ResolutionResolved, models.ResolutionAccepted},
	models.ResolutionUnderReview: {models.ResolutionResolved, models.ResolutionAccepted},
}

func (s *ReconciliationService) ResolveException(id int64, status, resolvedBy string) (*models.ReconciliationException, error) {
	ex, err := s.runRepo.GetExceptionByID(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range resolutionTransitions[ex.ResolutionStatus] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move exception from %s to %s", ex.ResolutionStatus, status)
	}

	if err := s.runRepo.UpdateExceptionResolution(id, status, resolvedBy); err != nil {
		return nil, err
	}

	return s.runRepo.GetExceptionByID(id)
}
