package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// PayPeriod identifies one fortnightly payroll cycle. Created when the first
// source file for the period is ingested.
type PayPeriod struct {
	ID        int64     `db:"id" json:"id"`
	StartDate string    `db:"start_date" json:"start_date"`
	EndDate   string    `db:"end_date" json:"end_date"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// WorkedFact is one timesheet line from the rostering export (Tanda).
type WorkedFact struct {
	ID            int64           `db:"id" json:"id"`
	PeriodID      int64           `db:"period_id" json:"period_id"`
	EmployeeCode  string          `db:"employee_code" json:"employee_code"`
	EmployeeName  string          `db:"employee_name" json:"employee_name"`
	Location      string          `db:"location" json:"location"`
	Team          string          `db:"team" json:"team"`
	Hours         decimal.Decimal `db:"hours" json:"hours"`
	Cost          decimal.Decimal `db:"cost" json:"cost"`
	LeaveCategory string          `db:"leave_category" json:"leave_category,omitempty"`
	Version       int             `db:"version" json:"version"`
	CreatedAt     time.Time       `db:"created_at" json:"-"`
}

// PaidFact is one line from the payroll-bureau detail report (IQB).
type PaidFact struct {
	ID              int64           `db:"id" json:"id"`
	PeriodID        int64           `db:"period_id" json:"period_id"`
	EmployeeCode    string          `db:"employee_code" json:"employee_code"`
	EmployeeName    string          `db:"employee_name" json:"employee_name"`
	CostAccount     string          `db:"cost_account" json:"cost_account"`
	PayComponent    string          `db:"pay_component" json:"pay_component"`
	TransactionType string          `db:"transaction_type" json:"transaction_type"`
	Hours           decimal.Decimal `db:"hours" json:"hours"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Version         int             `db:"version" json:"version"`
	CreatedAt       time.Time       `db:"created_at" json:"-"`
}

// JournalFact is one line from the general-ledger journal batch.
type JournalFact struct {
	ID            int64           `db:"id" json:"id"`
	PeriodID      int64           `db:"period_id" json:"period_id"`
	LedgerAccount string          `db:"ledger_account" json:"ledger_account"`
	CostAccount   string          `db:"cost_account" json:"cost_account"`
	Description   string          `db:"description" json:"description"`
	Debit         decimal.Decimal `db:"debit" json:"debit"`
	Credit        decimal.Decimal `db:"credit" json:"credit"`
	Version       int             `db:"version" json:"version"`
	CreatedAt     time.Time       `db:"created_at" json:"-"`
}

// Employee is a record from the employee master.
type Employee struct {
	ID                 int64           `db:"id" json:"id"`
	Code               string          `db:"code" json:"code"`
	Name               string          `db:"name" json:"name"`
	EmploymentType     string          `db:"employment_type" json:"employment_type"`
	AutoPay            bool            `db:"auto_pay" json:"auto_pay"`
	AutoPayAmount      decimal.Decimal `db:"auto_pay_amount" json:"auto_pay_amount"`
	TerminationDate    sql.NullString  `db:"termination_date" json:"termination_date,omitempty"`
	DefaultCostAccount string          `db:"default_cost_account" json:"default_cost_account"`
	CreatedAt          time.Time       `db:"created_at" json:"-"`
	UpdatedAt          time.Time       `db:"updated_at" json:"-"`
}

// LocationMapping resolves a physical-location + team composite to a real
// cost account. Deactivated mappings are kept for history but never resolved.
type LocationMapping struct {
	ID             int64     `db:"id" json:"id"`
	Location       string    `db:"location" json:"location"`
	Team           string    `db:"team" json:"team"`
	CostAccount    string    `db:"cost_account" json:"cost_account"`
	DepartmentCode string    `db:"department_code" json:"department_code"`
	DepartmentName string    `db:"department_name" json:"department_name"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

// PayComponentMapping resolves a payroll pay component to its GL account.
// Superannuation components carry IncludeInGross=false so the per-employee
// cost comparison is not distorted by the on-cost.
type PayComponentMapping struct {
	ID             int64     `db:"id" json:"id"`
	PayComponent   string    `db:"pay_component" json:"pay_component"`
	GLAccount      string    `db:"gl_account" json:"gl_account"`
	IncludeInGross bool      `db:"include_in_gross" json:"include_in_gross"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
}

// SplitRule redistributes a virtual split account into one real target
// account. Percentages for a source are weights, not a validated allocation.
type SplitRule struct {
	ID            int64           `db:"id" json:"id"`
	SourceAccount string          `db:"source_account" json:"source_account"`
	TargetAccount string          `db:"target_account" json:"target_account"`
	Percentage    decimal.Decimal `db:"percentage" json:"percentage"`
	CreatedAt     time.Time       `db:"created_at" json:"-"`
}

// JournalDescriptionMapping resolves a free-text journal description to a GL
// account and records whether it counts toward total labour cost.
type JournalDescriptionMapping struct {
	ID             int64     `db:"id" json:"id"`
	Description    string    `db:"description" json:"description"`
	GLAccount      string    `db:"gl_account" json:"gl_account"`
	IncludeInTotal bool      `db:"include_in_total" json:"include_in_total"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
}

// TransactionType flags whether a payroll transaction type counts as cost.
// Tax and net-pay lines are flagged false and are never allocated.
type TransactionType struct {
	ID            int64     `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Description   string    `db:"description" json:"description"`
	IncludeInCost bool      `db:"include_in_cost" json:"include_in_cost"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
}

// ReconciliationRun is one execution of the reconciliation engine.
type ReconciliationRun struct {
	ID            int64        `db:"id" json:"id"`
	BatchID       string       `db:"batch_id" json:"batch_id"`
	PeriodID      int64        `db:"period_id" json:"period_id"`
	Status        string       `db:"status" json:"status"`
	ErrorMessage  string       `db:"error_message" json:"error_message,omitempty"`
	TotalChecks   int          `db:"total_checks" json:"total_checks"`
	PassedChecks  int          `db:"passed_checks" json:"passed_checks"`
	FailedChecks  int          `db:"failed_checks" json:"failed_checks"`
	CriticalCount int          `db:"critical_count" json:"critical_count"`
	WarningCount  int          `db:"warning_count" json:"warning_count"`
	StartedAt     time.Time    `db:"started_at" json:"started_at"`
	FinishedAt    sql.NullTime `db:"finished_at" json:"finished_at,omitempty"`
}

// EmployeeReconciliation is the joint per-employee record for one run. The
// period's rows are deleted and rebuilt by each run; prior runs' exceptions
// are retained for audit.
type EmployeeReconciliation struct {
	ID              int64           `db:"id" json:"id"`
	RunID           int64           `db:"run_id" json:"run_id"`
	PeriodID        int64           `db:"period_id" json:"period_id"`
	EmployeeCode    string          `db:"employee_code" json:"employee_code"`
	EmployeeName    string          `db:"employee_name" json:"employee_name"`
	WorkedHours     decimal.Decimal `db:"worked_hours" json:"worked_hours"`
	PaidHours       decimal.Decimal `db:"paid_hours" json:"paid_hours"`
	HoursVariance   decimal.Decimal `db:"hours_variance" json:"hours_variance"`
	WorkedCost      decimal.Decimal `db:"worked_cost" json:"worked_cost"`
	ExpectedCost    decimal.Decimal `db:"expected_cost" json:"expected_cost"`
	PaidGross       decimal.Decimal `db:"paid_gross" json:"paid_gross"`
	CostVariance    decimal.Decimal `db:"cost_variance" json:"cost_variance"`
	CostVariancePct decimal.Decimal `db:"cost_variance_pct" json:"cost_variance_pct"`
	HoursMatch      bool            `db:"hours_match" json:"hours_match"`
	CostMatch       bool            `db:"cost_match" json:"cost_match"`
	Issue           string          `db:"issue" json:"issue,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"-"`
}

// ReconciliationException is a detected discrepancy. Immutable once created
// except for the resolution workflow fields, which move only by explicit
// human action through the exception endpoint. Re-runs create a fresh
// exception set tied to the new run and never touch prior runs' exceptions.
type ReconciliationException struct {
	ID               int64           `db:"id" json:"id"`
	RunID            int64           `db:"run_id" json:"run_id"`
	PeriodID         int64           `db:"period_id" json:"period_id"`
	EmployeeCode     sql.NullString  `db:"employee_code" json:"employee_code,omitempty"`
	ReconType        string          `db:"recon_type" json:"recon_type"`
	Severity         string          `db:"severity" json:"severity"`
	ExpectedValue    decimal.Decimal `db:"expected_value" json:"expected_value"`
	ActualValue      decimal.Decimal `db:"actual_value" json:"actual_value"`
	Variance         decimal.Decimal `db:"variance" json:"variance"`
	Description      string          `db:"description" json:"description"`
	ResolutionStatus string          `db:"resolution_status" json:"resolution_status"`
	ResolvedBy       sql.NullString  `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt       sql.NullTime    `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"-"`
}

// JournalReconciliationRow aggregates raw journal lines by free-text
// description for one run. Unmapped descriptions stay in the totals.
type JournalReconciliationRow struct {
	ID             int64           `db:"id" json:"id"`
	RunID          int64           `db:"run_id" json:"run_id"`
	PeriodID       int64           `db:"period_id" json:"period_id"`
	Description    string          `db:"description" json:"description"`
	Debit          decimal.Decimal `db:"debit" json:"debit"`
	Credit         decimal.Decimal `db:"credit" json:"credit"`
	Net            decimal.Decimal `db:"net" json:"net"`
	GLAccount      string          `db:"gl_account" json:"gl_account,omitempty"`
	IncludeInTotal bool            `db:"include_in_total" json:"include_in_total"`
	IsMapped       bool            `db:"is_mapped" json:"is_mapped"`
	CreatedAt      time.Time       `db:"created_at" json:"-"`
}

// CostCenterReconciliationRow compares split-expanded paid-fact totals against
// labour-account journal postings for one cost center.
type CostCenterReconciliationRow struct {
	ID           int64           `db:"id" json:"id"`
	RunID        int64           `db:"run_id" json:"run_id"`
	PeriodID     int64           `db:"period_id" json:"period_id"`
	CostAccount  string          `db:"cost_account" json:"cost_account"`
	PaidTotal    decimal.Decimal `db:"paid_total" json:"paid_total"`
	JournalTotal decimal.Decimal `db:"journal_total" json:"journal_total"`
	Variance     decimal.Decimal `db:"variance" json:"variance"`
	VariancePct  decimal.Decimal `db:"variance_pct" json:"variance_pct"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"-"`
}

// AccrualResult is one employee's estimated wage and on-costs for a partial
// period, computed before the payroll bureau has produced a detail report.
type AccrualResult struct {
	ID              int64           `db:"id" json:"id"`
	PeriodID        int64           `db:"period_id" json:"period_id"`
	EmployeeCode    string          `db:"employee_code" json:"employee_code"`
	EmployeeName    string          `db:"employee_name" json:"employee_name"`
	Basis           string          `db:"basis" json:"basis"`
	AccrualStart    string          `db:"accrual_start" json:"accrual_start"`
	AccrualEnd      string          `db:"accrual_end" json:"accrual_end"`
	DaysInPeriod    int             `db:"days_in_period" json:"days_in_period"`
	BaseWage        decimal.Decimal `db:"base_wage" json:"base_wage"`
	Superannuation  decimal.Decimal `db:"superannuation" json:"superannuation"`
	AnnualLeave     decimal.Decimal `db:"annual_leave" json:"annual_leave"`
	PayrollTax      decimal.Decimal `db:"payroll_tax" json:"payroll_tax"`
	Workcover       decimal.Decimal `db:"workcover" json:"workcover"`
	Total           decimal.Decimal `db:"total" json:"total"`
	Excluded        bool            `db:"excluded" json:"excluded"`
	ExclusionReason string          `db:"exclusion_reason" json:"exclusion_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"-"`
}

// PayPeriod status constants
const (
	PeriodStatusOpen        = "open"
	PeriodStatusReconciling = "reconciling"
	PeriodStatusReconciled  = "reconciled"
)

// ReconciliationRun status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Fact source constants
const (
	SourceWorked  = "worked"
	SourcePaid    = "paid"
	SourceJournal = "journal"
)

// ReconType constants
const (
	ReconTypeHours        = "hours"
	ReconTypeCost         = "cost"
	ReconTypeCompleteness = "completeness"
	ReconTypeCostCenter   = "cost_center"
	ReconTypeJournal      = "journal"
)

// Severity constants
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Exception resolution status constants
const (
	ResolutionOpen        = "open"
	ResolutionUnderReview = "under_review"
	ResolutionResolved    = "resolved"
	ResolutionAccepted    = "accepted"
)

// Accrual basis constants
const (
	AccrualBasisAutoPay   = "auto_pay_prorated"
	AccrualBasisTimesheet = "timesheet_cost"
	AccrualBasisDefault   = "default_cost_center_fallback"
)

// Cost-center reconciliation status constants
const (
	CostCenterStatusMatched   = "matched"
	CostCenterStatusVariance  = "variance"
	CostCenterStatusMissingGL = "missing_gl_posting"
)
