// Package recon merges per-employee facts from the timesheet (Tanda) and
// payroll-bureau (IQB) sources into joint records, computes variances against
// tolerance rules, and emits classified exceptions. The engine is pure: it
// works over already-loaded facts and a registry snapshot, performs no I/O,
// and leaves persistence to the caller.
package recon

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"payroll-recon/internal/models"
	"payroll-recon/internal/registry"
)

type Engine struct {
	snap          *registry.Snapshot
	tol           Tolerances
	labourAccount string
}

func NewEngine(snap *registry.Snapshot, tol Tolerances, labourAccount string) *Engine {
	return &Engine{snap: snap, tol: tol, labourAccount: labourAccount}
}

// Result is the full in-memory output of one reconciliation run.
type Result struct {
	Employees   []models.EmployeeReconciliation
	Exceptions  []models.ReconciliationException
	CostCenters []models.CostCenterReconciliationRow
	Journal     []models.JournalReconciliationRow
	Summary     Summary
}

type Summary struct {
	TotalChecks   int
	PassedChecks  int
	FailedChecks  int
	CriticalCount int
	WarningCount  int
}

// employeeTotals is the joint per-employee record built from both sources.
type employeeTotals struct {
	name        string
	workedHours decimal.Decimal
	workedCost  decimal.Decimal
	paidHours   decimal.Decimal
	paidGross   decimal.Decimal
	inWorked    bool
	inPaid      bool
}

// Run reconciles one period. Facts for absent sources come in as empty
// slices; the completeness check reports them without blocking the rest.
func (e *Engine) Run(periodID int64, worked []models.WorkedFact, paid []models.PaidFact, journal []models.JournalFact) *Result {
	result := &Result{}

	e.checkCompleteness(periodID, worked, paid, journal, result)
	e.reconcileEmployees(periodID, worked, paid, result)
	e.reconcileCostCenters(periodID, paid, journal, result)
	result.Journal = e.reconcileJournalDescriptions(periodID, journal)

	for _, ex := range result.Exceptions {
		switch ex.Severity {
		case models.SeverityCritical:
			result.Summary.CriticalCount++
		case models.SeverityWarning:
			result.Summary.WarningCount++
		}
	}

	return result
}

// checkCompleteness emits one critical exception naming every missing source
// type. Counts as a single check.
func (e *Engine) checkCompleteness(periodID int64, worked []models.WorkedFact, paid []models.PaidFact, journal []models.JournalFact, result *Result) {
	var missing []string
	if len(worked) == 0 {
		missing = append(missing, models.SourceWorked)
	}
	if len(paid) == 0 {
		missing = append(missing, models.SourcePaid)
	}
	if len(journal) == 0 {
		missing = append(missing, models.SourceJournal)
	}

	result.Summary.TotalChecks++
	if len(missing) == 0 {
		result.Summary.PassedChecks++
		return
	}

	result.Summary.FailedChecks++
	result.Exceptions = append(result.Exceptions, models.ReconciliationException{
		PeriodID:         periodID,
		ReconType:        models.ReconTypeCompleteness,
		Severity:         models.SeverityCritical,
		Description:      fmt.Sprintf("Period is missing source data: %s", strings.Join(missing, ", ")),
		ResolutionStatus: models.ResolutionOpen,
	})
}

func (e *Engine) reconcileEmployees(periodID int64, worked []models.WorkedFact, paid []models.PaidFact, result *Result) {
	totals := make(map[string]*employeeTotals)
	get := func(code, name string) *employeeTotals {
		t, ok := totals[code]
		if !ok {
			t = &employeeTotals{}
			totals[code] = t
		}
		if t.name == "" {
			t.name = name
		}
		return t
	}

	for _, wf := range worked {
		t := get(wf.EmployeeCode, wf.EmployeeName)
		t.inWorked = true
		t.workedHours = t.workedHours.Add(wf.Hours)
		t.workedCost = t.workedCost.Add(wf.Cost)
	}

	for _, pf := range paid {
		t := get(pf.EmployeeCode, pf.EmployeeName)
		t.inPaid = true
		if !e.snap.IncludeInCost(pf.TransactionType) {
			continue
		}
		t.paidHours = t.paidHours.Add(pf.Hours)
		// Paid gross excludes superannuation so the tolerance is not
		// distorted by the on-cost.
		if e.snap.IncludeInGross(pf.PayComponent) {
			t.paidGross = t.paidGross.Add(pf.Amount)
		}
	}

	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		t := totals[code]
		row := e.buildEmployeeRow(periodID, code, t)
		result.Employees = append(result.Employees, row)
		e.classifyHours(periodID, code, t, row, result)
		e.classifyCost(periodID, code, t, row, result)
	}
}

func (e *Engine) buildEmployeeRow(periodID int64, code string, t *employeeTotals) models.EmployeeReconciliation {
	hoursVariance := t.workedHours.Sub(t.paidHours).Abs()

	expected := e.expectedCost(code, t)
	costVariance := expected.Sub(t.paidGross).Abs()
	costVariancePct := variancePct(costVariance, expected)

	row := models.EmployeeReconciliation{
		PeriodID:        periodID,
		EmployeeCode:    code,
		EmployeeName:    t.name,
		WorkedHours:     t.workedHours,
		PaidHours:       t.paidHours,
		HoursVariance:   hoursVariance,
		WorkedCost:      t.workedCost,
		ExpectedCost:    expected,
		PaidGross:       t.paidGross,
		CostVariance:    costVariance,
		CostVariancePct: costVariancePct,
		HoursMatch:      e.tol.hoursMatch(hoursVariance),
		CostMatch:       e.tol.costMatch(costVariance, costVariancePct),
	}

	var issues []string
	if !row.HoursMatch {
		issues = append(issues, fmt.Sprintf("hours variance %s", hoursVariance.StringFixed(2)))
	}
	if !row.CostMatch {
		issues = append(issues, fmt.Sprintf("cost variance %s", costVariance.StringFixed(2)))
	}
	row.Issue = strings.Join(issues, "; ")

	return row
}

// expectedCost is the auto-pay amount for salaried employees, otherwise the
// worked-fact cost.
func (e *Engine) expectedCost(code string, t *employeeTotals) decimal.Decimal {
	if emp, ok := e.snap.LookupEmployee(code); ok && emp.AutoPay && !emp.AutoPayAmount.IsZero() {
		return emp.AutoPayAmount
	}
	return t.workedCost
}

func (e *Engine) classifyHours(periodID int64, code string, t *employeeTotals, row models.EmployeeReconciliation, result *Result) {
	result.Summary.TotalChecks++
	if row.HoursMatch {
		result.Summary.PassedChecks++
		return
	}
	result.Summary.FailedChecks++

	severity := models.SeverityWarning
	var description string
	switch {
	case !t.inWorked:
		// One-sided: structural gap, not a rounding difference.
		severity = models.SeverityCritical
		description = fmt.Sprintf("IQB shows %s paid hours but employee has NO timesheet in Tanda", t.paidHours.StringFixed(2))
	case !t.inPaid:
		severity = models.SeverityCritical
		description = fmt.Sprintf("Tanda shows %s worked hours but NO hours paid in IQB", t.workedHours.StringFixed(2))
	default:
		if row.HoursVariance.GreaterThan(e.tol.CriticalHours) {
			severity = models.SeverityCritical
		}
		description = fmt.Sprintf("Tanda hours %s vs IQB hours %s (variance %s)",
			t.workedHours.StringFixed(2), t.paidHours.StringFixed(2), row.HoursVariance.StringFixed(2))
	}

	result.Exceptions = append(result.Exceptions, models.ReconciliationException{
		PeriodID:         periodID,
		EmployeeCode:     sql.NullString{String: code, Valid: true},
		ReconType:        models.ReconTypeHours,
		Severity:         severity,
		ExpectedValue:    t.workedHours,
		ActualValue:      t.paidHours,
		Variance:         row.HoursVariance,
		Description:      description,
		ResolutionStatus: models.ResolutionOpen,
	})
}

func (e *Engine) classifyCost(periodID int64, code string, t *employeeTotals, row models.EmployeeReconciliation, result *Result) {
	result.Summary.TotalChecks++
	if row.CostMatch {
		result.Summary.PassedChecks++
		return
	}
	result.Summary.FailedChecks++

	severity := models.SeverityWarning
	var description string
	switch {
	case !t.inWorked && row.ExpectedCost.IsZero():
		severity = models.SeverityCritical
		description = fmt.Sprintf("IQB paid %s gross but NO expected cost (no timesheet in Tanda, not auto-pay)", t.paidGross.StringFixed(2))
	case !t.inPaid:
		severity = models.SeverityCritical
		description = fmt.Sprintf("Expected cost %s but NO gross paid in IQB", row.ExpectedCost.StringFixed(2))
	default:
		if row.CostVariancePct.GreaterThan(e.tol.CriticalCostPct) {
			severity = models.SeverityCritical
		}
		description = fmt.Sprintf("Expected cost %s vs IQB gross %s (variance %s, %s%%)",
			row.ExpectedCost.StringFixed(2), t.paidGross.StringFixed(2),
			row.CostVariance.StringFixed(2), row.CostVariancePct.StringFixed(2))
	}

	result.Exceptions = append(result.Exceptions, models.ReconciliationException{
		PeriodID:         periodID,
		EmployeeCode:     sql.NullString{String: code, Valid: true},
		ReconType:        models.ReconTypeCost,
		Severity:         severity,
		ExpectedValue:    row.ExpectedCost,
		ActualValue:      t.paidGross,
		Variance:         row.CostVariance,
		Description:      description,
		ResolutionStatus: models.ResolutionOpen,
	})
}

// variancePct returns the variance as a percentage of base. A zero base with
// a nonzero variance reports 100: the one-sided rules take over before the
// percentage matters.
func variancePct(variance, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		if variance.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	return variance.Div(base).Mul(decimal.NewFromInt(100)).Round(2)
}
