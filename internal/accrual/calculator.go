// Package accrual estimates per-employee wages and statutory on-costs for a
// partial period, before the payroll bureau has produced a detail report.
package accrual

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"payroll-recon/internal/config"
	"payroll-recon/internal/models"
	"payroll-recon/internal/registry"
)

// Rates are the employer on-cost percentages applied to base wage, plus the
// pay-cycle length used to pro-rate contracted auto-pay amounts. Each on-cost
// is rounded half-up to cents independently before summing; numeric
// compatibility depends on that rounding order.
type Rates struct {
	Superannuation decimal.Decimal
	AnnualLeave    decimal.Decimal
	PayrollTax     decimal.Decimal
	Workcover      decimal.Decimal
	CycleDays      int
}

func RatesFromConfig(cfg config.AccrualConfig) Rates {
	return Rates{
		Superannuation: cfg.SuperannuationPct,
		AnnualLeave:    cfg.AnnualLeavePct,
		PayrollTax:     cfg.PayrollTaxPct,
		Workcover:      cfg.WorkcoverPct,
		CycleDays:      cfg.CycleDays,
	}
}

// DefaultRates returns the statutory defaults: superannuation 12%, annual
// leave 7.7%, payroll tax 4.95%, workcover 1.384%, over a 14-day cycle.
func DefaultRates() Rates {
	return Rates{
		Superannuation: decimal.NewFromInt(12),
		AnnualLeave:    decimal.NewFromFloat(7.7),
		PayrollTax:     decimal.NewFromFloat(4.95),
		Workcover:      decimal.NewFromFloat(1.384),
		CycleDays:      14,
	}
}

type Calculator struct {
	rates Rates
	snap  *registry.Snapshot
}

func NewCalculator(rates Rates, snap *registry.Snapshot) *Calculator {
	return &Calculator{rates: rates, snap: snap}
}

// BatchResult carries the per-employee results alongside the errors of
// employees that could not be processed. One employee failing never aborts
// the batch.
type BatchResult struct {
	Results []models.AccrualResult
	Errors  map[string]string
}

const dateLayout = "2006-01-02"

// Run computes accruals for every employee with timesheet activity in the
// window, then a second pass over auto-pay employees absent from the
// timesheets so nobody with a nonzero contracted amount is silently skipped.
func (c *Calculator) Run(periodID int64, start, end time.Time, worked []models.WorkedFact) (*BatchResult, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("accrual end %s is before start %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	batch := &BatchResult{Errors: make(map[string]string)}
	days := inclusiveDays(start, end)

	timesheetCost := make(map[string]decimal.Decimal)
	for _, wf := range worked {
		timesheetCost[wf.EmployeeCode] = timesheetCost[wf.EmployeeCode].Add(wf.Cost)
	}

	processed := make(map[string]bool)
	for _, code := range sortedCodes(timesheetCost) {
		processed[code] = true
		c.accrueEmployee(periodID, code, start, end, days, timesheetCost[code], batch)
	}

	// Second pass: auto-pay employees with no timesheet in the window.
	var secondPass []string
	for _, emp := range c.snap.Employees() {
		if processed[emp.Code] || !emp.AutoPay || emp.AutoPayAmount.IsZero() {
			continue
		}
		secondPass = append(secondPass, emp.Code)
	}
	sort.Strings(secondPass)
	for _, code := range secondPass {
		c.accrueEmployee(periodID, code, start, end, days, decimal.Zero, batch)
	}

	return batch, nil
}

func (c *Calculator) accrueEmployee(periodID int64, code string, start, end time.Time, days int, timesheetCost decimal.Decimal, batch *BatchResult) {
	emp, ok := c.snap.LookupEmployee(code)
	if !ok {
		batch.Errors[code] = "employee not found in employee master"
		return
	}

	result := models.AccrualResult{
		PeriodID:     periodID,
		EmployeeCode: code,
		EmployeeName: emp.Name,
		AccrualStart: start.Format(dateLayout),
		AccrualEnd:   end.Format(dateLayout),
		DaysInPeriod: days,
	}

	if terminatedBefore(emp, start) {
		result.Excluded = true
		result.ExclusionReason = fmt.Sprintf("terminated %s, before accrual start", emp.TerminationDate.String)
		batch.Results = append(batch.Results, result)
		return
	}

	switch {
	case !emp.AutoPayAmount.IsZero():
		// Pro-rate the contracted fortnightly amount over the accrual window.
		result.Basis = models.AccrualBasisAutoPay
		result.BaseWage = emp.AutoPayAmount.
			Mul(decimal.NewFromInt(int64(days))).
			Div(decimal.NewFromInt(int64(c.rates.CycleDays))).
			Round(2)
	case !timesheetCost.IsZero():
		// The day count is recorded for audit even though the formula does
		// not use it.
		result.Basis = models.AccrualBasisTimesheet
		result.BaseWage = timesheetCost.Round(2)
	default:
		result.Basis = models.AccrualBasisDefault
		result.BaseWage = decimal.Zero
	}

	result.Superannuation = onCost(result.BaseWage, c.rates.Superannuation)
	if isCasual(emp.EmploymentType) {
		result.AnnualLeave = decimal.Zero
	} else {
		result.AnnualLeave = onCost(result.BaseWage, c.rates.AnnualLeave)
	}
	result.PayrollTax = onCost(result.BaseWage, c.rates.PayrollTax)
	result.Workcover = onCost(result.BaseWage, c.rates.Workcover)

	result.Total = result.BaseWage.
		Add(result.Superannuation).
		Add(result.AnnualLeave).
		Add(result.PayrollTax).
		Add(result.Workcover)

	batch.Results = append(batch.Results, result)
}

// onCost applies a percentage rate and rounds half-up to cents. Each
// component is rounded before the total is summed.
func onCost(base, ratePct decimal.Decimal) decimal.Decimal {
	return base.Mul(ratePct).Div(decimal.NewFromInt(100)).Round(2)
}

func isCasual(employmentType string) bool {
	return strings.Contains(strings.ToLower(employmentType), "casual")
}

func terminatedBefore(emp models.Employee, start time.Time) bool {
	if !emp.TerminationDate.Valid || emp.TerminationDate.String == "" {
		return false
	}
	term, err := time.Parse(dateLayout, emp.TerminationDate.String)
	if err != nil {
		return false
	}
	return term.Before(start)
}

func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func sortedCodes(m map[string]decimal.Decimal) []string {
	codes := make([]string, 0, len(m))
	for c := range m {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
