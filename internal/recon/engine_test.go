package recon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-recon/internal/models"
	"payroll-recon/internal/registry"
)

const labourAccount = "6-1100"

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func emptySnapshot() *registry.Snapshot {
	return registry.NewSnapshot(nil, nil, nil, nil, nil, nil)
}

func newTestEngine(snap *registry.Snapshot) *Engine {
	return NewEngine(snap, DefaultTolerances(), labourAccount)
}

func journalLine(account string, debit string) models.JournalFact {
	return models.JournalFact{
		PeriodID:      1,
		LedgerAccount: labourAccount,
		CostAccount:   account,
		Description:   "Wages & Salaries",
		Debit:         d(debit),
	}
}

func findException(t *testing.T, result *Result, reconType string) *models.ReconciliationException {
	t.Helper()
	for i := range result.Exceptions {
		if result.Exceptions[i].ReconType == reconType {
			return &result.Exceptions[i]
		}
	}
	return nil
}

func TestMatchedEmployeeWithinTolerance(t *testing.T) {
	engine := newTestEngine(emptySnapshot())

	worked := []models.WorkedFact{
		{EmployeeCode: "E001", EmployeeName: "Alice Nguyen", Hours: d("38"), Cost: d("1140.25")},
		{EmployeeCode: "E001", EmployeeName: "Alice Nguyen", Hours: d("38"), Cost: d("1140.25")},
	}
	paid := []models.PaidFact{
		{EmployeeCode: "E001", EmployeeName: "Alice Nguyen", CostAccount: "458-50", PayComponent: "Ordinary Hours", TransactionType: "Wages", Hours: d("76"), Amount: d("2280.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "2280.00")}

	result := engine.Run(1, worked, paid, journal)

	require.Len(t, result.Employees, 1)
	row := result.Employees[0]
	assert.True(t, row.HoursMatch, "76 vs 76 hours should match")
	assert.True(t, row.CostMatch, "variance 0.50 is inside the $10 tolerance")
	assert.Equal(t, "0.50", row.CostVariance.StringFixed(2))
	assert.Empty(t, row.Issue)

	assert.Nil(t, findException(t, result, models.ReconTypeHours))
	assert.Nil(t, findException(t, result, models.ReconTypeCost))
	assert.Equal(t, 0, result.Summary.CriticalCount)
	assert.Equal(t, 0, result.Summary.WarningCount)
}

func TestPaidWithoutTimesheetIsCritical(t *testing.T) {
	engine := newTestEngine(emptySnapshot())

	paid := []models.PaidFact{
		{EmployeeCode: "E002", EmployeeName: "Bob Tran", CostAccount: "458-50", PayComponent: "Ordinary Hours", TransactionType: "Wages", Hours: d("40"), Amount: d("1200.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "1200.00")}

	result := engine.Run(1, nil, paid, journal)

	require.Len(t, result.Employees, 1)
	row := result.Employees[0]
	assert.False(t, row.HoursMatch)
	assert.False(t, row.CostMatch)

	hoursEx := findException(t, result, models.ReconTypeHours)
	require.NotNil(t, hoursEx)
	assert.Equal(t, models.SeverityCritical, hoursEx.Severity)
	assert.Contains(t, hoursEx.Description, "NO timesheet in Tanda")
	assert.Equal(t, "E002", hoursEx.EmployeeCode.String)

	costEx := findException(t, result, models.ReconTypeCost)
	require.NotNil(t, costEx)
	assert.Equal(t, models.SeverityCritical, costEx.Severity)
}

func TestWorkedWithoutPayIsCritical(t *testing.T) {
	engine := newTestEngine(emptySnapshot())

	worked := []models.WorkedFact{
		{EmployeeCode: "E003", EmployeeName: "Cara Diaz", Hours: d("20"), Cost: d("600.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "1.00")}
	paid := []models.PaidFact{
		{EmployeeCode: "E999", CostAccount: "458-50", TransactionType: "Wages", Hours: d("1"), Amount: d("1.00")},
	}

	result := engine.Run(1, worked, paid, journal)

	var hoursEx *models.ReconciliationException
	for i := range result.Exceptions {
		ex := &result.Exceptions[i]
		if ex.ReconType == models.ReconTypeHours && ex.EmployeeCode.String == "E003" {
			hoursEx = ex
		}
	}
	require.NotNil(t, hoursEx)
	assert.Equal(t, models.SeverityCritical, hoursEx.Severity)
	assert.Contains(t, hoursEx.Description, "NO hours paid in IQB")
}

func TestExcludedPaidRowsAreNotAOneSidedGap(t *testing.T) {
	// The employee WAS paid in IQB; every line just carries an excluded
	// transaction type. That is a variance against zero totals, not a
	// missing-source gap.
	snap := registry.NewSnapshot(nil, nil, nil, nil, []models.TransactionType{
		{Code: "NetPay", IncludeInCost: false},
	}, nil)
	engine := newTestEngine(snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E011", Hours: d("10"), Cost: d("300.00")},
	}
	paid := []models.PaidFact{
		{EmployeeCode: "E011", CostAccount: "458-50", TransactionType: "NetPay", Hours: d("10"), Amount: d("300.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "1.00")}

	result := engine.Run(1, worked, paid, journal)

	hoursEx := findException(t, result, models.ReconTypeHours)
	require.NotNil(t, hoursEx)
	assert.NotContains(t, hoursEx.Description, "NO hours paid")
	assert.Contains(t, hoursEx.Description, "vs IQB hours")

	costEx := findException(t, result, models.ReconTypeCost)
	require.NotNil(t, costEx)
	assert.NotContains(t, costEx.Description, "NO gross paid")
}

func TestHoursVarianceSeverityByMagnitude(t *testing.T) {
	tests := []struct {
		name      string
		paidHours string
		severity  string
	}{
		{"inside critical threshold", "73", models.SeverityWarning},
		{"past critical threshold", "66", models.SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(emptySnapshot())
			worked := []models.WorkedFact{
				{EmployeeCode: "E004", Hours: d("76"), Cost: d("2280.00")},
			}
			paid := []models.PaidFact{
				{EmployeeCode: "E004", CostAccount: "458-50", TransactionType: "Wages", Hours: d(tt.paidHours), Amount: d("2280.00")},
			}
			journal := []models.JournalFact{journalLine("458-50", "2280.00")}

			result := engine.Run(1, worked, paid, journal)

			ex := findException(t, result, models.ReconTypeHours)
			require.NotNil(t, ex)
			assert.Equal(t, tt.severity, ex.Severity)
		})
	}
}

func TestCostTolerancePassesOnEitherThreshold(t *testing.T) {
	tests := []struct {
		name       string
		workedCost string
		paidGross  string
		match      bool
	}{
		// $9 variance passes on absolute grounds even at a large percentage.
		{"small absolute variance on small base", "100.00", "91.00", true},
		// 0.9% passes on relative grounds even though it exceeds $10.
		{"small relative variance on large base", "10000.00", "9910.00", true},
		// $15 and 1.5%: both thresholds exceeded.
		{"both thresholds exceeded", "1000.00", "985.00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(emptySnapshot())
			worked := []models.WorkedFact{
				{EmployeeCode: "E005", Hours: d("76"), Cost: d(tt.workedCost)},
			}
			paid := []models.PaidFact{
				{EmployeeCode: "E005", CostAccount: "458-50", TransactionType: "Wages", Hours: d("76"), Amount: d(tt.paidGross)},
			}
			journal := []models.JournalFact{journalLine("458-50", tt.paidGross)}

			result := engine.Run(1, worked, paid, journal)

			require.Len(t, result.Employees, 1)
			assert.Equal(t, tt.match, result.Employees[0].CostMatch)
		})
	}
}

func TestAutoPayEmployeeComparedAgainstContractedAmount(t *testing.T) {
	snap := registry.NewSnapshot(nil, nil, nil, nil, nil, []models.Employee{
		{Code: "E006", Name: "Dana Wu", AutoPay: true, AutoPayAmount: d("3500.00")},
	})
	engine := newTestEngine(snap)

	// Salaried: no timesheet cost, but the contracted amount is the baseline.
	paid := []models.PaidFact{
		{EmployeeCode: "E006", CostAccount: "458-50", PayComponent: "Salary", TransactionType: "Wages", Amount: d("3500.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "3500.00")}
	worked := []models.WorkedFact{
		{EmployeeCode: "E006", Hours: d("0"), Cost: d("0")},
	}

	result := engine.Run(1, worked, paid, journal)

	require.Len(t, result.Employees, 1)
	row := result.Employees[0]
	assert.Equal(t, "3500.00", row.ExpectedCost.StringFixed(2))
	assert.True(t, row.CostMatch)
}

func TestSuperannuationExcludedFromPaidGross(t *testing.T) {
	snap := registry.NewSnapshot(nil, []models.PayComponentMapping{
		{PayComponent: "Superannuation", GLAccount: "6-1200", IncludeInGross: false},
	}, nil, nil, nil, nil)
	engine := newTestEngine(snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E007", Hours: d("76"), Cost: d("2000.00")},
	}
	paid := []models.PaidFact{
		{EmployeeCode: "E007", CostAccount: "458-50", PayComponent: "Ordinary Hours", TransactionType: "Wages", Hours: d("76"), Amount: d("2000.00")},
		{EmployeeCode: "E007", CostAccount: "458-50", PayComponent: "Superannuation", TransactionType: "Super", Amount: d("240.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "2000.00")}

	result := engine.Run(1, worked, paid, journal)

	require.Len(t, result.Employees, 1)
	row := result.Employees[0]
	assert.Equal(t, "2000.00", row.PaidGross.StringFixed(2))
	assert.True(t, row.CostMatch)
}

func TestExcludedTransactionTypesSkipPaidTotals(t *testing.T) {
	snap := registry.NewSnapshot(nil, nil, nil, nil, []models.TransactionType{
		{Code: "Tax", IncludeInCost: false},
		{Code: "NetPay", IncludeInCost: false},
	}, nil)
	engine := newTestEngine(snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E008", Hours: d("76"), Cost: d("2000.00")},
	}
	paid := []models.PaidFact{
		{EmployeeCode: "E008", CostAccount: "458-50", TransactionType: "Wages", Hours: d("76"), Amount: d("2000.00")},
		{EmployeeCode: "E008", CostAccount: "458-50", TransactionType: "Tax", Amount: d("600.00")},
		{EmployeeCode: "E008", CostAccount: "458-50", TransactionType: "NetPay", Amount: d("1400.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "2000.00")}

	result := engine.Run(1, worked, paid, journal)

	require.Len(t, result.Employees, 1)
	row := result.Employees[0]
	assert.Equal(t, "2000.00", row.PaidGross.StringFixed(2))
	assert.Equal(t, "76.00", row.PaidHours.StringFixed(2))
}

func TestCompletenessCheckNamesMissingSources(t *testing.T) {
	engine := newTestEngine(emptySnapshot())

	worked := []models.WorkedFact{
		{EmployeeCode: "E009", Hours: d("10"), Cost: d("300.00")},
	}

	result := engine.Run(1, worked, nil, nil)

	ex := findException(t, result, models.ReconTypeCompleteness)
	require.NotNil(t, ex)
	assert.Equal(t, models.SeverityCritical, ex.Severity)
	assert.Contains(t, ex.Description, models.SourcePaid)
	assert.Contains(t, ex.Description, models.SourceJournal)
	assert.NotContains(t, ex.Description, "worked,")
}

func TestCostCenterMissingGLPostingIsCritical(t *testing.T) {
	engine := newTestEngine(emptySnapshot())

	paid := []models.PaidFact{
		{EmployeeCode: "E010", CostAccount: "470-60", TransactionType: "Wages", Amount: d("500.00")},
	}

	result := engine.Run(1, nil, paid, nil)

	require.Len(t, result.CostCenters, 1)
	assert.Equal(t, models.CostCenterStatusMissingGL, result.CostCenters[0].Status)

	ex := findException(t, result, models.ReconTypeCostCenter)
	require.NotNil(t, ex)
	assert.Equal(t, models.SeverityCritical, ex.Severity)
	assert.Contains(t, ex.Description, "470-60")
}

func TestCostCenterVarianceRequiresBothThresholds(t *testing.T) {
	tests := []struct {
		name    string
		paid    string
		journal string
		status  string
	}{
		// $50 variance at 0.5%: absolute exceeded, relative not.
		{"absolute only", "10000.00", "9950.00", models.CostCenterStatusMatched},
		// $8 at 8%: relative exceeded, absolute not.
		{"relative only", "100.00", "92.00", models.CostCenterStatusMatched},
		// $200 at 2%: both exceeded.
		{"both exceeded", "10000.00", "9800.00", models.CostCenterStatusVariance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(emptySnapshot())
			paid := []models.PaidFact{
				{EmployeeCode: "E011", CostAccount: "458-50", TransactionType: "Wages", Amount: d(tt.paid)},
			}
			journal := []models.JournalFact{journalLine("458-50", tt.journal)}

			result := engine.Run(1, nil, paid, journal)

			require.Len(t, result.CostCenters, 1)
			assert.Equal(t, tt.status, result.CostCenters[0].Status)
		})
	}
}

func TestCostCenterTotalsExpandSplitAccounts(t *testing.T) {
	snap := registry.NewSnapshot(nil, nil, []models.SplitRule{
		{SourceAccount: "SPL-CHEF", TargetAccount: "458-50", Percentage: d("60")},
		{SourceAccount: "SPL-CHEF", TargetAccount: "470-60", Percentage: d("40")},
	}, nil, nil, nil)
	engine := newTestEngine(snap)

	paid := []models.PaidFact{
		{EmployeeCode: "E012", CostAccount: "SPL-CHEF", TransactionType: "Wages", Amount: d("1000.00")},
	}
	journal := []models.JournalFact{
		journalLine("458-50", "600.00"),
		journalLine("470-60", "400.00"),
	}

	result := engine.Run(1, nil, paid, journal)

	require.Len(t, result.CostCenters, 2)
	for _, row := range result.CostCenters {
		assert.Equal(t, models.CostCenterStatusMatched, row.Status, "account %s", row.CostAccount)
	}
}

func TestJournalDescriptionsGroupedAndResolved(t *testing.T) {
	snap := registry.NewSnapshot(nil, nil, nil, []models.JournalDescriptionMapping{
		{Description: "Wages & Salaries", GLAccount: "6-1100", IncludeInTotal: true},
		{Description: "Clearing", GLAccount: "2-9000", IncludeInTotal: false},
	}, nil, nil)
	engine := newTestEngine(snap)

	journal := []models.JournalFact{
		{LedgerAccount: labourAccount, CostAccount: "458-50", Description: "Wages & Salaries", Debit: d("1500.00")},
		{LedgerAccount: labourAccount, CostAccount: "470-60", Description: "Wages & Salaries", Debit: d("500.00")},
		{Description: "Clearing", Credit: d("2000.00")},
		{Description: "One Off Adjustment", Debit: d("75.00")},
	}

	result := engine.Run(1, nil, nil, journal)

	require.Len(t, result.Journal, 3)
	byDesc := make(map[string]models.JournalReconciliationRow)
	for _, row := range result.Journal {
		byDesc[row.Description] = row
	}

	wages := byDesc["Wages & Salaries"]
	assert.Equal(t, "2000.00", wages.Debit.StringFixed(2))
	assert.Equal(t, "2000.00", wages.Net.StringFixed(2))
	assert.True(t, wages.IsMapped)
	assert.Equal(t, "6-1100", wages.GLAccount)

	clearing := byDesc["Clearing"]
	assert.Equal(t, "-2000.00", clearing.Net.StringFixed(2))
	assert.False(t, clearing.IncludeInTotal)

	// Unmapped descriptions stay in the totals and are flagged, never dropped.
	adj := byDesc["One Off Adjustment"]
	assert.False(t, adj.IsMapped)
	assert.True(t, adj.IncludeInTotal)
}

func TestRunIsDeterministicAcrossRepeats(t *testing.T) {
	snap := registry.NewSnapshot(nil, nil, nil, nil, nil, nil)
	engine := newTestEngine(snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E013", Hours: d("76"), Cost: d("2280.00")},
		{EmployeeCode: "E014", Hours: d("40"), Cost: d("1000.00")},
	}
	paid := []models.PaidFact{
		{EmployeeCode: "E013", CostAccount: "458-50", TransactionType: "Wages", Hours: d("76"), Amount: d("2280.00")},
		{EmployeeCode: "E014", CostAccount: "470-60", TransactionType: "Wages", Hours: d("30"), Amount: d("760.00")},
	}
	journal := []models.JournalFact{
		journalLine("458-50", "2280.00"),
		journalLine("470-60", "760.00"),
	}

	first := engine.Run(1, worked, paid, journal)
	second := engine.Run(1, worked, paid, journal)

	assert.Equal(t, first.Summary, second.Summary)
	require.Equal(t, len(first.Employees), len(second.Employees))
	for i := range first.Employees {
		assert.Equal(t, first.Employees[i], second.Employees[i])
	}
	require.Equal(t, len(first.Exceptions), len(second.Exceptions))
	for i := range first.Exceptions {
		assert.Equal(t, first.Exceptions[i].Description, second.Exceptions[i].Description)
	}
}

func TestSummaryCountsChecksAndSeverities(t *testing.T) {
	engine := newTestEngine(emptySnapshot())

	worked := []models.WorkedFact{
		{EmployeeCode: "E015", Hours: d("76"), Cost: d("2280.00")},
	}
	paid := []models.PaidFact{
		{EmployeeCode: "E015", CostAccount: "458-50", TransactionType: "Wages", Hours: d("76"), Amount: d("2280.00")},
	}
	journal := []models.JournalFact{journalLine("458-50", "2280.00")}

	result := engine.Run(1, worked, paid, journal)

	// completeness + hours + cost + one cost-center row.
	assert.Equal(t, 4, result.Summary.TotalChecks)
	assert.Equal(t, 4, result.Summary.PassedChecks)
	assert.Equal(t, 0, result.Summary.FailedChecks)
	assert.Equal(t, result.Summary.TotalChecks, result.Summary.PassedChecks+result.Summary.FailedChecks)
}

func TestVariancePctZeroBase(t *testing.T) {
	assert.True(t, variancePct(decimal.Zero, decimal.Zero).IsZero())
	assert.Equal(t, "100", variancePct(d("5"), decimal.Zero).String())
	assert.Equal(t, "2.50", variancePct(d("25"), d("1000")).StringFixed(2))
}
