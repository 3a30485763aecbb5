package accrual

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-recon/internal/models"
	"payroll-recon/internal/registry"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func snapshotWithEmployees(employees ...models.Employee) *registry.Snapshot {
	return registry.NewSnapshot(nil, nil, nil, nil, nil, employees)
}

func findResult(t *testing.T, batch *BatchResult, code string) models.AccrualResult {
	t.Helper()
	for _, r := range batch.Results {
		if r.EmployeeCode == code {
			return r
		}
	}
	t.Fatalf("no result for employee %s", code)
	return models.AccrualResult{}
}

func TestAutoPayProratedWithOnCosts(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E001", Name: "Alice Nguyen", EmploymentType: "Full Time",
		AutoPay: true, AutoPayAmount: d("3500.00"),
	})
	calc := NewCalculator(DefaultRates(), snap)

	// Seven days of a fourteen-day cycle.
	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), nil)
	require.NoError(t, err)
	require.Empty(t, batch.Errors)

	result := findResult(t, batch, "E001")
	assert.Equal(t, models.AccrualBasisAutoPay, result.Basis)
	assert.Equal(t, 7, result.DaysInPeriod)
	assert.Equal(t, "1750.00", result.BaseWage.StringFixed(2))
	assert.Equal(t, "210.00", result.Superannuation.StringFixed(2))
	assert.Equal(t, "134.75", result.AnnualLeave.StringFixed(2))
	assert.Equal(t, "86.63", result.PayrollTax.StringFixed(2))
	assert.Equal(t, "24.22", result.Workcover.StringFixed(2))
	assert.Equal(t, "2205.60", result.Total.StringFixed(2))
}

func TestEachOnCostRoundedBeforeSumming(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E002", Name: "Bob Tran", EmploymentType: "Full Time",
	})
	calc := NewCalculator(DefaultRates(), snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E002", Cost: d("1234.56")},
	}

	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), worked)
	require.NoError(t, err)

	result := findResult(t, batch, "E002")
	// 1234.56 * 4.95% = 61.11072, rounded half-up to 61.11 before the sum.
	assert.Equal(t, "61.11", result.PayrollTax.StringFixed(2))

	componentSum := result.BaseWage.
		Add(result.Superannuation).
		Add(result.AnnualLeave).
		Add(result.PayrollTax).
		Add(result.Workcover)
	assert.True(t, result.Total.Equal(componentSum))
}

func TestTimesheetBasisWhenNoAutoPay(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E003", Name: "Cara Diaz", EmploymentType: "Part Time",
	})
	calc := NewCalculator(DefaultRates(), snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E003", Cost: d("800.00")},
		{EmployeeCode: "E003", Cost: d("200.00")},
	}

	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), worked)
	require.NoError(t, err)

	result := findResult(t, batch, "E003")
	assert.Equal(t, models.AccrualBasisTimesheet, result.Basis)
	assert.Equal(t, "1000.00", result.BaseWage.StringFixed(2))
}

func TestCasualEmployeeAccruesNoAnnualLeave(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E004", Name: "Dan Kim", EmploymentType: "Casual - Kitchen",
	})
	calc := NewCalculator(DefaultRates(), snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E004", Cost: d("1000.00")},
	}

	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), worked)
	require.NoError(t, err)

	result := findResult(t, batch, "E004")
	assert.True(t, result.AnnualLeave.IsZero())
	assert.Equal(t, "120.00", result.Superannuation.StringFixed(2))
	assert.Equal(t, "1183.34", result.Total.StringFixed(2))
}

func TestTerminatedBeforeWindowIsExcluded(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E005", Name: "Eve Santos", EmploymentType: "Full Time",
		TerminationDate: sql.NullString{String: "2025-06-30", Valid: true},
	})
	calc := NewCalculator(DefaultRates(), snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E005", Cost: d("500.00")},
	}

	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), worked)
	require.NoError(t, err)

	result := findResult(t, batch, "E005")
	assert.True(t, result.Excluded)
	assert.Contains(t, result.ExclusionReason, "2025-06-30")
	assert.True(t, result.Total.IsZero())
}

func TestTerminationInsideWindowStillAccrues(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E006", Name: "Finn Mora", EmploymentType: "Full Time",
		TerminationDate: sql.NullString{String: "2025-07-10", Valid: true},
	})
	calc := NewCalculator(DefaultRates(), snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "E006", Cost: d("500.00")},
	}

	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), worked)
	require.NoError(t, err)

	result := findResult(t, batch, "E006")
	assert.False(t, result.Excluded)
}

func TestAutoPayEmployeesWithoutTimesheetsAreSweptUp(t *testing.T) {
	snap := snapshotWithEmployees(
		models.Employee{Code: "E007", Name: "Gia Patel", EmploymentType: "Full Time", AutoPay: true, AutoPayAmount: d("2800.00")},
		models.Employee{Code: "E008", Name: "Hal Ford", EmploymentType: "Casual"},
	)
	calc := NewCalculator(DefaultRates(), snap)

	// No timesheets at all: only the auto-pay employee gets a result.
	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-20"), nil)
	require.NoError(t, err)

	require.Len(t, batch.Results, 1)
	result := batch.Results[0]
	assert.Equal(t, "E007", result.EmployeeCode)
	assert.Equal(t, models.AccrualBasisAutoPay, result.Basis)
	assert.Equal(t, "2800.00", result.BaseWage.StringFixed(2))
}

func TestUnknownEmployeeFailsAloneNotTheBatch(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E009", Name: "Ira Cole", EmploymentType: "Full Time",
	})
	calc := NewCalculator(DefaultRates(), snap)

	worked := []models.WorkedFact{
		{EmployeeCode: "GHOST", Cost: d("100.00")},
		{EmployeeCode: "E009", Cost: d("900.00")},
	}

	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), worked)
	require.NoError(t, err)

	require.Len(t, batch.Results, 1)
	assert.Equal(t, "E009", batch.Results[0].EmployeeCode)
	assert.Contains(t, batch.Errors["GHOST"], "not found")
}

func TestEndBeforeStartRejected(t *testing.T) {
	calc := NewCalculator(DefaultRates(), snapshotWithEmployees())

	_, err := calc.Run(1, date("2025-07-13"), date("2025-07-07"), nil)
	require.Error(t, err)
}

func TestZeroBasisFallsBackToDefault(t *testing.T) {
	snap := snapshotWithEmployees(models.Employee{
		Code: "E010", Name: "Jo Buck", EmploymentType: "Full Time", AutoPay: true,
	})
	calc := NewCalculator(DefaultRates(), snap)

	// Auto-pay flag set but zero contracted amount and no timesheets in the
	// window: the second pass skips them entirely.
	batch, err := calc.Run(1, date("2025-07-07"), date("2025-07-13"), nil)
	require.NoError(t, err)
	assert.Empty(t, batch.Results)

	// With a zero-cost timesheet line the employee appears with a zero base.
	worked := []models.WorkedFact{
		{EmployeeCode: "E010", Hours: d("4"), Cost: d("0")},
	}
	batch, err = calc.Run(1, date("2025-07-07"), date("2025-07-13"), worked)
	require.NoError(t, err)

	result := findResult(t, batch, "E010")
	assert.Equal(t, models.AccrualBasisDefault, result.Basis)
	assert.True(t, result.Total.IsZero())
}

func TestBasisLabelsFitStoredWidth(t *testing.T) {
	// accrual_results.basis is VARCHAR(40); a longer label rejects the row
	// under strict mode and aborts the whole batch write.
	for _, basis := range []string{
		models.AccrualBasisAutoPay,
		models.AccrualBasisTimesheet,
		models.AccrualBasisDefault,
	} {
		assert.LessOrEqual(t, len(basis), 40, basis)
	}
}
