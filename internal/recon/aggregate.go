package recon

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"payroll-recon/internal/allocation"
	"payroll-recon/internal/models"
)

// reconcileCostCenters compares split-expanded paid-fact totals per cost
// center against journal debits posted to the labour ledger account. A cost
// center with nonzero paid cost and no journal presence is always critical;
// otherwise a variance is only flagged when it exceeds both the absolute and
// the relative threshold.
func (e *Engine) reconcileCostCenters(periodID int64, paid []models.PaidFact, journal []models.JournalFact, result *Result) {
	paidTotals := make(map[string]decimal.Decimal)
	for _, pf := range paid {
		if !e.snap.IncludeInCost(pf.TransactionType) || !e.snap.IncludeInGross(pf.PayComponent) {
			continue
		}
		paidTotals[pf.CostAccount] = paidTotals[pf.CostAccount].Add(pf.Amount)
	}
	expanded, _ := allocation.ExpandSplits(paidTotals, e.snap)

	journalTotals := make(map[string]decimal.Decimal)
	for _, jf := range journal {
		if jf.LedgerAccount != e.labourAccount {
			continue
		}
		journalTotals[jf.CostAccount] = journalTotals[jf.CostAccount].Add(jf.Debit)
	}

	accounts := make(map[string]struct{})
	for a := range expanded {
		accounts[a] = struct{}{}
	}
	for a := range journalTotals {
		accounts[a] = struct{}{}
	}
	sorted := make([]string, 0, len(accounts))
	for a := range accounts {
		sorted = append(sorted, a)
	}
	sort.Strings(sorted)

	for _, account := range sorted {
		paidTotal := expanded[account]
		journalTotal := journalTotals[account]
		variance := paidTotal.Sub(journalTotal).Abs()
		pct := variancePct(variance, paidTotal)

		row := models.CostCenterReconciliationRow{
			PeriodID:     periodID,
			CostAccount:  account,
			PaidTotal:    paidTotal,
			JournalTotal: journalTotal,
			Variance:     variance,
			VariancePct:  pct,
			Status:       models.CostCenterStatusMatched,
		}

		result.Summary.TotalChecks++
		switch {
		case !paidTotal.IsZero() && journalTotal.IsZero():
			row.Status = models.CostCenterStatusMissingGL
			result.Summary.FailedChecks++
			result.Exceptions = append(result.Exceptions, models.ReconciliationException{
				PeriodID:         periodID,
				ReconType:        models.ReconTypeCostCenter,
				Severity:         models.SeverityCritical,
				ExpectedValue:    paidTotal,
				ActualValue:      journalTotal,
				Variance:         variance,
				Description:      fmt.Sprintf("Cost center %s has %s paid cost but missing GL posting", account, paidTotal.StringFixed(2)),
				ResolutionStatus: models.ResolutionOpen,
			})
		case e.tol.aggregateFlagged(variance, pct):
			row.Status = models.CostCenterStatusVariance
			result.Summary.FailedChecks++
			result.Exceptions = append(result.Exceptions, models.ReconciliationException{
				PeriodID:         periodID,
				ReconType:        models.ReconTypeCostCenter,
				Severity:         models.SeverityWarning,
				ExpectedValue:    paidTotal,
				ActualValue:      journalTotal,
				Variance:         variance,
				Description:      fmt.Sprintf("Cost center %s: paid %s vs GL %s (variance %s, %s%%)", account, paidTotal.StringFixed(2), journalTotal.StringFixed(2), variance.StringFixed(2), pct.StringFixed(2)),
				ResolutionStatus: models.ResolutionOpen,
			})
		default:
			result.Summary.PassedChecks++
		}

		result.CostCenters = append(result.CostCenters, row)
	}
}
