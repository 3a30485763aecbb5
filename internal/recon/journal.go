package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"payroll-recon/internal/models"
)

// reconcileJournalDescriptions groups raw journal lines by free-text
// description, sums debit and credit, and resolves each description against
// the mapping registry. Unmapped descriptions are flagged but remain in the
// totals rather than being dropped.
func (e *Engine) reconcileJournalDescriptions(periodID int64, journal []models.JournalFact) []models.JournalReconciliationRow {
	type agg struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}
	grouped := make(map[string]*agg)
	for _, jf := range journal {
		a, ok := grouped[jf.Description]
		if !ok {
			a = &agg{}
			grouped[jf.Description] = a
		}
		a.debit = a.debit.Add(jf.Debit)
		a.credit = a.credit.Add(jf.Credit)
	}

	descriptions := make([]string, 0, len(grouped))
	for d := range grouped {
		descriptions = append(descriptions, d)
	}
	sort.Strings(descriptions)

	rows := make([]models.JournalReconciliationRow, 0, len(descriptions))
	for _, desc := range descriptions {
		a := grouped[desc]
		row := models.JournalReconciliationRow{
			PeriodID:       periodID,
			Description:    desc,
			Debit:          a.debit,
			Credit:         a.credit,
			Net:            a.debit.Sub(a.credit),
			IncludeInTotal: true,
			IsMapped:       false,
		}
		if jd, ok := e.snap.LookupJournalDescription(desc); ok {
			row.GLAccount = jd.GLAccount
			row.IncludeInTotal = jd.IncludeInTotal
			row.IsMapped = true
		}
		rows = append(rows, row)
	}

	return rows
}
