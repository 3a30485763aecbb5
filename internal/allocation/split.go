package allocation

import (
	"github.com/shopspring/decimal"

	"payroll-recon/internal/models"
	"payroll-recon/internal/registry"
)

// ExpandSplits rewrites a {cost-account: amount} mapping so that any virtual
// split account is replaced by its weighted real-account equivalents. Ordinary
// keys pass through untouched. A virtual account with no registered targets is
// kept under its original key, not dropped, so downstream reporting surfaces
// the gap. Returns the expanded mapping and the list of unresolved virtual
// accounts. Expansion is idempotent.
func ExpandSplits(amounts map[string]decimal.Decimal, snap *registry.Snapshot) (map[string]decimal.Decimal, []string) {
	expanded := make(map[string]decimal.Decimal, len(amounts))
	var unresolved []string

	for account, amount := range amounts {
		if !models.IsVirtualAccount(account) {
			expanded[account] = expanded[account].Add(amount)
			continue
		}

		targets, ok := snap.SplitTargets(account)
		if !ok {
			expanded[account] = expanded[account].Add(amount)
			unresolved = append(unresolved, account)
			continue
		}

		for _, t := range targets {
			share := amount.Mul(t.Percentage).Div(decimal.NewFromInt(100))
			expanded[t.TargetAccount] = expanded[t.TargetAccount].Add(share)
		}
	}

	return expanded, unresolved
}
