package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"payroll-recon/internal/models"
)

var (
	percentageTarget    = decimal.NewFromInt(100)
	percentageTolerance = decimal.NewFromFloat(0.05)
)

// Validate checks a rule against the allocation invariants: non-empty,
// percentages summing to 100 within ±0.05, every key in location-department
// syntax (virtual split accounts are exempt). Violations are appended to the
// rule's error list and set IsValid; mapping-gap notes already on the rule do
// not affect validity. The rule is persisted either way so a failure is
// visible and correctable.
func Validate(rule *models.CostAllocationRule) {
	var errs []string

	if len(rule.Allocations) == 0 {
		errs = append(errs, "allocations must not be empty")
	}

	sum := decimal.Zero
	for account, alloc := range rule.Allocations {
		sum = sum.Add(alloc.Percentage)
		if !models.IsVirtualAccount(account) && !models.IsValidCostAccount(account) {
			errs = append(errs, fmt.Sprintf("cost account %q is not in location-department format", account))
		}
	}

	if len(rule.Allocations) > 0 {
		if sum.Sub(percentageTarget).Abs().GreaterThan(percentageTolerance) {
			errs = append(errs, fmt.Sprintf("percentages sum to %s, expected 100 within 0.05", sum.StringFixed(2)))
		}
	}

	rule.IsValid = len(errs) == 0
	rule.ValidationErrors = append(rule.ValidationErrors, errs...)
}
