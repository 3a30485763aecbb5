// Package allocation builds per-employee cost-center allocation rules from
// either payroll source and expands virtual split accounts into real cost
// centers.
package allocation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"payroll-recon/internal/models"
	"payroll-recon/internal/registry"
)

var hundred = decimal.NewFromInt(100)

// rebuildClobbers encodes which existing rule sources a rebuild of a given
// source may delete. Storage keeps one rule per (period, employee), so a
// machine rebuild removes the machine-built rules of BOTH sources before
// writing; otherwise switching between default and derived collides with the
// other source's leftover rows. Overrides are absent on purpose: once
// applied, an override is never replaced by a rebuild of the other sources.
var rebuildClobbers = map[string][]string{
	models.AllocationSourceDefault: {models.AllocationSourceDefault, models.AllocationSourceDerived},
	models.AllocationSourceDerived: {models.AllocationSourceDefault, models.AllocationSourceDerived},
}

// ClobberSources returns the rule sources a rebuild of source is allowed to
// delete before recomputing.
func ClobberSources(source string) []string {
	return rebuildClobbers[source]
}

type Builder struct {
	snap *registry.Snapshot
}

func NewBuilder(snap *registry.Snapshot) *Builder {
	return &Builder{snap: snap}
}

// BuildDefault derives one rule per employee from the paid-fact source:
// line items grouped by cost account, percentage = group amount over total.
// Tax and net-pay transaction types are never allocated.
func (b *Builder) BuildDefault(periodID int64, paid []models.PaidFact) []models.CostAllocationRule {
	byEmployee := make(map[string]map[string]decimal.Decimal)
	totals := make(map[string]decimal.Decimal)

	for _, pf := range paid {
		if !b.snap.IncludeInCost(pf.TransactionType) {
			continue
		}
		if byEmployee[pf.EmployeeCode] == nil {
			byEmployee[pf.EmployeeCode] = make(map[string]decimal.Decimal)
		}
		byEmployee[pf.EmployeeCode][pf.CostAccount] = byEmployee[pf.EmployeeCode][pf.CostAccount].Add(pf.Amount)
		totals[pf.EmployeeCode] = totals[pf.EmployeeCode].Add(pf.Amount)
	}

	var rules []models.CostAllocationRule
	for _, code := range sortedKeys(byEmployee) {
		total := totals[code]
		if total.IsZero() {
			continue
		}

		allocations := make(models.AllocationMap, len(byEmployee[code]))
		for account, amount := range byEmployee[code] {
			allocations[account] = models.Allocation{
				Percentage: amount.Div(total).Mul(hundred).Round(2),
				Amount:     amount,
				Source:     models.AllocationSourceDefault,
			}
		}

		rule := models.CostAllocationRule{
			PeriodID:     periodID,
			EmployeeCode: code,
			Allocations:  allocations,
			Source:       models.AllocationSourceDefault,
			TotalAmount:  total,
		}
		Validate(&rule)
		rules = append(rules, rule)
	}

	return rules
}

// BuildDerived derives one rule per employee from the worked-fact source:
// line items grouped by location+team composite, each composite resolved to a
// cost account through the active location mappings. Unresolved composites
// are recorded as mapping errors on the rule and excluded from the percentage
// base. An employee whose composites all fail to resolve gets no rule; the
// caller may fall back to the default source.
func (b *Builder) BuildDerived(periodID int64, worked []models.WorkedFact) []models.CostAllocationRule {
	type composite struct {
		location string
		team     string
	}
	byEmployee := make(map[string]map[composite]decimal.Decimal)

	for _, wf := range worked {
		key := composite{wf.Location, wf.Team}
		if byEmployee[wf.EmployeeCode] == nil {
			byEmployee[wf.EmployeeCode] = make(map[composite]decimal.Decimal)
		}
		byEmployee[wf.EmployeeCode][key] = byEmployee[wf.EmployeeCode][key].Add(wf.Cost)
	}

	var rules []models.CostAllocationRule
	for _, code := range sortedKeys(byEmployee) {
		resolved := make(map[string]decimal.Decimal)
		var mappingErrs []string
		total := decimal.Zero

		for key, amount := range byEmployee[code] {
			lm, ok := b.snap.LookupLocation(key.location, key.team)
			if !ok {
				mappingErrs = append(mappingErrs, fmt.Sprintf("no active mapping for location %q team %q", key.location, key.team))
				continue
			}
			// The same cost account can be reached from several composites;
			// their amounts accumulate.
			resolved[lm.CostAccount] = resolved[lm.CostAccount].Add(amount)
			total = total.Add(amount)
		}
		sort.Strings(mappingErrs)

		if len(resolved) == 0 || total.IsZero() {
			continue
		}

		allocations := make(models.AllocationMap, len(resolved))
		for account, amount := range resolved {
			allocations[account] = models.Allocation{
				Percentage: amount.Div(total).Mul(hundred).Round(2),
				Amount:     amount,
				Source:     models.AllocationSourceDerived,
			}
		}

		rule := models.CostAllocationRule{
			PeriodID:         periodID,
			EmployeeCode:     code,
			Allocations:      allocations,
			Source:           models.AllocationSourceDerived,
			TotalAmount:      total,
			ValidationErrors: mappingErrs,
		}
		Validate(&rule)
		rules = append(rules, rule)
	}

	return rules
}

// BuildOverride builds a rule from an explicit {cost-account: percentage}
// mapping supplied by a human. Amounts are recomputed against the employee's
// total paid cost, with excluded transaction types (tax, net pay) removed
// from the base.
func (b *Builder) BuildOverride(periodID int64, employeeCode string, paid []models.PaidFact, percentages map[string]decimal.Decimal) models.CostAllocationRule {
	total := decimal.Zero
	for _, pf := range paid {
		if pf.EmployeeCode != employeeCode || !b.snap.IncludeInCost(pf.TransactionType) {
			continue
		}
		total = total.Add(pf.Amount)
	}

	allocations := make(models.AllocationMap, len(percentages))
	for account, pct := range percentages {
		allocations[account] = models.Allocation{
			Percentage: pct,
			Amount:     total.Mul(pct).Div(hundred).Round(2),
			Source:     models.AllocationSourceOverride,
		}
	}

	rule := models.CostAllocationRule{
		PeriodID:     periodID,
		EmployeeCode: employeeCode,
		Allocations:  allocations,
		Source:       models.AllocationSourceOverride,
		TotalAmount:  total,
	}
	Validate(&rule)
	return rule
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
