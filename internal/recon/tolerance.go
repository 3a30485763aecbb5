package recon

import (
	"github.com/shopspring/decimal"

	"payroll-recon/internal/config"
)

// Tolerances holds every threshold the engine classifies against. The
// per-employee cost check passes on EITHER the absolute or the relative
// tolerance; the aggregate cost-center check only flags when BOTH thresholds
// are exceeded. The asymmetry is deliberate: per-employee noise is
// absolute-dominated at low cost, aggregate noise should require both signals.
type Tolerances struct {
	Hours           decimal.Decimal
	CostAbs         decimal.Decimal
	CostPct         decimal.Decimal
	CriticalHours   decimal.Decimal
	CriticalCostPct decimal.Decimal
	AggregateAbs    decimal.Decimal
	AggregatePct    decimal.Decimal
}

func TolerancesFromConfig(cfg config.ReconciliationConfig) Tolerances {
	return Tolerances{
		Hours:           cfg.HoursTolerance,
		CostAbs:         cfg.CostToleranceAbs,
		CostPct:         cfg.CostTolerancePct,
		CriticalHours:   cfg.CriticalHours,
		CriticalCostPct: cfg.CriticalCostPct,
		AggregateAbs:    cfg.AggregateToleranceAbs,
		AggregatePct:    cfg.AggregateTolerancePct,
	}
}

// DefaultTolerances returns the production thresholds: 1 hour, $10 or 1% per
// employee (critical past 8 hours / 5%), $10 and 1% per cost center.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Hours:           decimal.NewFromInt(1),
		CostAbs:         decimal.NewFromInt(10),
		CostPct:         decimal.NewFromInt(1),
		CriticalHours:   decimal.NewFromInt(8),
		CriticalCostPct: decimal.NewFromInt(5),
		AggregateAbs:    decimal.NewFromInt(10),
		AggregatePct:    decimal.NewFromInt(1),
	}
}

// hoursMatch applies the absolute hours tolerance. Absolute rather than
// relative so small-hour periods are not flagged on marginal rounding.
func (t Tolerances) hoursMatch(variance decimal.Decimal) bool {
	return variance.LessThanOrEqual(t.Hours)
}

// costMatch passes on either absolute or relative grounds, never requiring both.
func (t Tolerances) costMatch(variance, variancePct decimal.Decimal) bool {
	return variance.LessThanOrEqual(t.CostAbs) || variancePct.LessThanOrEqual(t.CostPct)
}

// aggregateFlagged requires both thresholds exceeded before flagging.
func (t Tolerances) aggregateFlagged(variance, variancePct decimal.Decimal) bool {
	return variance.GreaterThan(t.AggregateAbs) && variancePct.GreaterThan(t.AggregatePct)
}
