package allocation

import (
	"testing"

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

func snapshotWithSplits(splits []models.SplitRule) *registry.Snapshot {
	return registry.NewSnapshot(nil, nil, splits, nil, nil, nil)
}

func TestExpandSplitsRedistributesVirtualAccount(t *testing.T) {
	snap := snapshotWithSplits([]models.SplitRule{
		{SourceAccount: "SPL-CHEF", TargetAccount: "458-50", Percentage: d("60")},
		{SourceAccount: "SPL-CHEF", TargetAccount: "470-60", Percentage: d("40")},
	})

	amounts := map[string]decimal.Decimal{
		"SPL-CHEF": d("1000.00"),
	}

	expanded, unresolved := ExpandSplits(amounts, snap)

	require.Empty(t, unresolved)
	require.Len(t, expanded, 2)
	assert.Equal(t, "600.00", expanded["458-50"].StringFixed(2))
	assert.Equal(t, "400.00", expanded["470-60"].StringFixed(2))
}

func TestExpandSplitsAccumulatesIntoExistingAccounts(t *testing.T) {
	snap := snapshotWithSplits([]models.SplitRule{
		{SourceAccount: "SPL-CHEF", TargetAccount: "458-50", Percentage: d("100")},
	})

	amounts := map[string]decimal.Decimal{
		"458-50":   d("250.00"),
		"SPL-CHEF": d("750.00"),
	}

	expanded, unresolved := ExpandSplits(amounts, snap)

	require.Empty(t, unresolved)
	require.Len(t, expanded, 1)
	assert.Equal(t, "1000.00", expanded["458-50"].StringFixed(2))
}

func TestExpandSplitsConservesTotal(t *testing.T) {
	snap := snapshotWithSplits([]models.SplitRule{
		{SourceAccount: "SPL-KITCHEN", TargetAccount: "458-50", Percentage: d("33.33")},
		{SourceAccount: "SPL-KITCHEN", TargetAccount: "470-60", Percentage: d("33.33")},
		{SourceAccount: "SPL-KITCHEN", TargetAccount: "458-10", Percentage: d("33.34")},
	})

	amounts := map[string]decimal.Decimal{
		"SPL-KITCHEN": d("999.99"),
		"458-50":      d("123.45"),
	}

	total := decimal.Zero
	for _, v := range amounts {
		total = total.Add(v)
	}

	expanded, unresolved := ExpandSplits(amounts, snap)
	require.Empty(t, unresolved)

	expandedTotal := decimal.Zero
	for _, v := range expanded {
		expandedTotal = expandedTotal.Add(v)
	}
	assert.True(t, total.Equal(expandedTotal), "expected %s, got %s", total, expandedTotal)
}

func TestExpandSplitsKeepsUnresolvedVirtualAccounts(t *testing.T) {
	snap := snapshotWithSplits(nil)

	amounts := map[string]decimal.Decimal{
		"SPL-GHOST": d("500.00"),
		"458-50":    d("100.00"),
	}

	expanded, unresolved := ExpandSplits(amounts, snap)

	require.Equal(t, []string{"SPL-GHOST"}, unresolved)
	assert.Equal(t, "500.00", expanded["SPL-GHOST"].StringFixed(2))
	assert.Equal(t, "100.00", expanded["458-50"].StringFixed(2))
}

func TestExpandSplitsIsIdempotent(t *testing.T) {
	snap := snapshotWithSplits([]models.SplitRule{
		{SourceAccount: "SPL-CHEF", TargetAccount: "458-50", Percentage: d("60")},
		{SourceAccount: "SPL-CHEF", TargetAccount: "470-60", Percentage: d("40")},
	})

	amounts := map[string]decimal.Decimal{
		"SPL-CHEF": d("1000.00"),
		"100-10":   d("80.00"),
	}

	once, _ := ExpandSplits(amounts, snap)
	twice, unresolved := ExpandSplits(once, snap)

	require.Empty(t, unresolved)
	require.Equal(t, len(once), len(twice))
	for account, amount := range once {
		assert.True(t, amount.Equal(twice[account]), "account %s changed on re-expansion", account)
	}
}
