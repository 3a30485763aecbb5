package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationMapRoundTrip(t *testing.T) {
	original := AllocationMap{
		"458-50": {Percentage: decimal.RequireFromString("60.5"), Amount: decimal.RequireFromString("1210.00"), Source: AllocationSourceDerived},
		"470-60": {Percentage: decimal.RequireFromString("39.5"), Amount: decimal.RequireFromString("790.00"), Source: AllocationSourceDerived},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var restored AllocationMap
	require.NoError(t, restored.Scan(value))

	require.Len(t, restored, 2)
	for account, alloc := range original {
		got := restored[account]
		assert.True(t, alloc.Percentage.Equal(got.Percentage), "percentage for %s", account)
		assert.True(t, alloc.Amount.Equal(got.Amount), "amount for %s", account)
		assert.Equal(t, alloc.Source, got.Source)
	}
}

func TestAllocationMapNilValueAndScan(t *testing.T) {
	var m AllocationMap
	value, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), value)

	var scanned AllocationMap
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestStringListRoundTrip(t *testing.T) {
	original := StringList{"first error", "second error"}

	value, err := original.Value()
	require.NoError(t, err)

	var restored StringList
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, original, restored)

	var fromString StringList
	require.NoError(t, fromString.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, fromString)
}

func TestStringListNilValue(t *testing.T) {
	var l StringList
	value, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), value)
}
