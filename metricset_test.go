package finparse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFlattensKeyMetrics(t *testing.T) {
	set := setFrom(
		metric("Revenue", CategoryRevenue, 1000, "pattern:total revenue"),
		metric("Net Income", CategoryNetIncome, 200, "pattern:net income"),
		metric("Total Assets", CategoryTotalAssets, 5000, "pattern:total assets"),
		metric("Total Liabilities", CategoryTotalLiabilities, 3000, "pattern:total liabilities"),
		metric("Total Equity", CategoryTotalEquity, 2000, "pattern:total equity"),
	)

	snap := set.Snapshot()

	require.NotNil(t, snap.Revenue)
	assert.True(t, snap.Revenue.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, snap.TotalEquity)
	assert.True(t, snap.TotalEquity.Equal(decimal.NewFromInt(2000)))

	assert.Nil(t, snap.GrossProfit)
	assert.Nil(t, snap.EPSBasic)
	assert.Empty(t, snap.MissingRequiredFields)
}

func TestSnapshotMissingRequiredFieldsSorted(t *testing.T) {
	set := setFrom(
		metric("Revenue", CategoryRevenue, 1000, "pattern:total revenue"),
	)

	snap := set.Snapshot()

	assert.Equal(t, []string{
		"net-income",
		"total-assets",
		"total-equity",
		"total-liabilities",
	}, snap.MissingRequiredFields)
}

func TestSnapshotZeroIsNotMissing(t *testing.T) {
	// A reported zero is a real value, distinct from an absent metric.
	set := setFrom(
		metric("Net Income", CategoryNetIncome, 0, "pattern:net income"),
	)

	snap := set.Snapshot()

	require.NotNil(t, snap.NetIncome)
	assert.True(t, snap.NetIncome.IsZero())
	assert.NotContains(t, snap.MissingRequiredFields, "net-income")
}

func TestCategoryFirstInDocumentOrder(t *testing.T) {
	set := setFrom(
		metric("Revenue", CategoryRevenue, 1000, "pattern:total revenue"),
		metric("Product Revenue", CategoryRevenue, 700, "pattern:revenue"),
	)

	m, ok := set.Category(CategoryRevenue)
	require.True(t, ok)
	assert.Equal(t, "Revenue", m.Name)

	all := set.ByCategory(CategoryRevenue)
	require.Len(t, all, 2)
	assert.Equal(t, "Product Revenue", all[1].Name)
}

func TestPlausibilityWarnings(t *testing.T) {
	t.Run("current assets exceed total assets", func(t *testing.T) {
		set := setFrom(
			metric("Total Assets", CategoryTotalAssets, 1000, "pattern:total assets"),
			metric("Current Assets", CategoryCurrentAssets, 1500, "pattern:total current assets"),
		)

		warnings := set.PlausibilityWarnings()
		require.Len(t, warnings, 1)
		assert.Equal(t, WarnPlausibility, warnings[0].Kind)
		assert.Contains(t, warnings[0].Message, "current assets")
	})

	t.Run("gross profit exceeds revenue", func(t *testing.T) {
		set := setFrom(
			metric("Revenue", CategoryRevenue, 1000, "pattern:total revenue"),
			metric("Gross Profit", CategoryGrossProfit, 1200, "pattern:gross profit"),
		)

		warnings := set.PlausibilityWarnings()
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0].Message, "gross profit")
	})

	t.Run("consistent set is quiet", func(t *testing.T) {
		set := setFrom(
			metric("Revenue", CategoryRevenue, 1000, "pattern:total revenue"),
			metric("Gross Profit", CategoryGrossProfit, 400, "pattern:gross profit"),
			metric("Total Assets", CategoryTotalAssets, 5000, "pattern:total assets"),
			metric("Current Assets", CategoryCurrentAssets, 2000, "pattern:total current assets"),
		)

		assert.Empty(t, set.PlausibilityWarnings())
	})
}

func TestWarningKindNames(t *testing.T) {
	assert.Equal(t, "parse-error", WarnParse.String())
	assert.Equal(t, "ambiguous-unit", WarnAmbiguousUnit.String())
	assert.Equal(t, "plausibility", WarnPlausibility.String())
}
