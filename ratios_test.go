package finparse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFrom(metrics ...ExtractedMetric) *MetricSet {
	return MergeFacts(nil, metrics)
}

func ratioByName(ratios []DerivedRatio, name string) (DerivedRatio, bool) {
	for _, r := range ratios {
		if r.Name == name {
			return r, true
		}
	}
	return DerivedRatio{}, false
}

func TestNetMarginExact(t *testing.T) {
	set := setFrom(
		metric("Revenue", CategoryRevenue, 1000, "pattern:total revenue"),
		metric("Net Income", CategoryNetIncome, 200, "pattern:net income"),
	)

	ratios := ComputeRatios(set)

	margin, ok := ratioByName(ratios, "Net Margin")
	require.True(t, ok)
	// 200/1000 in exact decimal is 20 percent, not 19.999...
	assert.True(t, margin.Value.Equal(decimal.NewFromInt(20)), "got %s", margin.Value)
	assert.Equal(t, "moderate profitability", margin.Interpretation)
	assert.Equal(t, "healthy", margin.Health)
}

func TestRatioOmittedWithoutDenominator(t *testing.T) {
	set := setFrom(
		metric("Net Income", CategoryNetIncome, 200, "pattern:net income"),
		metric("Total Assets", CategoryTotalAssets, 5000, "pattern:total assets"),
	)

	ratios := ComputeRatios(set)

	_, ok := ratioByName(ratios, "Return on Equity")
	assert.False(t, ok, "ROE must be omitted without total equity")

	roa, ok := ratioByName(ratios, "Return on Assets")
	require.True(t, ok)
	assert.True(t, roa.Value.Equal(decimal.NewFromInt(4)))
}

func TestRatioOmittedOnZeroDenominator(t *testing.T) {
	set := setFrom(
		metric("Net Income", CategoryNetIncome, 200, "pattern:net income"),
		metric("Total Equity", CategoryTotalEquity, 0, "pattern:total equity"),
	)

	ratios := ComputeRatios(set)

	_, ok := ratioByName(ratios, "Return on Equity")
	assert.False(t, ok, "division by zero must omit the ratio, not report infinity")
}

func TestQuickRatio(t *testing.T) {
	set := setFrom(
		metric("Current Assets", CategoryCurrentAssets, 900, "pattern:total current assets"),
		metric("Inventory", CategoryInventory, 300, "pattern:inventory"),
		metric("Current Liabilities", CategoryCurrentLiabilities, 400, "pattern:total current liabilities"),
	)

	ratios := ComputeRatios(set)

	quick, ok := ratioByName(ratios, "Quick Ratio")
	require.True(t, ok)
	// (900 - 300) / 400
	assert.True(t, quick.Value.Equal(decimal.NewFromFloat(1.5)), "got %s", quick.Value)
	assert.Equal(t, "adequate liquidity", quick.Interpretation)
}

func TestQuickRatioWithoutInventory(t *testing.T) {
	set := setFrom(
		metric("Current Assets", CategoryCurrentAssets, 800, "pattern:total current assets"),
		metric("Current Liabilities", CategoryCurrentLiabilities, 400, "pattern:total current liabilities"),
	)

	quick, ok := ratioByName(ComputeRatios(set), "Quick Ratio")
	require.True(t, ok)
	assert.True(t, quick.Value.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "strong", quick.Health)
}

func TestFreeCashFlowSubtractsCapexMagnitude(t *testing.T) {
	// Capex reported as a negative cash-flow line still reduces FCF.
	set := setFrom(
		metric("Operating Cash Flow", CategoryOperatingCashFlow, 500, "pattern:operating cash flow"),
		metric("Capital Expenditures", CategoryCapitalExpenditures, -120, "pattern:capital expenditures"),
	)

	fcf, ok := ratioByName(ComputeRatios(set), "Free Cash Flow")
	require.True(t, ok)
	assert.True(t, fcf.Value.Equal(decimal.NewFromInt(380)), "got %s", fcf.Value)
	assert.Equal(t, "strong", fcf.Health)
}

func TestRatioPrecision(t *testing.T) {
	set := setFrom(
		metric("Total Liabilities", CategoryTotalLiabilities, 1, "pattern:total liabilities"),
		metric("Total Equity", CategoryTotalEquity, 3, "pattern:total equity"),
	)

	de, ok := ratioByName(ComputeRatios(set), "Debt-to-Equity")
	require.True(t, ok)
	assert.Equal(t, "0.3333", de.Value.String())
	assert.Equal(t, "strong", de.Health)
}

func TestComputeDeltas(t *testing.T) {
	current := setFrom(
		metric("Revenue", CategoryRevenue, 1100, "pattern:total revenue"),
		metric("Net Income", CategoryNetIncome, 50, "pattern:net income"),
		metric("Inventory", CategoryInventory, 10, "pattern:inventory"),
	)
	prior := setFrom(
		metric("Revenue", CategoryRevenue, 1000, "pattern:total revenue"),
		metric("Net Income", CategoryNetIncome, 0, "pattern:net income"),
	)

	deltas := ComputeDeltas(current, prior)

	// Inventory is absent from the prior set, so it is skipped.
	require.Len(t, deltas, 2)

	rev := deltas[0]
	assert.Equal(t, "Revenue", rev.Name)
	assert.True(t, rev.Change.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, rev.PercentChange)
	assert.True(t, rev.PercentChange.Equal(decimal.NewFromInt(10)), "got %s", rev.PercentChange)

	ni := deltas[1]
	assert.Equal(t, "Net Income", ni.Name)
	assert.True(t, ni.Change.Equal(decimal.NewFromInt(50)))
	assert.Nil(t, ni.PercentChange, "percent change undefined against a zero prior")
}

func TestComputeRatiosNilSet(t *testing.T) {
	assert.Empty(t, ComputeRatios(nil))
	assert.Empty(t, ComputeDeltas(nil, nil))
}
