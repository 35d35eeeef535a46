package finparse

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableDoc(rows []string, scale UnitScale, hasHint, mentions bool) *NormalizedDocument {
	table := LinearizedTable{
		Index:        1,
		Rows:         rows,
		HeaderScale:  scale,
		HasScaleHint: hasHint,
		MentionsUnit: mentions,
	}
	return &NormalizedDocument{
		Tables:             []LinearizedTable{table},
		TableCount:         1,
		HasFinancialTables: true,
		Text:               strings.Join(rows, "\n"),
	}
}

func TestHeuristicTableScenario(t *testing.T) {
	// "Total Revenue | $1,000 | $900" in a linearized financial table
	// with dollar units yields one revenue metric of exactly 1000.
	doc := tableDoc([]string{"Total Revenue | $1,000 | $900"}, ScaleOnes, false, false)

	res := ExtractHeuristicMetrics(doc)

	require.Len(t, res.Metrics, 1)
	m := res.Metrics[0]
	assert.Equal(t, CategoryRevenue, m.Category)
	assert.True(t, m.Value.Equal(decimal.NewFromInt(1000)), "value = %s", m.Value)
	assert.True(t, strings.HasPrefix(m.SourcePath, "pattern:"), "sourcePath = %s", m.SourcePath)
}

func TestHeuristicHeaderScale(t *testing.T) {
	doc := tableDoc([]string{"Net income | 210 | 180"}, ScaleMillions, true, true)

	res := ExtractHeuristicMetrics(doc)

	require.Len(t, res.Metrics, 1)
	m := res.Metrics[0]
	assert.Equal(t, CategoryNetIncome, m.Category)
	assert.True(t, m.Value.Equal(decimal.NewFromInt(210000000)),
		"value = %s, want fully scaled 210000000", m.Value)
	assert.Equal(t, ScaleMillions, m.ScaleUsed)
}

func TestHeuristicTokenSuffixBeatsHeader(t *testing.T) {
	// An explicit suffix on the token itself outranks the caption hint
	doc := tableDoc([]string{"Total revenue was $1.5 billion this year"}, ScaleMillions, true, true)

	res := ExtractHeuristicMetrics(doc)

	require.Len(t, res.Metrics, 1)
	assert.True(t, res.Metrics[0].Value.Equal(decimal.NewFromInt(1500000000)),
		"value = %s", res.Metrics[0].Value)
	assert.Equal(t, ScaleBillions, res.Metrics[0].ScaleUsed)
}

func TestHeuristicAmbiguousUnitFlagged(t *testing.T) {
	// Caption mentioned units we could not read: metric still emitted,
	// at reduced confidence, with an ambiguous-unit warning.
	doc := tableDoc([]string{"Total revenue | 1,000"}, ScaleOnes, false, true)

	res := ExtractHeuristicMetrics(doc)

	require.Len(t, res.Metrics, 1)
	m := res.Metrics[0]
	assert.True(t, m.Confidence.LessThan(decimal.NewFromFloat(0.8)))
	assert.NotEmpty(t, m.ContextNote)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnAmbiguousUnit, res.Warnings[0].Kind)
}

func TestHeuristicNoNumericTokenDiscarded(t *testing.T) {
	doc := tableDoc([]string{"Total revenue | see accompanying notes | —"}, ScaleOnes, false, false)

	res := ExtractHeuristicMetrics(doc)
	assert.Empty(t, res.Metrics, "label match without a numeric token must not emit a metric")
}

func TestHeuristicSpecificRuleClaimsLine(t *testing.T) {
	doc := tableDoc([]string{
		"Total Revenue | 1,000",
		"Total current assets | 400",
		"Total assets | 900",
	}, ScaleOnes, false, false)

	res := ExtractHeuristicMetrics(doc)

	categories := make(map[MetricCategory]decimal.Decimal)
	for _, m := range res.Metrics {
		categories[m.Category] = m.Value
	}

	require.Contains(t, categories, CategoryCurrentAssets)
	require.Contains(t, categories, CategoryTotalAssets)
	assert.True(t, categories[CategoryCurrentAssets].Equal(decimal.NewFromInt(400)))
	assert.True(t, categories[CategoryTotalAssets].Equal(decimal.NewFromInt(900)))
}

func TestHeuristicBalanceCheckLineExcluded(t *testing.T) {
	doc := tableDoc([]string{
		"Total liabilities and stockholders' equity | 5,000",
	}, ScaleOnes, false, false)

	res := ExtractHeuristicMetrics(doc)
	for _, m := range res.Metrics {
		assert.NotEqual(t, CategoryTotalLiabilities, m.Category,
			"balance check line must not extract as total liabilities")
	}
}

func TestHeuristicEPSNotNetIncome(t *testing.T) {
	doc := tableDoc([]string{
		"Net income per share, basic | $2.50",
	}, ScaleMillions, true, true)

	res := ExtractHeuristicMetrics(doc)

	require.Len(t, res.Metrics, 1)
	m := res.Metrics[0]
	assert.Equal(t, CategoryEPSBasic, m.Category)
	// Per-share amounts never take the table's magnitude caption
	assert.True(t, m.Value.Equal(decimal.RequireFromString("2.50")), "value = %s", m.Value)
}

func TestHeuristicPercentageIsNotAValue(t *testing.T) {
	// Growth-rate prose must not masquerade as a revenue figure
	doc := &NormalizedDocument{
		Prose: "Revenue grew 12% year over year",
	}
	doc.Text = doc.Prose

	res := ExtractHeuristicMetrics(doc)
	assert.Empty(t, res.Metrics)
}

func TestHeuristicSegments(t *testing.T) {
	doc := tableDoc([]string{
		"Total revenue | 1,000",
		"Cloud segment | 600",
		"Devices segment | 400",
	}, ScaleOnes, false, false)

	res := ExtractHeuristicMetrics(doc)

	require.Len(t, res.Segments, 2)
	assert.Equal(t, "Cloud", res.Segments[0].Name)
	assert.True(t, res.Segments[0].Value.Equal(decimal.NewFromInt(600)))
	require.NotNil(t, res.Segments[0].PercentOfRevenue)
	assert.True(t, res.Segments[0].PercentOfRevenue.Equal(decimal.NewFromInt(60)),
		"percent = %s, want 60", res.Segments[0].PercentOfRevenue)
}

func TestHeuristicDiscussionNotes(t *testing.T) {
	doc := &NormalizedDocument{
		Prose: "Revenue growth was driven by subscription demand. The board met in June. We expect continued headwinds in the coming fiscal year.",
	}
	doc.Text = doc.Prose

	res := ExtractHeuristicMetrics(doc)

	require.NotEmpty(t, res.Notes)
	joined := strings.Join(res.Notes, " ")
	assert.Contains(t, joined, "driven by")
	assert.NotContains(t, joined, "board met")
}
