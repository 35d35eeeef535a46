package finparse

import (
	"github.com/shopspring/decimal"
)

// RatioCategory groups derived ratios by what they measure.
type RatioCategory int

const (
	RatioProfitability RatioCategory = iota
	RatioLiquidity
	RatioSolvency
	RatioEfficiency
)

// String returns the group name.
func (c RatioCategory) String() string {
	switch c {
	case RatioProfitability:
		return "profitability"
	case RatioLiquidity:
		return "liquidity"
	case RatioSolvency:
		return "solvency"
	case RatioEfficiency:
		return "efficiency"
	default:
		return "unknown"
	}
}

// DerivedRatio is a value computed from extracted metrics, never
// extracted directly. Always re-derivable from its MetricSet.
type DerivedRatio struct {
	Name           string          `json:"name"`
	Value          decimal.Decimal `json:"value"`
	Category       RatioCategory   `json:"-"`
	Interpretation string          `json:"interpretation"`
	Health         string          `json:"health"`
}

// ratioPrecision is the fixed fractional-digit count for ratio
// division, applied before any final display rounding.
const ratioPrecision int32 = 4

var hundred = decimal.NewFromInt(100)

// classifier maps a computed ratio value to a qualitative band.
type classifier func(decimal.Decimal) (interpretation, health string)

// ratioDef declares one ratio: numerator and denominator categories, an
// optional percentage scale, and its classification bands.
type ratioDef struct {
	name        string
	category    RatioCategory
	numerator   MetricCategory
	denominator MetricCategory
	percent     bool
	classify    classifier
}

func marginBands(v decimal.Decimal) (string, string) {
	switch {
	case v.GreaterThan(decimal.NewFromInt(20)):
		return "high profitability", "strong"
	case v.GreaterThan(decimal.NewFromInt(10)):
		return "moderate profitability", "healthy"
	case v.IsPositive():
		return "thin margin", "watch"
	default:
		return "operating at a loss", "weak"
	}
}

func returnBands(v decimal.Decimal) (string, string) {
	switch {
	case v.GreaterThan(decimal.NewFromInt(15)):
		return "high return", "strong"
	case v.GreaterThan(decimal.NewFromInt(5)):
		return "adequate return", "healthy"
	case v.IsPositive():
		return "low return", "watch"
	default:
		return "negative return", "weak"
	}
}

func liquidityBands(v decimal.Decimal) (string, string) {
	switch {
	case v.GreaterThanOrEqual(decimal.NewFromInt(2)):
		return "ample liquidity", "strong"
	case v.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return "adequate liquidity", "healthy"
	default:
		return "current liabilities exceed coverage", "weak"
	}
}

func leverageBands(v decimal.Decimal) (string, string) {
	switch {
	case v.LessThan(decimal.NewFromInt(1)):
		return "conservative leverage", "strong"
	case v.LessThanOrEqual(decimal.NewFromInt(2)):
		return "moderate leverage", "healthy"
	default:
		return "high leverage", "watch"
	}
}

func coverageBands(v decimal.Decimal) (string, string) {
	switch {
	case v.GreaterThan(decimal.NewFromInt(5)):
		return "comfortable interest coverage", "strong"
	case v.GreaterThanOrEqual(decimal.NewFromFloat(1.5)):
		return "adequate interest coverage", "healthy"
	default:
		return "strained interest coverage", "weak"
	}
}

func turnoverBands(v decimal.Decimal) (string, string) {
	switch {
	case v.GreaterThan(decimal.NewFromInt(1)):
		return "efficient asset use", "strong"
	case v.GreaterThanOrEqual(decimal.NewFromFloat(0.5)):
		return "moderate asset use", "healthy"
	default:
		return "low asset turnover", "watch"
	}
}

// ratioDefs is the fixed ratio catalog, loaded once and shared
// read-only.
var ratioDefs = []ratioDef{
	{"Gross Margin", RatioProfitability, CategoryGrossProfit, CategoryRevenue, true, marginBands},
	{"Operating Margin", RatioProfitability, CategoryOperatingIncome, CategoryRevenue, true, marginBands},
	{"Net Margin", RatioProfitability, CategoryNetIncome, CategoryRevenue, true, marginBands},
	{"Return on Assets", RatioProfitability, CategoryNetIncome, CategoryTotalAssets, true, returnBands},
	{"Return on Equity", RatioProfitability, CategoryNetIncome, CategoryTotalEquity, true, returnBands},
	{"Current Ratio", RatioLiquidity, CategoryCurrentAssets, CategoryCurrentLiabilities, false, liquidityBands},
	{"Cash Ratio", RatioLiquidity, CategoryCashAndEquivalents, CategoryCurrentLiabilities, false, liquidityBands},
	{"Debt-to-Equity", RatioSolvency, CategoryTotalLiabilities, CategoryTotalEquity, false, leverageBands},
	{"Debt Ratio", RatioSolvency, CategoryTotalLiabilities, CategoryTotalAssets, false, leverageBands},
	{"Interest Coverage", RatioSolvency, CategoryOperatingIncome, CategoryInterestExpense, false, coverageBands},
	{"Asset Turnover", RatioEfficiency, CategoryRevenue, CategoryTotalAssets, false, turnoverBands},
}

// ComputeRatios derives the ratio catalog from a metric set, in exact
// decimal arithmetic. A ratio whose denominator is absent or zero is
// omitted from the output, never reported as zero or infinity.
func ComputeRatios(set *MetricSet) []DerivedRatio {
	var out []DerivedRatio
	if set == nil {
		return out
	}

	for _, def := range ratioDefs {
		num, okN := set.CategoryValue(def.numerator)
		den, okD := set.CategoryValue(def.denominator)
		if !okN || !okD || den.IsZero() {
			continue
		}

		if def.percent {
			num = num.Mul(hundred)
		}
		value := num.DivRound(den, ratioPrecision)

		interp, health := def.classify(value)
		out = append(out, DerivedRatio{
			Name:           def.name,
			Value:          value,
			Category:       def.category,
			Interpretation: interp,
			Health:         health,
		})
	}

	if quick, ok := quickRatio(set); ok {
		out = append(out, quick)
	}
	if fcf, ok := freeCashFlow(set); ok {
		out = append(out, fcf)
	}

	return out
}

// quickRatio is (current assets − inventory) / current liabilities.
// Inventory absent is treated as zero inventory; a missing denominator
// still omits the ratio.
func quickRatio(set *MetricSet) (DerivedRatio, bool) {
	current, okC := set.CategoryValue(CategoryCurrentAssets)
	liabilities, okL := set.CategoryValue(CategoryCurrentLiabilities)
	if !okC || !okL || liabilities.IsZero() {
		return DerivedRatio{}, false
	}

	inventory, _ := set.CategoryValue(CategoryInventory)
	value := current.Sub(inventory).DivRound(liabilities, ratioPrecision)

	interp, health := liquidityBands(value)
	return DerivedRatio{
		Name:           "Quick Ratio",
		Value:          value,
		Category:       RatioLiquidity,
		Interpretation: interp,
		Health:         health,
	}, true
}

// freeCashFlow is operating cash flow minus capital expenditures. Capex
// is a cash outflow whichever sign the document reported it with, so
// its magnitude is subtracted.
func freeCashFlow(set *MetricSet) (DerivedRatio, bool) {
	ocf, okO := set.CategoryValue(CategoryOperatingCashFlow)
	capex, okC := set.CategoryValue(CategoryCapitalExpenditures)
	if !okO || !okC {
		return DerivedRatio{}, false
	}

	value := ocf.Sub(capex.Abs())

	interp, health := "negative free cash flow", "weak"
	if value.IsPositive() {
		interp, health = "positive free cash flow", "strong"
	}
	return DerivedRatio{
		Name:           "Free Cash Flow",
		Value:          value,
		Category:       RatioEfficiency,
		Interpretation: interp,
		Health:         health,
	}, true
}

// MetricDelta is the year-over-year change of one metric between two
// parsed documents.
type MetricDelta struct {
	Name          string           `json:"name"`
	Current       decimal.Decimal  `json:"current"`
	Prior         decimal.Decimal  `json:"prior"`
	Change        decimal.Decimal  `json:"change"`
	PercentChange *decimal.Decimal `json:"percentChange,omitempty"` // nil when prior is zero
}

// ComputeDeltas compares two metric sets (current period vs. prior) for
// every category present in both. Percent change is omitted, not
// infinite, when the prior value is zero.
func ComputeDeltas(current, prior *MetricSet) []MetricDelta {
	var out []MetricDelta
	if current == nil || prior == nil {
		return out
	}

	for _, m := range current.Metrics() {
		p, ok := prior.Lookup(m.Name)
		if !ok {
			continue
		}

		delta := MetricDelta{
			Name:    m.Name,
			Current: m.Value,
			Prior:   p.Value,
			Change:  m.Value.Sub(p.Value),
		}
		if !p.Value.IsZero() {
			pct := delta.Change.Mul(hundred).DivRound(p.Value.Abs(), ratioPrecision)
			delta.PercentChange = &pct
		}
		out = append(out, delta)
	}

	return out
}
