package finparse

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ByCategory returns all winning metrics of a category, in insertion
// (document) order.
func (s *MetricSet) ByCategory(cat MetricCategory) []ExtractedMetric {
	var out []ExtractedMetric
	for _, key := range s.order {
		if m := s.winners[key]; m.Category == cat {
			out = append(out, m)
		}
	}
	return out
}

// Category returns the first winning metric of a category in document
// order. Document order correlates with statement-of-record placement,
// so the primary figure precedes footnote repeats.
func (s *MetricSet) Category(cat MetricCategory) (ExtractedMetric, bool) {
	for _, key := range s.order {
		if m := s.winners[key]; m.Category == cat {
			return m, true
		}
	}
	return ExtractedMetric{}, false
}

// CategoryValue returns the value of the first metric in a category.
func (s *MetricSet) CategoryValue(cat MetricCategory) (decimal.Decimal, bool) {
	m, ok := s.Category(cat)
	if !ok {
		return decimal.Zero, false
	}
	return m.Value, true
}

// Snapshot is a flattened view of the key metrics in a MetricSet.
// Pointer fields are nil when the document did not yield the metric;
// zero is a legitimate reported value and is never used as a sentinel.
type Snapshot struct {
	Revenue             *decimal.Decimal `json:"revenue,omitempty"`
	CostOfRevenue       *decimal.Decimal `json:"costOfRevenue,omitempty"`
	GrossProfit         *decimal.Decimal `json:"grossProfit,omitempty"`
	OperatingIncome     *decimal.Decimal `json:"operatingIncome,omitempty"`
	NetIncome           *decimal.Decimal `json:"netIncome,omitempty"`
	TotalAssets         *decimal.Decimal `json:"totalAssets,omitempty"`
	CurrentAssets       *decimal.Decimal `json:"currentAssets,omitempty"`
	Cash                *decimal.Decimal `json:"cash,omitempty"`
	Inventory           *decimal.Decimal `json:"inventory,omitempty"`
	TotalLiabilities    *decimal.Decimal `json:"totalLiabilities,omitempty"`
	CurrentLiabilities  *decimal.Decimal `json:"currentLiabilities,omitempty"`
	TotalEquity         *decimal.Decimal `json:"totalEquity,omitempty"`
	OperatingCashFlow   *decimal.Decimal `json:"operatingCashFlow,omitempty"`
	CapitalExpenditures *decimal.Decimal `json:"capitalExpenditures,omitempty"`
	EPSBasic            *decimal.Decimal `json:"epsBasic,omitempty"`
	EPSDiluted          *decimal.Decimal `json:"epsDiluted,omitempty"`
	SharesOutstanding   *decimal.Decimal `json:"sharesOutstanding,omitempty"`

	// MissingRequiredFields lists core statement items absent from the
	// document, sorted for stable output.
	MissingRequiredFields []string `json:"missingRequiredFields,omitempty"`
}

// Snapshot flattens the metric set into the fixed snapshot layout and
// reports which core fields are missing.
func (s *MetricSet) Snapshot() *Snapshot {
	snap := &Snapshot{}

	get := func(cat MetricCategory) *decimal.Decimal {
		if v, ok := s.CategoryValue(cat); ok {
			return &v
		}
		return nil
	}

	snap.Revenue = get(CategoryRevenue)
	snap.CostOfRevenue = get(CategoryCostOfRevenue)
	snap.GrossProfit = get(CategoryGrossProfit)
	snap.OperatingIncome = get(CategoryOperatingIncome)
	snap.NetIncome = get(CategoryNetIncome)
	snap.TotalAssets = get(CategoryTotalAssets)
	snap.CurrentAssets = get(CategoryCurrentAssets)
	snap.Cash = get(CategoryCashAndEquivalents)
	snap.Inventory = get(CategoryInventory)
	snap.TotalLiabilities = get(CategoryTotalLiabilities)
	snap.CurrentLiabilities = get(CategoryCurrentLiabilities)
	snap.TotalEquity = get(CategoryTotalEquity)
	snap.OperatingCashFlow = get(CategoryOperatingCashFlow)
	snap.CapitalExpenditures = get(CategoryCapitalExpenditures)
	snap.EPSBasic = get(CategoryEPSBasic)
	snap.EPSDiluted = get(CategoryEPSDiluted)
	snap.SharesOutstanding = get(CategorySharesOutstanding)

	required := map[string]*decimal.Decimal{
		"revenue":           snap.Revenue,
		"net-income":        snap.NetIncome,
		"total-assets":      snap.TotalAssets,
		"total-liabilities": snap.TotalLiabilities,
		"total-equity":      snap.TotalEquity,
	}
	for name, v := range required {
		if v == nil {
			snap.MissingRequiredFields = append(snap.MissingRequiredFields, name)
		}
	}
	sort.Strings(snap.MissingRequiredFields)

	return snap
}

// PlausibilityWarnings runs basic cross-metric sanity checks. These are
// advisory only: a failed check produces a warning, never an error, and
// no metric is discarded.
func (s *MetricSet) PlausibilityWarnings() []Warning {
	var warnings []Warning

	total, hasTotal := s.CategoryValue(CategoryTotalAssets)
	current, hasCurrent := s.CategoryValue(CategoryCurrentAssets)
	if hasTotal && hasCurrent && current.GreaterThan(total) {
		warnings = append(warnings, Warning{
			Kind:    WarnPlausibility,
			Message: "current assets exceed total assets",
		})
	}

	revenue, hasRevenue := s.CategoryValue(CategoryRevenue)
	gross, hasGross := s.CategoryValue(CategoryGrossProfit)
	if hasRevenue && hasGross && revenue.IsPositive() && gross.GreaterThan(revenue) {
		warnings = append(warnings, Warning{
			Kind:    WarnPlausibility,
			Message: "gross profit exceeds revenue",
		})
	}

	return warnings
}
