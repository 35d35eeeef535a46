package finparse

// MetricCategory is the closed set of line-item kinds the extractors
// recognize. Extending it is a versioned change, not an ad hoc one.
type MetricCategory int

const (
	CategoryOther MetricCategory = iota
	CategoryRevenue
	CategoryCostOfRevenue
	CategoryGrossProfit
	CategoryOperatingIncome
	CategoryNetIncome
	CategoryTotalAssets
	CategoryCurrentAssets
	CategoryCashAndEquivalents
	CategoryTotalLiabilities
	CategoryCurrentLiabilities
	CategoryTotalEquity
	CategoryOperatingCashFlow
	CategoryCapitalExpenditures
	CategoryFreeCashFlow
	CategoryEPSBasic
	CategoryEPSDiluted
	CategorySharesOutstanding
	CategoryInterestExpense
	CategoryInventory
)

var categoryNames = map[MetricCategory]string{
	CategoryOther:               "other",
	CategoryRevenue:             "revenue",
	CategoryCostOfRevenue:       "cost-of-revenue",
	CategoryGrossProfit:         "gross-profit",
	CategoryOperatingIncome:     "operating-income",
	CategoryNetIncome:           "net-income",
	CategoryTotalAssets:         "total-assets",
	CategoryCurrentAssets:       "current-assets",
	CategoryCashAndEquivalents:  "cash-and-equivalents",
	CategoryTotalLiabilities:    "total-liabilities",
	CategoryCurrentLiabilities:  "current-liabilities",
	CategoryTotalEquity:         "total-equity",
	CategoryOperatingCashFlow:   "operating-cash-flow",
	CategoryCapitalExpenditures: "capital-expenditures",
	CategoryFreeCashFlow:        "free-cash-flow",
	CategoryEPSBasic:            "eps-basic",
	CategoryEPSDiluted:          "eps-diluted",
	CategorySharesOutstanding:   "shares-outstanding",
	CategoryInterestExpense:     "interest-expense",
	CategoryInventory:           "inventory",
}

// String returns the canonical kebab-case name for the category.
func (c MetricCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "other"
}

// categoryByName is the reverse lookup used when loading the embedded
// concept mapping.
var categoryByName = func() map[string]MetricCategory {
	m := make(map[string]MetricCategory, len(categoryNames))
	for cat, name := range categoryNames {
		m[name] = cat
	}
	return m
}()
