package finparse

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed concept_mappings.json
var conceptMappingsJSON []byte

// ConceptMapping is the structure of concept_mappings.json.
type ConceptMapping struct {
	Schema      string                       `json:"$schema"`
	Description string                       `json:"description"`
	Version     string                       `json:"version"`
	Mappings    map[string]ConceptDefinition `json:"mappings"`
}

// ConceptDefinition lists the filing concept identifiers that resolve
// to one canonical metric category.
type ConceptDefinition struct {
	Concepts []string `json:"concepts"`
	Notes    string   `json:"notes"`
}

// conceptMapper provides lookup between concept identifiers and metric
// categories. Immutable after load; shared read-only across pipeline
// invocations.
type conceptMapper struct {
	mappings      map[string]ConceptDefinition
	reverseLookup map[string]MetricCategory // concept id -> category
}

var globalMapper *conceptMapper

func init() {
	var err error
	globalMapper, err = loadConceptMappings()
	if err != nil {
		panic(fmt.Sprintf("Failed to load concept mappings: %v", err))
	}
}

// loadConceptMappings parses the embedded JSON and builds lookup tables
func loadConceptMappings() (*conceptMapper, error) {
	var mapping ConceptMapping
	if err := json.Unmarshal(conceptMappingsJSON, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse concept_mappings.json: %w", err)
	}

	mapper := &conceptMapper{
		mappings:      mapping.Mappings,
		reverseLookup: make(map[string]MetricCategory),
	}

	for name, def := range mapping.Mappings {
		cat, ok := categoryByName[name]
		if !ok {
			return nil, fmt.Errorf("concept_mappings.json references unknown category %q", name)
		}
		for _, concept := range def.Concepts {
			mapper.reverseLookup[concept] = cat
		}
	}

	return mapper, nil
}

// categoryForConcept resolves a concept identifier to its category.
// Tries an exact match first, then case-insensitive (filings vary in
// capitalization).
func (m *conceptMapper) categoryForConcept(concept string) (MetricCategory, bool) {
	if cat, ok := m.reverseLookup[concept]; ok {
		return cat, true
	}
	for known, cat := range m.reverseLookup {
		if strings.EqualFold(known, concept) {
			return cat, true
		}
	}
	return CategoryOther, false
}

// CategoryForConcept resolves a filing concept identifier (e.g.
// "us-gaap:Revenues") to its metric category. The mapping is closed:
// unmapped concepts report false and are skipped by the extractor
// rather than emitted as low-value noise.
func CategoryForConcept(concept string) (MetricCategory, bool) {
	return globalMapper.categoryForConcept(concept)
}

// ConceptsForCategory returns all concept identifiers that resolve to a
// category.
func ConceptsForCategory(cat MetricCategory) ([]string, error) {
	def, ok := globalMapper.mappings[cat.String()]
	if !ok {
		return nil, fmt.Errorf("no concepts mapped for category: %s", cat)
	}
	return def.Concepts, nil
}

// HasConceptMapping reports whether the concept identifier is in the
// closed mapping.
func HasConceptMapping(concept string) bool {
	_, ok := globalMapper.categoryForConcept(concept)
	return ok
}

// displayNames gives each category the label under which its metrics
// are keyed. Both extractors emit these, so a line item found by both
// paths collides on the same normalized name and the precedence policy
// applies.
var displayNames = map[MetricCategory]string{
	CategoryRevenue:             "Revenue",
	CategoryCostOfRevenue:       "Cost of Revenue",
	CategoryGrossProfit:         "Gross Profit",
	CategoryOperatingIncome:     "Operating Income",
	CategoryNetIncome:           "Net Income",
	CategoryTotalAssets:         "Total Assets",
	CategoryCurrentAssets:       "Current Assets",
	CategoryCashAndEquivalents:  "Cash and Equivalents",
	CategoryInventory:           "Inventory",
	CategoryTotalLiabilities:    "Total Liabilities",
	CategoryCurrentLiabilities:  "Current Liabilities",
	CategoryTotalEquity:         "Total Equity",
	CategoryOperatingCashFlow:   "Operating Cash Flow",
	CategoryCapitalExpenditures: "Capital Expenditures",
	CategoryFreeCashFlow:        "Free Cash Flow",
	CategoryEPSBasic:            "EPS (Basic)",
	CategoryEPSDiluted:          "EPS (Diluted)",
	CategorySharesOutstanding:   "Shares Outstanding",
	CategoryInterestExpense:     "Interest Expense",
}

// DisplayName returns the label under which a category's metrics are
// keyed in a MetricSet.
func DisplayName(cat MetricCategory) string {
	if name, ok := displayNames[cat]; ok {
		return name
	}
	return "Other"
}
