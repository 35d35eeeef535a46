package finparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// labelRule maps a line-item label pattern to a metric category.
// Rules are ordered most-specific first; a line claimed by an earlier
// rule is not re-matched for the same category by a later one.
type labelRule struct {
	label       string
	re          *regexp.Regexp
	excludeTail *regexp.Regexp // disqualifies a match by what follows it
	category    MetricCategory
	confidence  decimal.Decimal
	perShare    bool // table unit captions never apply to per-share amounts
}

func conf(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func rule(label, pattern string, cat MetricCategory, confidence float64) labelRule {
	return labelRule{
		label:      label,
		re:         regexp.MustCompile(`(?i)` + pattern),
		category:   cat,
		confidence: conf(confidence),
	}
}

// labelRules is the immutable heuristic rule table, loaded once and
// shared read-only by every pipeline invocation.
var labelRules = func() []labelRule {
	rules := []labelRule{
		rule("total revenue", `total (net )?revenues?\b`, CategoryRevenue, 0.80),
		rule("net revenue", `net revenues?\b`, CategoryRevenue, 0.75),
		rule("net sales", `net sales\b`, CategoryRevenue, 0.75),
		rule("revenue", `revenues?\b`, CategoryRevenue, 0.60),
		rule("cost of revenue", `cost of (revenues?|sales|goods sold)`, CategoryCostOfRevenue, 0.75),
		rule("gross profit", `gross profit\b`, CategoryGrossProfit, 0.80),
		rule("operating income", `(operating income|income from operations|operating profit)\b`, CategoryOperatingIncome, 0.75),
		rule("net income", `net (income|earnings|loss)\b`, CategoryNetIncome, 0.80),
		rule("total current assets", `total current assets\b`, CategoryCurrentAssets, 0.80),
		rule("total assets", `total assets\b`, CategoryTotalAssets, 0.80),
		rule("cash and equivalents", `cash and cash equivalents\b`, CategoryCashAndEquivalents, 0.80),
		rule("total current liabilities", `total current liabilities\b`, CategoryCurrentLiabilities, 0.80),
		rule("total liabilities", `total liabilities\b`, CategoryTotalLiabilities, 0.80),
		rule("total equity", `total (stockholders.?|shareholders.?)? ?equity\b`, CategoryTotalEquity, 0.80),
		rule("operating cash flow", `(net cash (provided by|used in|from) operating activities|cash flows? from operations)`, CategoryOperatingCashFlow, 0.80),
		rule("capital expenditures", `(capital expenditures|purchases? of property,? plant,? and equipment)`, CategoryCapitalExpenditures, 0.70),
		rule("free cash flow", `free cash flow\b`, CategoryFreeCashFlow, 0.70),
		rule("inventory", `inventor(y|ies)\b`, CategoryInventory, 0.60),
		rule("interest expense", `interest expense\b`, CategoryInterestExpense, 0.70),
	}

	eps := rule("eps diluted", `(diluted (net income|earnings|loss) per share|(net income|earnings|loss) per share.{0,20}diluted|per share, diluted)`, CategoryEPSDiluted, 0.70)
	eps.perShare = true
	rules = append(rules, eps)

	epsBasic := rule("eps basic", `(basic (net income|earnings|loss) per share|(net income|earnings|loss) per share.{0,20}basic|per share, basic)`, CategoryEPSBasic, 0.70)
	epsBasic.perShare = true
	rules = append(rules, epsBasic)

	shares := rule("shares outstanding", `(weighted.average )?shares outstanding\b`, CategorySharesOutstanding, 0.65)
	shares.perShare = true
	rules = append(rules, shares)

	for i := range rules {
		switch rules[i].category {
		case CategoryTotalLiabilities:
			// "Total liabilities and stockholders' equity" is a balance
			// check line, not total liabilities.
			rules[i].excludeTail = regexp.MustCompile(`(?i)^\s*and\b`)
		case CategoryNetIncome:
			// "Net income per share" is an EPS line.
			rules[i].excludeTail = regexp.MustCompile(`(?i)^\s*(\(loss\)\s*)?per\b`)
		}
	}

	return rules
}()

// SegmentRevenue records one entry of a segment, geographic, or
// product revenue breakdown.
type SegmentRevenue struct {
	Name             string           `json:"name"`
	Value            decimal.Decimal  `json:"value"`
	PercentOfRevenue *decimal.Decimal `json:"percentOfRevenue,omitempty"`
}

// HeuristicResult is the pattern extractor's output.
type HeuristicResult struct {
	Metrics  []ExtractedMetric
	Segments []SegmentRevenue
	Notes    []string // management-discussion sentences, qualitative only
	Warnings []Warning
}

// windowLimit bounds the rightward scan for a numeric token after a
// label match.
const windowLimit = 200

// ambiguousUnitPenalty reduces confidence when a table caption
// mentioned units that could not be read.
var ambiguousUnitPenalty = decimal.NewFromFloat(0.8)

// ExtractHeuristicMetrics scans the normalized text for known line-item
// labels with adjacent numeric tokens. Table rows are scanned first
// (with their caption's unit scale), then the flattened prose. A label
// match with no numeric token in its window is discarded, never emitted
// as a placeholder.
func ExtractHeuristicMetrics(doc *NormalizedDocument) *HeuristicResult {
	res := &HeuristicResult{}

	// (line text, table carrying it or nil), in document order
	type scanLine struct {
		text  string
		table *LinearizedTable
	}
	var lines []scanLine
	var texts []string
	for i := range doc.Tables {
		t := &doc.Tables[i]
		for _, row := range t.Rows {
			lines = append(lines, scanLine{text: row, table: t})
			texts = append(texts, row)
		}
	}
	for _, line := range strings.Split(doc.Prose, "\n") {
		if line != "" {
			lines = append(lines, scanLine{text: line})
			texts = append(texts, line)
		}
	}

	// A line claimed by a more specific rule is off-limits to later
	// rules of the same category, so "Total Revenue" is not re-counted
	// by the generic revenue rule.
	type claim struct {
		line int
		cat  MetricCategory
	}
	claimed := make(map[claim]bool)

	for _, r := range labelRules {
		for i, line := range lines {
			if claimed[claim{i, r.category}] {
				continue
			}
			loc := r.re.FindStringIndex(line.text)
			if loc == nil {
				continue
			}
			tail := line.text[loc[1]:]
			if r.excludeTail != nil && r.excludeTail.MatchString(tail) {
				continue
			}
			if len(tail) > windowLimit {
				tail = tail[:windowLimit]
			}

			tok := firstNumericToken(tail)
			if tok == nil {
				continue // no numeric token in the window: discard the match
			}

			metric, warning := buildHeuristicMetric(r, tok, line.table)
			if warning != nil {
				res.Warnings = append(res.Warnings, *warning)
			}
			if metric != nil {
				res.Metrics = append(res.Metrics, *metric)
				claimed[claim{i, r.category}] = true
			}
		}
	}

	totalRevenue := findTotalRevenue(res.Metrics)
	res.Segments = scanSegments(texts, totalRevenue)
	res.Notes = scanDiscussionNotes(doc.Prose)

	return res
}

// buildHeuristicMetric lifts a matched token to a metric, resolving the
// unit scale in priority order: token suffix, table caption hint, ×1.
func buildHeuristicMetric(r labelRule, tok *RawNumericToken, table *LinearizedTable) (*ExtractedMetric, *Warning) {
	value, err := tok.Decimal()
	if err != nil {
		return nil, &Warning{Kind: WarnParse, Message: err.Error()}
	}

	confidence := r.confidence
	scaleUsed := tok.Scale
	note := ""
	var warning *Warning

	if tok.Scale == ScaleOnes && table != nil && !r.perShare {
		switch {
		case table.HasScaleHint:
			value = applyScale(value, table.HeaderScale)
			scaleUsed = table.HeaderScale
		case table.MentionsUnit:
			// The caption stated units we could not read. Emit anyway,
			// flagged and at reduced confidence, never silently at ×1.
			confidence = confidence.Mul(ambiguousUnitPenalty)
			note = "unit caption present but unreadable; scale assumed x1"
			warning = &Warning{
				Kind:    WarnAmbiguousUnit,
				Message: fmt.Sprintf("table %d: %s", table.Index, note),
			}
		}
	}

	return &ExtractedMetric{
		Name:        DisplayName(r.category),
		Category:    r.category,
		Value:       value,
		ScaleUsed:   scaleUsed,
		SourcePath:  "pattern:" + r.label,
		Confidence:  confidence,
		ContextNote: note,
	}, warning
}

func findTotalRevenue(metrics []ExtractedMetric) *decimal.Decimal {
	for _, m := range metrics {
		if m.Category == CategoryRevenue {
			v := m.Value
			return &v
		}
	}
	return nil
}

var segmentLineRe = regexp.MustCompile(`(?i)^(.{2,48}?)\s+segment\b`)

// scanSegments detects segment/geographic revenue breakdown rows and,
// when a total revenue was already extracted, each segment's share of
// it (two fractional digits, round-half-up).
func scanSegments(lines []string, totalRevenue *decimal.Decimal) []SegmentRevenue {
	var segments []SegmentRevenue
	hundred := decimal.NewFromInt(100)

	for _, line := range lines {
		m := segmentLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		tok := firstNumericToken(line[len(m[0]):])
		if tok == nil {
			continue
		}
		value, err := tok.Decimal()
		if err != nil {
			continue
		}

		seg := SegmentRevenue{Name: strings.TrimSpace(m[1]), Value: value}
		if totalRevenue != nil && totalRevenue.IsPositive() {
			pct := value.Mul(hundred).DivRound(*totalRevenue, ratioPrecision).Round(2)
			seg.PercentOfRevenue = &pct
		}
		segments = append(segments, seg)
	}

	return segments
}

// discussionKeywords flag management-discussion sentences worth keeping
// as qualitative context.
var discussionKeywords = []string{
	"growth", "driven by", "outlook", "we expect", "decline", "demand",
	"guidance", "headwind", "tailwind",
}

const maxDiscussionNotes = 10

// scanDiscussionNotes captures management-discussion sentences matching
// the keyword list. These are context only and never become metrics.
func scanDiscussionNotes(prose string) []string {
	var notes []string
	for _, sentence := range strings.Split(prose, ". ") {
		lower := strings.ToLower(sentence)
		for _, kw := range discussionKeywords {
			if strings.Contains(lower, kw) {
				s := strings.TrimSpace(sentence)
				if len(s) > 20 && len(s) < 500 {
					notes = append(notes, s)
				}
				break
			}
		}
		if len(notes) >= maxDiscussionNotes {
			break
		}
	}
	return notes
}
