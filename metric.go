package finparse

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PeriodType classifies the reporting span of an extracted metric.
type PeriodType int

const (
	PeriodUnknown PeriodType = iota
	PeriodAnnual
	PeriodQuarterly
	PeriodYearToDate
	PeriodTrailingTwelveMonths
)

// String returns a short label for the period type.
func (p PeriodType) String() string {
	switch p {
	case PeriodAnnual:
		return "annual"
	case PeriodQuarterly:
		return "quarterly"
	case PeriodYearToDate:
		return "ytd"
	case PeriodTrailingTwelveMonths:
		return "ttm"
	default:
		return "unknown"
	}
}

// ExtractedMetric is a single financial line item pulled from a
// document. The value is always the fully scaled amount: a "1,234"
// cell under an "in millions" header is stored as 1234000000.
// Metrics are immutable once created; the merge resolver may discard a
// duplicate but never rewrites one.
type ExtractedMetric struct {
	Name        string          `json:"name"`
	Category    MetricCategory  `json:"-"`
	Value       decimal.Decimal `json:"value"`
	ScaleUsed   UnitScale       `json:"scaleUsed"`
	Period      string          `json:"period,omitempty"` // e.g. "2024-12-31" or "2024-01-01 to 2024-12-31"
	PeriodType  PeriodType      `json:"-"`
	SourcePath  string          `json:"sourcePath"` // structured concept id, or "pattern:<label>"
	Confidence  decimal.Decimal `json:"confidence"` // fixed-point in [0,1]
	ContextNote string          `json:"contextNote,omitempty"`
}

// NormalizedName returns the case-folded, whitespace-collapsed form of
// the metric name used as the dedup key.
func (m ExtractedMetric) NormalizedName() string {
	return normalizeMetricName(m.Name)
}

func normalizeMetricName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// WarningKind identifies a class of recoverable extraction problem.
type WarningKind int

const (
	WarnParse WarningKind = iota
	WarnContextResolution
	WarnAmbiguousUnit
	WarnNotMarkup
	WarnPlausibility
)

// String returns the taxonomy name for the warning kind.
func (k WarningKind) String() string {
	switch k {
	case WarnParse:
		return "parse-error"
	case WarnContextResolution:
		return "context-resolution"
	case WarnAmbiguousUnit:
		return "ambiguous-unit"
	case WarnNotMarkup:
		return "not-markup"
	case WarnPlausibility:
		return "plausibility"
	default:
		return "unknown"
	}
}

// Warning records a recoverable problem encountered during extraction.
// Warnings accompany every parse result so data-quality issues are
// inspectable, never hidden.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Diagnostics summarizes what the pipeline saw in one document.
type Diagnostics struct {
	TableCount        int       `json:"tableCount"`
	HasStructuredTags bool      `json:"hasStructuredTags"`
	DetectedEncoding  string    `json:"detectedEncoding"`
	Warnings          []Warning `json:"warnings,omitempty"`
}

// MetricSet is the deduplicated collection of extracted metrics for
// one document: exactly one winner per normalized name, with losing
// duplicates preserved for audit.
type MetricSet struct {
	winners map[string]ExtractedMetric
	order   []string // normalized names in insertion order, for deterministic iteration

	// Losers holds metrics displaced by the precedence policy, with
	// their provenance intact.
	Losers []ExtractedMetric

	// Segments holds any segment/geographic revenue breakdown found
	// during heuristic extraction.
	Segments []SegmentRevenue

	// QualitativeNotes carries management-discussion sentences captured
	// during heuristic extraction. Context only, never numeric data.
	QualitativeNotes []string
}

// NewMetricSet returns an empty metric set.
func NewMetricSet() *MetricSet {
	return &MetricSet{winners: make(map[string]ExtractedMetric)}
}

// insert adds a metric unless its normalized name is already taken, in
// which case the metric is recorded as a loser. Reports whether the
// metric won.
func (s *MetricSet) insert(m ExtractedMetric) bool {
	key := m.NormalizedName()
	if _, taken := s.winners[key]; taken {
		s.Losers = append(s.Losers, m)
		return false
	}
	s.winners[key] = m
	s.order = append(s.order, key)
	return true
}

// Lookup returns the winning metric for a (non-normalized) name.
func (s *MetricSet) Lookup(name string) (ExtractedMetric, bool) {
	m, ok := s.winners[normalizeMetricName(name)]
	return m, ok
}

// Metrics returns all winning metrics in insertion order.
func (s *MetricSet) Metrics() []ExtractedMetric {
	out := make([]ExtractedMetric, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.winners[key])
	}
	return out
}

// Len returns the number of winning metrics.
func (s *MetricSet) Len() int {
	return len(s.winners)
}
