package finparse

// MergeFacts deduplicates the two extraction paths into one MetricSet.
//
// Structured facts are inserted first, so for any name collision the
// structured fact wins unconditionally; heuristic facts only fill gaps.
// Ties within the same list keep the first occurrence in document order
// and record the rest as losers. Document order is the deliberate
// tie-break, not confidence: primary financial statements precede
// footnote repeats, so the earlier occurrence is the statement of
// record.
func MergeFacts(structured, heuristic []ExtractedMetric) *MetricSet {
	set := NewMetricSet()

	for _, m := range structured {
		set.insert(m)
	}
	for _, m := range heuristic {
		set.insert(m)
	}

	return set
}
