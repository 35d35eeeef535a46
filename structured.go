package finparse

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// factContext is a period-context declaration referenced by inline
// facts elsewhere in the document.
type factContext struct {
	ID     string     `xml:"id,attr"`
	Period factPeriod `xml:"period"`
}

// factPeriod is either a point in time (balance sheet) or a duration
// (income statement).
type factPeriod struct {
	Instant   string `xml:"instant,omitempty"`
	StartDate string `xml:"startDate,omitempty"`
	EndDate   string `xml:"endDate,omitempty"`
}

// label renders the period for provenance notes.
func (p factPeriod) label() string {
	if p.Instant != "" {
		return p.Instant
	}
	if p.StartDate != "" && p.EndDate != "" {
		return fmt.Sprintf("%s to %s", p.StartDate, p.EndDate)
	}
	return ""
}

// periodType classifies the span by its length in days.
func (p factPeriod) periodType() PeriodType {
	if p.Instant != "" {
		return PeriodUnknown
	}
	start, err1 := time.Parse("2006-01-02", p.StartDate)
	end, err2 := time.Parse("2006-01-02", p.EndDate)
	if err1 != nil || err2 != nil {
		return PeriodUnknown
	}
	days := end.Sub(start).Hours() / 24
	switch {
	case days >= 300 && days <= 400:
		return PeriodAnnual
	case days >= 80 && days <= 100:
		return PeriodQuarterly
	case days >= 150 && days < 300:
		return PeriodYearToDate
	default:
		return PeriodUnknown
	}
}

// structuredConfidence is the trust assigned to facts carried by
// explicit machine-readable annotations.
var structuredConfidence = decimal.NewFromFloat(0.98)

// ExtractStructuredFacts walks embedded inline fact annotations
// (ix:nonFraction tags tied to context declarations) and produces typed
// metrics. Facts with no resolvable context are dropped with a recorded
// warning. Concepts outside the closed mapping are skipped entirely.
func ExtractStructuredFacts(data []byte) ([]ExtractedMetric, []Warning) {
	normalized := NormalizeMarkupBytes(data)

	contexts := extractContexts(normalized)

	var metrics []ExtractedMetric
	var warnings []Warning

	decoder := newTolerantDecoder(normalized)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed markup past this point; keep what we have.
			break
		}

		elem, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if elem.Name.Local != "nonFraction" {
			continue
		}

		concept := attrValue(elem.Attr, "name")
		contextRef := attrValue(elem.Attr, "contextRef")
		if concept == "" || contextRef == "" {
			continue
		}

		category, mapped := CategoryForConcept(concept)
		if !mapped {
			// Deliberate precision-over-recall: unmapped concepts are
			// not emitted as "other".
			continue
		}

		var raw string
		if err := decoder.DecodeElement(&raw, &elem); err != nil {
			continue
		}
		raw = strings.TrimSpace(raw)

		ctx, found := contexts[contextRef]
		if !found {
			warnings = append(warnings, Warning{
				Kind:    WarnContextResolution,
				Message: fmt.Sprintf("fact %s references missing context %q", concept, contextRef),
			})
			continue
		}

		tok, err := ParseNumericToken(raw)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:    WarnParse,
				Message: fmt.Sprintf("fact %s has unparseable value %q", concept, raw),
			})
			continue
		}
		value, err := tok.Decimal()
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:    WarnParse,
				Message: fmt.Sprintf("fact %s: %v", concept, err),
			})
			continue
		}

		// scale attribute is a power of ten: scale=6 means literal × 10^6
		scaleUsed := ScaleOnes
		if scaleStr := attrValue(elem.Attr, "scale"); scaleStr != "" {
			if n, err := strconv.Atoi(scaleStr); err == nil && n != 0 {
				value = value.Shift(int32(n))
				scaleUsed = UnitScale(n)
			}
		}

		// sign attribute marks values rendered inside parentheses
		if attrValue(elem.Attr, "sign") == "-" && !tok.Negative {
			value = value.Neg()
		}

		metrics = append(metrics, ExtractedMetric{
			Name:        DisplayName(category),
			Category:    category,
			Value:       value,
			ScaleUsed:   scaleUsed,
			Period:      ctx.Period.label(),
			PeriodType:  ctx.Period.periodType(),
			SourcePath:  concept,
			Confidence:  structuredConfidence,
			ContextNote: fmt.Sprintf("period=%s", ctx.Period.label()),
		})
	}

	return metrics, warnings
}

// extractContexts indexes all context declarations by id.
func extractContexts(data []byte) map[string]factContext {
	contexts := make(map[string]factContext)

	decoder := newTolerantDecoder(data)
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		elem, ok := token.(xml.StartElement)
		if !ok || elem.Name.Local != "context" {
			continue
		}

		var ctx factContext
		if err := decoder.DecodeElement(&ctx, &elem); err != nil {
			continue // Skip malformed contexts
		}
		if ctx.ID != "" {
			contexts[ctx.ID] = ctx
		}
	}

	return contexts
}

// newTolerantDecoder builds an XML token decoder that survives the
// HTML-isms of inline-annotated filings: undeclared entities, unclosed
// void elements, and charset declarations other than UTF-8.
func newTolerantDecoder(data []byte) *xml.Decoder {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		// Treat ASCII and other charsets as UTF-8
		return input, nil
	}
	return decoder
}

// attrValue gets an attribute value by local name.
func attrValue(attrs []xml.Attr, name string) string {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
