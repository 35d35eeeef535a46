package finparse

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Format is the closed set of input kinds the dispatcher recognizes.
type Format int

const (
	FormatUnknown Format = iota
	FormatMarkup
	FormatPlainText
	FormatPDF
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatMarkup:
		return "markup"
	case FormatPlainText:
		return "plain-text"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// FormatHint is an optional filename-extension hint ("html", "txt",
// "pdf"). An unsupported or mismatched hint falls back to content-based
// classification rather than erroring.
type FormatHint string

// ParseResult is the output of one pipeline invocation.
type ParseResult struct {
	Label       string      `json:"label"`
	Format      Format      `json:"-"`
	Metrics     *MetricSet  `json:"-"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

var pdfSignature = []byte("%PDF-")

// pdfTextMarker flags plain text that came out of a PDF rendering path
// (form feeds between pages).
func pdfTextMarker(content []byte) bool {
	return bytes.Contains(content, []byte{'\f'})
}

// DetectFormat classifies raw content, trying the extension hint first.
func DetectFormat(content []byte, hint FormatHint) Format {
	switch strings.ToLower(strings.TrimPrefix(string(hint), ".")) {
	case "pdf":
		if bytes.HasPrefix(content, pdfSignature) {
			return FormatPDF
		}
		// Mismatched hint: fall through to content classification.
	case "html", "htm", "xhtml":
		if looksLikeMarkup(content) {
			return FormatMarkup
		}
	case "txt", "text":
		if !bytes.HasPrefix(content, pdfSignature) {
			return FormatPlainText
		}
	}

	if bytes.HasPrefix(content, pdfSignature) || pdfTextMarker(content) {
		return FormatPDF
	}

	trimmed := bytes.TrimSpace(content)
	lower := strings.ToLower(string(trimmed[:min(len(trimmed), 256)]))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") ||
		strings.HasPrefix(lower, "<?xml") || strings.HasPrefix(lower, "<") {
		return FormatMarkup
	}

	return FormatPlainText
}

// Parse runs the full extraction pipeline on one document. The pipeline
// is synchronous and owns all of its intermediate state, so concurrent
// calls on different documents need no locking. Identical input always
// produces identical output.
func Parse(content []byte, documentLabel string, hint FormatHint) (*ParseResult, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("document %q is empty", documentLabel)
	}

	format := DetectFormat(content, hint)
	result := &ParseResult{Label: documentLabel, Format: format}

	switch format {
	case FormatPDF:
		return parsePDFPath(content, result)
	case FormatMarkup:
		return parseMarkupPath(content, result)
	default:
		return parsePlainTextPath(content, result)
	}
}

// parseMarkupPath runs the normalizer and both extractors. A failed
// tolerant parse falls back to the plain-text path with a recorded
// warning instead of failing the whole parse.
func parseMarkupPath(content []byte, result *ParseResult) (*ParseResult, error) {
	doc, err := NormalizeMarkup(content)
	if err != nil {
		result.Format = FormatPlainText
		out, perr := parsePlainTextPath(content, result)
		if perr != nil {
			return nil, perr
		}
		out.Diagnostics.Warnings = append(out.Diagnostics.Warnings, Warning{
			Kind:    WarnNotMarkup,
			Message: fmt.Sprintf("markup parse failed, used plain-text path: %v", err),
		})
		return out, nil
	}

	var structured []ExtractedMetric
	var warnings []Warning
	if doc.HasInlineFacts {
		structured, warnings = ExtractStructuredFacts(content)
	}

	heuristic := ExtractHeuristicMetrics(doc)

	set := MergeFacts(structured, heuristic.Metrics)
	set.Segments = heuristic.Segments
	set.QualitativeNotes = heuristic.Notes

	result.Metrics = set
	result.Diagnostics = Diagnostics{
		TableCount:        doc.TableCount,
		HasStructuredTags: doc.HasInlineFacts,
		DetectedEncoding:  doc.Encoding,
		Warnings:          append(doc.Warnings, append(warnings, heuristic.Warnings...)...),
	}
	result.Diagnostics.Warnings = append(result.Diagnostics.Warnings, set.PlausibilityWarnings()...)
	return result, nil
}

// parsePlainTextPath cleans the text and runs only the heuristic
// extractor; no structured facts are possible without markup.
func parsePlainTextPath(content []byte, result *ParseResult) (*ParseResult, error) {
	text := cleanPlainText(content)

	doc := &NormalizedDocument{
		Text:     text,
		Prose:    text,
		Encoding: "utf-8",
	}

	heuristic := ExtractHeuristicMetrics(doc)
	set := MergeFacts(nil, heuristic.Metrics)
	set.Segments = heuristic.Segments
	set.QualitativeNotes = heuristic.Notes

	result.Metrics = set
	result.Diagnostics = Diagnostics{
		DetectedEncoding: doc.Encoding,
		Warnings:         heuristic.Warnings,
	}
	result.Diagnostics.Warnings = append(result.Diagnostics.Warnings, set.PlausibilityWarnings()...)
	return result, nil
}

// parsePDFPath extracts text from binary PDF content, or strips the
// page markers from already-rendered PDF text, then runs the plain-text
// path.
func parsePDFPath(content []byte, result *ParseResult) (*ParseResult, error) {
	if bytes.HasPrefix(content, pdfSignature) {
		text, err := extractPDFText(content)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", result.Label, err)
		}
		content = []byte(text)
	}
	return parsePlainTextPath(content, result)
}

// extractPDFText pulls the plain text out of binary PDF bytes.
// Recovers from panics (e.g. zlib: invalid header) caused by corrupt
// PDFs.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic during PDF extraction: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("PDF contained no extractable text")
	}
	return sb.String(), nil
}

// envelopeMarkerRe matches SEC submission envelope lines like
// <SEC-DOCUMENT>, <TYPE>10-K, </DOCUMENT>.
var envelopeMarkerRe = regexp.MustCompile(`(?m)^</?(SEC-[A-Z-]+|DOCUMENT|TYPE|SEQUENCE|FILENAME|DESCRIPTION|TEXT|PAGE)[^\n<]*>?.*$`)

// residualTagRe strips stray markup fragments left in PDF-rendered or
// envelope text.
var residualTagRe = regexp.MustCompile(`<[^>\n]{1,80}>`)

// cleanPlainText applies the light plain-text cleanup: normalized line
// endings, envelope markers removed, residual tags stripped, blank-line
// runs collapsed.
func cleanPlainText(content []byte) string {
	text := string(NormalizeText(content))

	text = envelopeMarkerRe.ReplaceAllString(text, "")
	text = residualTagRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\f", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
