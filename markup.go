package finparse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// ErrNotMarkup indicates the input could not be interpreted as markup
// at all. The dispatcher falls back to the plain-text path.
var ErrNotMarkup = fmt.Errorf("input is not markup")

// financialKeywords qualifies a table as financially relevant when any
// of them appears in its flattened text. Fixed set; case-insensitive.
var financialKeywords = []string{
	"revenue", "income", "asset", "liabilit", "equity", "cash",
	"operating", "balance", "consolidated", "statement", "fiscal",
	"earnings",
}

// LinearizedTable is one financially relevant table rewritten as
// delimiter-joined rows, preserving row and cell adjacency while
// discarding layout noise.
type LinearizedTable struct {
	Index        int       // 1-based position among qualifying tables
	Rows         []string  // "cell | cell | cell" per row, document order
	HeaderScale  UnitScale // scale implied by a unit caption, ScaleOnes if none
	HasScaleHint bool      // caption stated units and they were readable
	MentionsUnit bool      // caption mentioned units at all (readable or not)
}

// NormalizedDocument is the markup normalizer's output: a single text
// blob (linearized tables followed by the remaining flattened prose)
// plus structural metadata.
type NormalizedDocument struct {
	Text               string
	Prose              string // flattened non-table text only
	Tables             []LinearizedTable
	TableCount         int
	HasInlineFacts     bool
	HasFinancialTables bool
	Encoding           string
	Warnings           []Warning // recoveries made during normalization
}

// NormalizeMarkup strips non-content markup and rewrites the document
// as normalized text. Tolerates unclosed and malformed tags; only input
// with no recognizable tag structure at all returns ErrNotMarkup.
func NormalizeMarkup(data []byte) (*NormalizedDocument, error) {
	if !looksLikeMarkup(data) {
		return nil, fmt.Errorf("%w: no tag structure found", ErrNotMarkup)
	}

	_, encName, _ := charset.DetermineEncoding(data, "")
	normalized := NormalizeText(data)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(normalized)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMarkup, err)
	}

	out := &NormalizedDocument{
		Encoding:       encName,
		HasInlineFacts: DetectInlineFacts(data),
	}

	// The tolerant parse recovers from unclosed tags silently; the
	// balance scan is the only record that recovery happened.
	if open := scanTagBalance(normalized); len(open) > 0 {
		out.Warnings = append(out.Warnings, Warning{
			Kind:    WarnParse,
			Message: fmt.Sprintf("recovered from malformed markup: unclosed %s", strings.Join(open, ", ")),
		})
	}

	removeNoise(doc)

	// Linearize qualifying tables, then drop every table node so the
	// remaining flattened prose holds no duplicate cell text.
	var blob strings.Builder
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		flat := CleanExtractedText(sel.Text())
		if !containsFinancialKeyword(flat) {
			return
		}
		table := linearizeTable(sel, len(out.Tables)+1)
		if len(table.Rows) == 0 {
			return
		}
		out.Tables = append(out.Tables, table)

		fmt.Fprintf(&blob, "[TABLE %d]\n", table.Index)
		for _, row := range table.Rows {
			blob.WriteString(row)
			blob.WriteByte('\n')
		}
		fmt.Fprintf(&blob, "[/TABLE %d]\n", table.Index)
	})
	doc.Find("table").Remove()

	out.TableCount = len(out.Tables)
	out.HasFinancialTables = out.TableCount > 0

	// Remaining visible text, one paragraph-ish chunk per line.
	body := doc.Find("body")
	var prose string
	if body.Length() > 0 {
		prose = visibleText(body)
	} else {
		prose = visibleText(doc.Selection)
	}
	if prose != "" {
		blob.WriteString(prose)
		blob.WriteByte('\n')
	}

	out.Prose = collapseBlob(prose)
	out.Text = collapseBlob(blob.String())
	return out, nil
}

// structuralTags are elements whose closing tags well-formed filings
// always carry. Unclosed ones signal a truncated or malformed document
// rather than HTML shorthand; td/tr/p/li get implied closes and are
// deliberately not tracked.
var structuralTags = map[string]bool{
	"html":  true,
	"body":  true,
	"table": true,
	"thead": true,
	"tbody": true,
	"tfoot": true,
	"div":   true,
}

// scanTagBalance returns the structural tags still open at end of
// input, in document order.
func scanTagBalance(data []byte) []string {
	z := html.NewTokenizer(bytes.NewReader(data))
	var open []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return open
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); structuralTags[tag] {
				open = append(open, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == tag {
					open = append(open[:i], open[i+1:]...)
					break
				}
			}
		}
	}
}

// looksLikeMarkup is a cheap structural check ahead of the tolerant
// parse: some tag-like structure must exist, and the content must not
// be dominated by non-text bytes (binary garbage).
func looksLikeMarkup(data []byte) bool {
	if !strings.Contains(string(data), "<") {
		return false
	}
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	binary := 0
	for _, b := range sample {
		if b < 0x09 || (b > 0x0d && b < 0x20) {
			binary++
		}
	}
	return binary*10 < len(sample)
}

// DetectInlineFacts reports whether the markup carries embedded inline
// fact annotations (ix: namespace tags).
func DetectInlineFacts(data []byte) bool {
	content := string(data)
	return strings.Contains(content, "xmlns:ix=") ||
		strings.Contains(content, "<ix:") ||
		strings.Contains(content, "inlineXBRL")
}

// removeNoise drops non-content nodes: scripts, styles, navigation,
// hidden-via-inline-style elements, and filing-system boilerplate
// header blocks.
func removeNoise(doc *goquery.Document) {
	doc.Find("script, style, noscript, nav, header, iframe").Remove()

	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			sel.Remove()
		}
	})

	// Inline-fact resource headers are machine data, not visible content.
	doc.Find("ix\\:header").Remove()
}

// linearizeTable rewrites one table as delimiter-joined rows and sniffs
// its unit caption.
func linearizeTable(sel *goquery.Selection, index int) LinearizedTable {
	table := LinearizedTable{Index: index, HeaderScale: ScaleOnes}

	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, CleanExtractedText(cell.Text()))
		})
		// Skip fully empty spacer rows
		empty := true
		for _, c := range cells {
			if c != "" {
				empty = false
				break
			}
		}
		if empty {
			return
		}
		table.Rows = append(table.Rows, strings.Join(cells, " | "))
	})

	flat := CleanExtractedText(sel.Text())
	scale, found, mentions := detectHeaderScale(flat)
	table.HeaderScale = scale
	table.HasScaleHint = found
	table.MentionsUnit = mentions
	return table
}

// detectHeaderScale sniffs a table caption for a unit magnitude
// declaration like "(in millions)" or "in thousands, except per share
// amounts". Returns the scale, whether a magnitude was readable, and
// whether units were mentioned at all.
func detectHeaderScale(text string) (UnitScale, bool, bool) {
	lower := strings.ToLower(text)

	mentions := strings.Contains(lower, "in millions") ||
		strings.Contains(lower, "in thousands") ||
		strings.Contains(lower, "in billions") ||
		strings.Contains(lower, "(in ") ||
		strings.Contains(lower, "amounts in")

	switch {
	case strings.Contains(lower, "in billions"):
		return ScaleBillions, true, true
	case strings.Contains(lower, "in millions"):
		return ScaleMillions, true, true
	case strings.Contains(lower, "in thousands"), strings.Contains(lower, "000s"):
		return ScaleThousands, true, true
	}
	return ScaleOnes, false, mentions
}

// visibleText flattens the visible text of a selection, walking the
// underlying node tree.
func visibleText(sel *goquery.Selection) string {
	var buf strings.Builder
	for _, node := range sel.Nodes {
		walkText(&buf, node)
	}
	return CleanExtractedText(buf.String())
}

func walkText(buf *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		buf.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(buf, c)
	}
}

func containsFinancialKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range financialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// collapseBlob collapses space runs within lines and blank-line runs,
// keeping one row per line so cell adjacency survives.
func collapseBlob(blob string) string {
	lines := strings.Split(blob, "\n")
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
