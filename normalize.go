package finparse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// NormalizeText normalizes the Unicode and HTML-entity issues that
// appear in regulatory filings. Runs early in the pipeline, ahead of
// both the markup and plain-text paths.
//
// Normalizations performed:
// - HTML entities (&nbsp;, &mdash;, &ldquo;, etc.) → Unicode equivalents
// - Non-breaking spaces (U+00A0) → regular spaces
// - Various Unicode whitespace → regular spaces
// - Zero-width characters → removed
// - Normalized newlines (CRLF → LF)
func NormalizeText(data []byte) []byte {
	text := string(data)

	text = normalizeHTMLEntities(text)
	text = normalizeWhitespace(text)
	text = removeInvisibleChars(text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return []byte(text)
}

// normalizeHTMLEntities converts common HTML entities to their Unicode equivalents
func normalizeHTMLEntities(text string) string {
	// Common entities found in filings
	replacements := map[string]string{
		"&nbsp;":   " ",
		"&mdash;":  "—", // Em dash
		"&ndash;":  "–", // En dash
		"&ldquo;":  "“", // Left double quote
		"&rdquo;":  "”", // Right double quote
		"&lsquo;":  "‘", // Left single quote
		"&rsquo;":  "’", // Right single quote
		"&amp;":    "&",
		"&lt;":     "<",
		"&gt;":     ">",
		"&quot;":   "\"",
		"&apos;":   "'",
		"&hellip;": "...",
		"&bull;":   "•", // Bullet
		"&trade;":  "™", // Trademark
		"&reg;":    "®", // Registered
		"&copy;":   "©", // Copyright
		"&sect;":   "§", // Section sign
		"&#160;":   " ",
	}

	for entity, replacement := range replacements {
		text = strings.ReplaceAll(text, entity, replacement)
	}

	// Numeric entities (&#NNN;)
	numericEntityPattern := regexp.MustCompile(`&#(\d+);`)
	text = numericEntityPattern.ReplaceAllStringFunc(text, func(match string) string {
		var code int
		if _, err := fmt.Sscanf(match, "&#%d;", &code); err == nil {
			switch code {
			case 160: // nbsp
				return " "
			case 8220, 8221: // quotes
				return "\""
			case 8217: // apostrophe
				return "'"
			default:
				if code < 0x110000 { // Valid Unicode range
					return string(rune(code))
				}
			}
		}
		return match // Leave unchanged if we can't parse
	})

	return text
}

// normalizeWhitespace converts Unicode whitespace variants to regular spaces.
// U+00A0 (non-breaking space) is the most common issue in filings.
func normalizeWhitespace(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case ' ': // Non-breaking space (NBSP)
			result.WriteRune(' ')
		case ' ', ' ', ' ', ' ', ' ', ' ': // En quad, Em quad, etc.
			result.WriteRune(' ')
		case ' ', ' ', ' ', ' ', ' ': // Figure space, etc.
			result.WriteRune(' ')
		case ' ': // Narrow no-break space
			result.WriteRune(' ')
		case ' ': // Medium mathematical space
			result.WriteRune(' ')
		case '　': // Ideographic space
			result.WriteRune(' ')
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// removeInvisibleChars removes zero-width and other invisible characters
func removeInvisibleChars(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '​': // Zero-width space
			continue
		case '‌': // Zero-width non-joiner
			continue
		case '‍': // Zero-width joiner
			continue
		case '\uFEFF': // Zero-width no-break space (BOM)
			continue
		case '᠎': // Mongolian vowel separator
			continue
		default:
			if unicode.Is(unicode.Cf, r) && r != '\t' && r != '\n' && r != '\r' {
				continue
			}
			result.WriteRune(r)
		}
	}

	return result.String()
}

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// CleanExtractedText collapses whitespace in text AFTER extraction from
// parsed documents. More aggressive than input normalization.
func CleanExtractedText(text string) string {
	// Page markers survive PDF text rendering
	text = pageMarkerRe.ReplaceAllString(text, " ")

	text = whitespaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var pageMarkerRe = regexp.MustCompile(`Page \d+ of \d+`)

// NormalizeMarkupBytes is a lighter variant for content that will be fed
// to the XML token decoder: only the characters that break parsing are
// touched so tag offsets stay meaningful.
func NormalizeMarkupBytes(data []byte) []byte {
	text := string(data)

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "​", "")
	text = strings.ReplaceAll(text, "\uFEFF", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return []byte(text)
}
