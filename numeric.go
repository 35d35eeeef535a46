package finparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// UnitScale is a power-of-ten multiplier applied to a raw numeric literal
// to obtain its true magnitude.
type UnitScale int

const (
	ScaleOnes      UnitScale = 0
	ScaleThousands UnitScale = 3
	ScaleMillions  UnitScale = 6
	ScaleBillions  UnitScale = 9
)

// String returns a human-readable name for the scale.
func (s UnitScale) String() string {
	switch s {
	case ScaleThousands:
		return "thousands"
	case ScaleMillions:
		return "millions"
	case ScaleBillions:
		return "billions"
	default:
		return "ones"
	}
}

// RawNumericToken is a numeric literal as it appeared in the source
// document, before being lifted to an exact decimal value.
type RawNumericToken struct {
	Literal      string    // Original text, e.g. "(1,234.50)"
	Cleaned      string    // Digits and decimal point only, e.g. "1234.50"
	Negative     bool      // Parenthesized or minus-prefixed
	Scale        UnitScale // Multiplier detected from a suffix on the token itself
	CurrencyHint string    // "$", "USD", etc., empty if none
}

// ErrNoNumericValue indicates a token contained no interpretable digits.
var ErrNoNumericValue = fmt.Errorf("no numeric value")

var (
	// Matches magnitude words directly attached to a number ("$1.5 billion").
	suffixScaleRe = regexp.MustCompile(`(?i)^(billion|bn|million|mm|thousand)s?\b`)

	// A numeric literal with optional thousands separators and decimals.
	numericLiteralRe = regexp.MustCompile(`^-?\$?\(?\s*-?[\d,]+(?:\.\d+)?\s*\)?`)
)

// ParseNumericToken interprets a source-document numeric literal.
// Handles thousands separators, parenthesized negatives, a leading
// currency symbol, and magnitude-word suffixes ("1.5 billion").
// Returns ErrNoNumericValue if the text contains no usable digits.
func ParseNumericToken(text string) (*RawNumericToken, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty token", ErrNoNumericValue)
	}

	tok := &RawNumericToken{Literal: trimmed, Scale: ScaleOnes}

	rest := trimmed
	negative := false

	// Leading minus before any currency symbol
	if strings.HasPrefix(rest, "-") {
		negative = true
		rest = rest[1:]
	}

	// Parenthesized negative: "(500.00)" or "$(500.00)"
	if open := strings.IndexByte(rest, '('); open >= 0 && strings.Contains(rest[open:], ")") {
		negative = true
		rest = strings.Replace(rest, "(", "", 1)
		rest = strings.Replace(rest, ")", "", 1)
		rest = strings.TrimSpace(rest)
	}

	// Currency markers
	for _, cur := range []string{"$", "US$", "USD"} {
		if strings.HasPrefix(rest, cur) {
			tok.CurrencyHint = cur
			rest = strings.TrimSpace(strings.TrimPrefix(rest, cur))
			break
		}
	}

	// Inner minus after currency symbol ("$-500")
	if strings.HasPrefix(rest, "-") {
		negative = true
		rest = rest[1:]
	}

	// Collect the digit run
	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c >= '0' && c <= '9') || c == ',' || c == '.' {
			end++
			continue
		}
		break
	}
	digits := rest[:end]
	cleaned := strings.ReplaceAll(digits, ",", "")
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" || cleaned == "." {
		return nil, fmt.Errorf("%w: %q", ErrNoNumericValue, text)
	}

	// Magnitude word immediately following the digits
	tail := strings.TrimSpace(rest[end:])
	if m := suffixScaleRe.FindString(tail); m != "" {
		switch strings.ToLower(strings.TrimSuffix(m, "s")) {
		case "billion", "bn":
			tok.Scale = ScaleBillions
		case "million", "mm":
			tok.Scale = ScaleMillions
		case "thousand":
			tok.Scale = ScaleThousands
		}
	}

	tok.Cleaned = cleaned
	tok.Negative = negative
	return tok, nil
}

// Decimal lifts the token to an exact decimal value, applying the sign
// and any suffix-detected scale. No floating point is involved at any
// magnitude.
func (t *RawNumericToken) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(t.Cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed numeric literal %q: %w", t.Literal, err)
	}
	if t.Negative {
		d = d.Neg()
	}
	if t.Scale != ScaleOnes {
		d = d.Shift(int32(t.Scale))
	}
	return d, nil
}

// applyScale shifts a value by a power of ten, exactly.
func applyScale(d decimal.Decimal, scale UnitScale) decimal.Decimal {
	if scale == ScaleOnes {
		return d
	}
	return d.Shift(int32(scale))
}

// firstNumericToken scans a text window left to right and returns the
// first parseable numeric token, or nil if the window holds none.
// Bare years (e.g. "2024") and percentages ("12%") are skipped so
// period headers and growth rates are not mistaken for values.
func firstNumericToken(window string) *RawNumericToken {
	fields := strings.Fields(window)
	for i, f := range fields {
		if !numericLiteralRe.MatchString(f) {
			continue
		}
		if looksLikeYear(f) {
			continue
		}
		if strings.Contains(f, "%") || (i+1 < len(fields) && strings.HasPrefix(fields[i+1], "%")) {
			continue
		}
		// Re-join so "(1,234 )" split across fields still parses, and a
		// following magnitude word is visible to the suffix detector.
		joined := f
		if i+1 < len(fields) {
			joined = f + " " + fields[i+1]
		}
		if tok, err := ParseNumericToken(joined); err == nil {
			return tok
		}
	}
	return nil
}

// looksLikeYear reports whether a bare token is a plausible fiscal year.
func looksLikeYear(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s >= "1900" && s <= "2099"
}
