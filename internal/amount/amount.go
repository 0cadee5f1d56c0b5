// Package amount parses and formats BRL amounts and converts foreign
// currency amounts to BRL.
package amount

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidAmount is returned by ParseStrict for input that is not a
// non-negative amount.
var ErrInvalidAmount = errors.New("invalid amount")

var printer = message.NewPrinter(language.BrazilianPortuguese)

// normalize turns "R$ 1.234,56" into "1234.56". A single "." with no ","
// is a decimal point unless exactly three digits follow it, so raw float
// cells such as "1234.56" keep their value while "1.234" reads as 1234.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if !strings.Contains(s, ",") && strings.Count(s, ".") == 1 {
		if _, frac, _ := strings.Cut(s, "."); len(frac) != 3 {
			return s
		}
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", ".")
}

// ParseStrict parses a locale formatted amount ("." thousands, "," decimals).
func ParseStrict(s string) (decimal.Decimal, error) {
	n := normalize(s)
	if n == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(n)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Parse is ParseStrict with the form's historical fallback: anything that
// does not parse is zero.
func Parse(s string) decimal.Decimal {
	d, err := ParseStrict(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatPlain renders d with two decimals in pt-BR notation, e.g. "1.234,56".
func FormatPlain(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, cents, _ := strings.Cut(fixed, ".")
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = printer.Sprintf("%d", n)
	}
	return sign + whole + "," + cents
}

// Format renders d as displayed to users, e.g. "R$ 1.234,56".
func Format(d decimal.Decimal) string {
	return "R$ " + FormatPlain(d)
}
