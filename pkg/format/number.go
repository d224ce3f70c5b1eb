// Package format renders and parses the numeric text shown in reports and the data entry grid.
package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is printed wherever a value cannot be computed.
const NotAvailable = "-"

var hundred = decimal.NewFromInt(100)

// digits with optional thousands commas and a single optional decimal part
var localeNumber = regexp.MustCompile(`^(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// Money renders a value with thousands separators and exactly two decimals.
func Money(d decimal.Decimal) string {
	return group(d.StringFixed(2))
}

// Count renders a value with thousands separators and no decimals.
func Count(d decimal.Decimal) string {
	return group(d.StringFixed(0))
}

// Percent renders a percentage with two decimals and no thousands separator.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NullPercent renders a percentage or NotAvailable.
func NullPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return NotAvailable
	}
	return Percent(d.Decimal)
}

// NullMoney renders a value or NotAvailable.
func NullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return NotAvailable
	}
	return Money(d.Decimal)
}

// Bound renders a parameter bound without trailing zeros.
func Bound(d decimal.Decimal) string {
	return d.String()
}

// ParseLocale parses a locale formatted decimal such as "1,234.50".
func ParseLocale(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if !localeNumber.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid number %q", text)
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

// Share computes value as a percentage of total; invalid when total is zero.
func Share(value, total decimal.Decimal) decimal.NullDecimal {
	if total.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: value.Mul(hundred).Div(total), Valid: true}
}

func group(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(frac)
	return b.String()
}
