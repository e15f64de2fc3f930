package sheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

var numberSanitizer = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "EGP", "", "egp", "", "%", "")

// Decimal parses a numeric cell. Blank cells (and pandas-style "nan") parse
// as zero with ok=true; anything else unparseable returns ok=false.
func Decimal(cell string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(cell)
	if v == "" || strings.EqualFold(v, "nan") {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(numberSanitizer.Replace(v))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Int parses a whole-unit quantity cell. A fractional value such as "-0.4" is
// rejected rather than rounded, so "2.0" parses but "2.5" does not.
func Int(cell string) (int64, bool) {
	d, ok := Decimal(cell)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

// Text normalizes a text cell; "nan" reads as empty.
func Text(cell string) string {
	v := strings.TrimSpace(cell)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}
