package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FromCents converts integer cents into a decimal amount in major units.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCents renders cents with two fixed decimals, e.g. 60000 -> "600.00".
func FormatCents(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// Percent returns pct percent of cents rounded half-up to the cent.
func Percent(cents int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(pct).Div(hundred).Round(0).IntPart()
}
