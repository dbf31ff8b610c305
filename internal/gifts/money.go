package gifts

import "github.com/shopspring/decimal"

// ToCents converts a unit-currency price into integer minor units. The
// conversion rounds to the nearest cent so 45.005 does not silently truncate.
func ToCents(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

// FromCents converts integer minor units back into a unit-currency decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}
