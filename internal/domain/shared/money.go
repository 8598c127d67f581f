package shared

import "github.com/shopspring/decimal"

// minorUnitExp is the exponent between major and minor currency units
const minorUnitExp = 2

// ToDecimal converts minor units into a major-unit decimal, 2050 -> 20.50
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExp)
}

// FromDecimal converts a major-unit decimal into minor units, rounding half away from zero
func FromDecimal(major decimal.Decimal) int64 {
	return major.Shift(minorUnitExp).Round(0).IntPart()
}

// FormatMinor renders minor units with two decimals
func FormatMinor(minor int64) string {
	return ToDecimal(minor).StringFixed(minorUnitExp)
}
