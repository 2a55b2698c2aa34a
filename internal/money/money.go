// Package money holds the rounding policies used by holdings valuation.
//
// Every amount is carried as a decimal.Decimal so ledger arithmetic never
// drifts; a policy is applied explicitly at the point the brokerage applies it.
// JSON output converts to float64 only at the edge.
package money

import (
	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// Zero is the additive identity, exported for readability at call sites.
var Zero = decimal.Zero

// FromFloat converts a ledger float into a decimal using its shortest
// decimal representation, so 59.76 stays 59.76 rather than 59.7599999.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// FromInt converts a share count.
func FromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// Floor2 truncates toward negative infinity at 2 decimal places.
func Floor2(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(2)
}

// Round2 rounds half away from zero at 2 decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round4 rounds half away from zero at 4 decimal places.
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}

// RoundInt rounds to the nearest integer, half away from zero.
func RoundInt(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// FloorInt truncates toward negative infinity at the integer.
func FloorInt(d decimal.Decimal) decimal.Decimal {
	return d.Floor()
}

// FloorToThousand returns the largest multiple of 1000 not above d.
func FloorToThousand(d decimal.Decimal) decimal.Decimal {
	return d.Div(thousand).Floor().Mul(thousand)
}

// CeilToHundred returns the smallest multiple of 100 not below d.
func CeilToHundred(d decimal.Decimal) decimal.Decimal {
	return d.Div(hundred).Ceil().Mul(hundred)
}

// Percent converts a percentage figure such as 0.1425 into the fraction 0.001425.
func Percent(d decimal.Decimal) decimal.Decimal {
	return d.Div(hundred)
}

// Float returns the float64 nearest to d for JSON output.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// Int returns the integer part of d; callers round first.
func Int(d decimal.Decimal) int64 {
	return d.IntPart()
}

// Ratio returns part/whole for share counts. whole must be positive.
func Ratio(part, whole int64) decimal.Decimal {
	return decimal.NewFromInt(part).Div(decimal.NewFromInt(whole))
}

// Prorate returns amount scaled by part/whole without the intermediate
// division losing precision before the multiplication.
func Prorate(amount decimal.Decimal, part, whole int64) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(part)).Div(decimal.NewFromInt(whole))
}
