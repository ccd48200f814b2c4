package booking

import "github.com/shopspring/decimal"

// ChildFareRatio is the share of the adult base price charged per child.
var ChildFareRatio = decimal.RequireFromString("0.5")

// Quote prices a party: adults at the base price, children at
// ChildFareRatio of it, rounded to two decimals.
func Quote(base decimal.Decimal, adults, children int) decimal.Decimal {
	adultFare := base.Mul(decimal.NewFromInt(int64(adults)))
	childFare := base.Mul(ChildFareRatio).Mul(decimal.NewFromInt(int64(children)))
	return adultFare.Add(childFare).Round(2)
}

// MinorUnits converts a two-decimal amount to the gateway's integer minor
// unit (25000.00 -> 2500000).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
