package production

import "github.com/shopspring/decimal"

// =============================================================================
// TONNAGE CALCULATOR
// =============================================================================

// TonnagePlaces is the number of decimal places tonnage is stored with.
const TonnagePlaces = 2

// ComputeTonnage returns unitCount × unitsPerLoad(category) × unitWeight,
// rounded half away from zero to two decimal places.
//
// The category must be valid; callers reject unknown categories at the
// boundary (ParseCategory, ValidateOrder) before reaching this point.
func ComputeTonnage(category Category, unitCount int, unitWeight decimal.Decimal) decimal.Decimal {
	loads := decimal.NewFromInt(int64(unitCount) * int64(category.UnitsPerLoad()))
	return Round2(loads.Mul(unitWeight))
}

// Round2 rounds to TonnagePlaces using decimal's half-away-from-zero rule.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(TonnagePlaces)
}

// SumTonnage adds the already-rounded tonnage of each order.
// It never recomputes from unit counts: totals are sums of line items.
func SumTonnage(orders []Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Tonnage)
	}
	return total
}
