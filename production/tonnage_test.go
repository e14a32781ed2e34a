package production_test

import (
	"testing"

	"github.com/protrack/production-engine/production"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertTonnage(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// =============================================================================
// TONNAGE CALCULATOR TESTS
// =============================================================================

func TestComputeTonnage_Categories(t *testing.T) {
	tests := []struct {
		name     string
		category production.Category
		count    int
		weight   string
		want     string
	}{
		{"export 3 containers", production.CategoryExport, 3, "1.1", "66.00"},
		{"local 5 trucks", production.CategoryLocal, 5, "1.2", "132.00"},
		{"debardage 10 bags", production.CategoryDebardage, 10, "1.2", "12.00"},
		{"zero count", production.CategoryExport, 0, "1.1", "0"},
		{"export custom weight", production.CategoryExport, 1, "1.05", "21.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := production.ComputeTonnage(tt.category, tt.count, dec(tt.weight))
			assertTonnage(t, tt.want, got)
		})
	}
}

func TestComputeTonnage_RoundsHalfAwayFromZero(t *testing.T) {
	// GIVEN: 1 × 20 × 0.00025 = 0.005 exactly
	// THEN: Rounds up to 0.01, not to even (0.00)
	got := production.ComputeTonnage(production.CategoryExport, 1, dec("0.00025"))
	assertTonnage(t, "0.01", got)

	// 1 × 20 × 0.00075 = 0.015 -> 0.02
	got = production.ComputeTonnage(production.CategoryExport, 1, dec("0.00075"))
	assertTonnage(t, "0.02", got)
}

func TestComputeTonnage_NoFloatDrift(t *testing.T) {
	// 3 × 20 × 1.1 in binary floating point is 66.00000000000001
	got := production.ComputeTonnage(production.CategoryExport, 3, dec("1.1"))
	assert.Equal(t, "66.00", got.StringFixed(production.TonnagePlaces))
	assert.True(t, got.Equal(got.Round(production.TonnagePlaces)))
}

func TestSumTonnage_RoundThenSum(t *testing.T) {
	// GIVEN: Three orders each computing to 0.005 before rounding
	// WHEN: Rounding per order then summing
	// THEN: Total is 3 × 0.01 = 0.03, not round(0.015) = 0.02
	one := production.ComputeTonnage(production.CategoryExport, 1, dec("0.00025"))
	orders := []production.Order{{Tonnage: one}, {Tonnage: one}, {Tonnage: one}}

	assertTonnage(t, "0.03", production.SumTonnage(orders))
}

func TestSumTonnage_Empty(t *testing.T) {
	assert.True(t, production.SumTonnage(nil).IsZero())
}
