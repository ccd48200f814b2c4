package booking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuoteTwoAdultsOneChild(t *testing.T) {
	total := Quote(decimal.NewFromInt(10000), 2, 1)

	assert.True(t, total.Equal(decimal.NewFromInt(25000)), total.String())
	assert.Equal(t, int64(2500000), MinorUnits(total))
}

func TestQuoteRoundsToPaise(t *testing.T) {
	total := Quote(decimal.RequireFromString("999.99"), 1, 1)

	// 999.99 + 499.995 = 1499.985 -> 1499.99
	assert.Equal(t, "1499.99", total.StringFixed(2))
	assert.Equal(t, int64(149999), MinorUnits(total))
}

func TestQuoteAdultsOnly(t *testing.T) {
	assert.Equal(t, "36000.00", Quote(decimal.NewFromInt(12000), 3, 0).StringFixed(2))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100), MinorUnits(decimal.NewFromInt(1)))
	assert.Equal(t, int64(5), MinorUnits(decimal.RequireFromString("0.05")))
	assert.Equal(t, int64(0), MinorUnits(decimal.Zero))
}
