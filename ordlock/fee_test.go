package ordlock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketFee(t *testing.T) {
	tests := []struct {
		payout uint64
		rate   string
		want   uint64
	}{
		{1000, "0.02", 20},
		{999, "0.02", 19},
		{1000, "0", 0},
		{1, "0.5", 0},
		{3, "0.5", 1},
		{100_000_000, "0.025", 2_500_000},
		{1000, "1", 1000},
		// 0.1 is exact in decimal, so there is no float drift below 30.
		{300, "0.1", 30},
	}
	for _, tc := range tests {
		fee, err := MarketFee(tc.payout, decimal.RequireFromString(tc.rate))
		require.NoError(t, err)
		assert.Equal(t, tc.want, fee, "payout %d rate %s", tc.payout, tc.rate)
	}
}

func TestMarketFee_NegativeRate(t *testing.T) {
	_, err := MarketFee(1000, decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidFeeRate)
}
