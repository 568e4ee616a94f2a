package ordlock

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MarketFee returns floor(payoutSats * rate). A zero rate means no fee.
func MarketFee(payoutSats uint64, rate decimal.Decimal) (uint64, error) {
	if rate.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidFeeRate, rate)
	}
	fee := decimal.NewFromBigInt(new(big.Int).SetUint64(payoutSats), 0).Mul(rate).Floor()
	if !fee.BigInt().IsUint64() {
		return 0, fmt.Errorf("%w: fee overflows at rate %s", ErrInvalidFeeRate, rate)
	}
	return fee.BigInt().Uint64(), nil
}
