package amm

import (
	"github.com/holiman/uint256"

	"pairSwap/internal/model"
)

// FeeAdjusted returns amountIn minus the floored fee.
func FeeAdjusted(amountIn, feeNumerator uint64) (uint64, error) {
	if err := ValidateFee(feeNumerator); err != nil {
		return 0, err
	}
	fee, err := MulDiv(amountIn, feeNumerator, FeeDenominator)
	if err != nil {
		return 0, err
	}
	return Sub(amountIn, fee)
}

// SwapOut solves (reserveIn + in') * (reserveOut - out) >= reserveIn * reserveOut
// for the largest out, where in' is amountIn after fee.
func SwapOut(amountIn, reserveIn, reserveOut, feeNumerator uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, model.ErrInvalidAmount.Wrap("swap amount must be positive")
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, model.ErrZeroReserves
	}
	adjusted, err := FeeAdjusted(amountIn, feeNumerator)
	if err != nil {
		return 0, err
	}
	num := Product(reserveOut, adjusted)
	den := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(adjusted))
	out, err := narrow(num.Div(num, den))
	if err != nil {
		return 0, err
	}
	if out >= reserveOut {
		return 0, model.ErrInsufficientLiquidity.Wrapf("output %d would drain reserve %d", out, reserveOut)
	}
	return out, nil
}

// ProductNonDecreasing reports whether the post-trade product is at least
// the pre-trade product.
func ProductNonDecreasing(beforeA, beforeB, afterA, afterB uint64) bool {
	return Product(afterA, afterB).Cmp(Product(beforeA, beforeB)) >= 0
}
