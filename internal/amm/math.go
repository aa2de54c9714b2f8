// Package amm holds the fixed-width arithmetic of the constant-product
// pool. Every product is formed on 256-bit intermediates and narrowed back
// to 64 bits with an explicit check. All division floors, which keeps
// rounding in the pool's favour.
package amm

import (
	"github.com/holiman/uint256"

	"pairSwap/internal/model"
)

const (
	// FeeDenominator is the fixed denominator of every fee numerator.
	FeeDenominator uint64 = 10_000
	// DefaultFeeNumerator is 0.3%.
	DefaultFeeNumerator uint64 = 30
	// MinimumLiquidity is the smallest share count a first deposit may mint.
	MinimumLiquidity uint64 = 1_000
)

// ValidateFee checks that fee does not exceed the denominator.
func ValidateFee(fee uint64) error {
	if fee > FeeDenominator {
		return model.ErrInvalidFee.Wrapf("fee %d over denominator %d", fee, FeeDenominator)
	}
	return nil
}

// MulDiv returns floor(a*b/c).
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, model.ErrMathOverflow.Wrap("division by zero")
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	prod.Div(prod, uint256.NewInt(c))
	return narrow(prod)
}

// Add returns a+b or ErrMathOverflow.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, model.ErrMathOverflow.Wrapf("%d + %d", a, b)
	}
	return sum, nil
}

// Sub returns a-b or ErrMathOverflow on underflow.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, model.ErrMathOverflow.Wrapf("%d - %d", a, b)
	}
	return a - b, nil
}

// Product returns a*b without narrowing.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

// Sqrt returns floor(sqrt(a*b)).
func Sqrt(a, b uint64) (uint64, error) {
	root := new(uint256.Int).Sqrt(Product(a, b))
	return narrow(root)
}

func narrow(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, model.ErrMathOverflow.Wrapf("%s does not fit in 64 bits", v.Dec())
	}
	return v.Uint64(), nil
}
