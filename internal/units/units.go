// Package units converts between decimal token amounts and base units.
package units

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"pairSwap/internal/model"
)

// MaxDecimals bounds the precision accepted for a token.
const MaxDecimals = 18

var maxBaseUnits = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// ParseAmount scales a decimal string such as "1.25" into base units. Inputs
// with more fractional digits than decimals are rejected, never rounded.
func ParseAmount(input string, decimals int32) (uint64, error) {
	if err := checkDecimals(decimals); err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return 0, model.ErrInvalidAmount.Wrapf("parse %q: %v", input, err)
	}
	if d.IsNegative() {
		return 0, model.ErrInvalidAmount.Wrapf("%q is negative", input)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, model.ErrInvalidAmount.Wrapf("%q has more than %d fractional digits", input, decimals)
	}
	if scaled.GreaterThan(maxBaseUnits) {
		return 0, model.ErrMathOverflow.Wrapf("%q exceeds 64-bit base units", input)
	}
	return scaled.BigInt().Uint64(), nil
}

// FormatAmount renders base units as a decimal string without trailing zeros.
func FormatAmount(amount uint64, decimals int32) string {
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).String()
}

func checkDecimals(decimals int32) error {
	if decimals < 0 || decimals > MaxDecimals {
		return fmt.Errorf("decimals %d out of range [0, %d]", decimals, MaxDecimals)
	}
	return nil
}
