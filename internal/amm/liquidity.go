package amm

import "pairSwap/internal/model"

// InitialShares is the share count minted by the deposit that opens an
// empty pool: floor(sqrt(amountA * amountB)).
func InitialShares(amountA, amountB uint64) (uint64, error) {
	shares, err := Sqrt(amountA, amountB)
	if err != nil {
		return 0, err
	}
	if shares < MinimumLiquidity {
		return 0, model.ErrInitialLiquidityTooLow.Wrapf("minted %d, minimum %d", shares, MinimumLiquidity)
	}
	return shares, nil
}

// DepositShares is the share count minted for a deposit into a funded pool.
// Only the proportionally smaller side is credited.
func DepositShares(amountA, amountB, reserveA, reserveB, supply uint64) (uint64, error) {
	if reserveA == 0 || reserveB == 0 {
		return 0, model.ErrZeroReserves
	}
	if supply == 0 {
		return 0, model.ErrInsufficientLiquidity.Wrap("funded pool has no outstanding shares")
	}
	fromA, err := MulDiv(amountA, supply, reserveA)
	if err != nil {
		return 0, err
	}
	fromB, err := MulDiv(amountB, supply, reserveB)
	if err != nil {
		return 0, err
	}
	return min(fromA, fromB), nil
}

// RedeemAmounts is the pro-rata share of reserves for burning shares.
func RedeemAmounts(shares, reserveA, reserveB, supply uint64) (uint64, uint64, error) {
	if supply == 0 || shares > supply {
		return 0, 0, model.ErrInsufficientLiquidity.Wrapf("burn %d of supply %d", shares, supply)
	}
	outA, err := MulDiv(reserveA, shares, supply)
	if err != nil {
		return 0, 0, err
	}
	outB, err := MulDiv(reserveB, shares, supply)
	if err != nil {
		return 0, 0, err
	}
	return outA, outB, nil
}
