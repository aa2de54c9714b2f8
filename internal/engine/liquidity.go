package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/amm"
	"pairSwap/internal/custody"
	"pairSwap/internal/derive"
	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

// AddLiquidityRequest deposits both sides of a pool in exchange for LP shares.
type AddLiquidityRequest struct {
	User           common.Address
	TokenA         common.Address
	TokenB         common.Address
	AmountA        uint64
	AmountB        uint64
	MinLPTokensOut uint64
}

// RemoveLiquidityRequest redeems LP shares for a proportional part of the reserves.
type RemoveLiquidityRequest struct {
	User          common.Address
	TokenA        common.Address
	TokenB        common.Address
	LPTokenAmount uint64
	MinAmountA    uint64
	MinAmountB    uint64
}

type depositPlan struct {
	minted   uint64
	reserveA uint64
	reserveB uint64
}

// planDeposit computes the shares minted for a deposit and the resulting
// reserves. The first deposit into an empty pool is priced by the geometric
// mean; later deposits by the scarcer side's proportion.
func planDeposit(pool model.Pool, supply, amountA, amountB, minShares uint64) (depositPlan, error) {
	if amountA == 0 || amountB == 0 {
		return depositPlan{}, model.ErrInvalidAmount.Wrap("both deposit amounts must be positive")
	}

	var (
		minted uint64
		err    error
	)
	if pool.Empty() {
		if supply != 0 {
			return depositPlan{}, model.ErrInsufficientLiquidity.Wrapf("empty pool %s has %d LP shares outstanding", pool.Address.Hex(), supply)
		}
		minted, err = amm.InitialShares(amountA, amountB)
	} else {
		minted, err = amm.DepositShares(amountA, amountB, pool.ReserveA, pool.ReserveB, supply)
	}
	if err != nil {
		return depositPlan{}, err
	}
	if minted == 0 {
		return depositPlan{}, model.ErrInvalidAmount.Wrap("deposit too small to mint any shares")
	}
	if minted < minShares {
		return depositPlan{}, model.ErrSlippageExceeded.Wrapf("would mint %d shares, minimum %d", minted, minShares)
	}

	plan := depositPlan{minted: minted}
	if plan.reserveA, err = amm.Add(pool.ReserveA, amountA); err != nil {
		return depositPlan{}, err
	}
	if plan.reserveB, err = amm.Add(pool.ReserveB, amountB); err != nil {
		return depositPlan{}, err
	}
	if _, err = amm.Add(supply, minted); err != nil {
		return depositPlan{}, err
	}
	return plan, nil
}

type withdrawPlan struct {
	amountA  uint64
	amountB  uint64
	reserveA uint64
	reserveB uint64
}

// planWithdraw computes the amounts paid out for burning shares. The caller's
// share balance is checked separately.
func planWithdraw(pool model.Pool, supply, shares, minA, minB uint64) (withdrawPlan, error) {
	if shares == 0 {
		return withdrawPlan{}, model.ErrInvalidAmount.Wrap("LP token amount must be positive")
	}
	amountA, amountB, err := amm.RedeemAmounts(shares, pool.ReserveA, pool.ReserveB, supply)
	if err != nil {
		return withdrawPlan{}, err
	}
	if amountA < minA || amountB < minB {
		return withdrawPlan{}, model.ErrSlippageExceeded.Wrapf("would pay (%d, %d), minimum (%d, %d)", amountA, amountB, minA, minB)
	}
	plan := withdrawPlan{amountA: amountA, amountB: amountB}
	if plan.reserveA, err = amm.Sub(pool.ReserveA, amountA); err != nil {
		return withdrawPlan{}, err
	}
	if plan.reserveB, err = amm.Sub(pool.ReserveB, amountB); err != nil {
		return withdrawPlan{}, err
	}
	return plan, nil
}

// AddLiquidity moves both deposit amounts from the user into the pool vaults
// and mints LP shares to the user.
func (e *Engine) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (model.LiquidityAdded, error) {
	if err := derive.ValidateIdentity(req.User); err != nil {
		e.observeFailure(model.OpAddLiquidity, err)
		return model.LiquidityAdded{}, err
	}
	event, err := e.execute(ctx, model.OpAddLiquidity, req.TokenA, req.TokenB, func(ctx context.Context, tx storage.Tx) (model.Event, *model.PoolView, error) {
		pool, err := e.loadPool(ctx, tx, req.TokenA, req.TokenB)
		if err != nil {
			return nil, nil, err
		}
		if err := checkVaults(ctx, tx, pool); err != nil {
			return nil, nil, err
		}
		ledger := custody.NewLedger(tx)
		supply, err := ledger.Supply(ctx, pool.LPTokenMint)
		if err != nil {
			return nil, nil, err
		}
		plan, err := planDeposit(pool, supply, req.AmountA, req.AmountB, req.MinLPTokensOut)
		if err != nil {
			return nil, nil, err
		}
		authority, err := e.signer(pool)
		if err != nil {
			return nil, nil, err
		}

		userA := derive.AssociatedAccount(req.User, pool.TokenAMint)
		userB := derive.AssociatedAccount(req.User, pool.TokenBMint)
		if err := ledger.Transfer(ctx, userA, pool.TokenAVault, req.AmountA, req.User); err != nil {
			return nil, nil, err
		}
		if err := ledger.Transfer(ctx, userB, pool.TokenBVault, req.AmountB, req.User); err != nil {
			return nil, nil, err
		}
		userLP, err := ledger.EnsureAssociatedAccount(ctx, req.User, pool.LPTokenMint)
		if err != nil {
			return nil, nil, err
		}
		if err := ledger.MintTo(ctx, pool.LPTokenMint, userLP, plan.minted, authority); err != nil {
			return nil, nil, err
		}

		pool.ReserveA, pool.ReserveB = plan.reserveA, plan.reserveB
		if err := tx.PutPool(ctx, pool); err != nil {
			return nil, nil, err
		}
		return model.LiquidityAdded{
			Pool:     pool.Address,
			User:     req.User,
			AmountA:  req.AmountA,
			AmountB:  req.AmountB,
			LPTokens: plan.minted,
		}, &model.PoolView{Pool: pool, LPSupply: supply + plan.minted}, nil
	})
	if err != nil {
		return model.LiquidityAdded{}, err
	}
	return event.(model.LiquidityAdded), nil
}

// RemoveLiquidity burns the user's LP shares and pays out the proportional
// part of both reserves. Burning the whole supply returns the pool to its
// empty state.
func (e *Engine) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (model.LiquidityRemoved, error) {
	if err := derive.ValidateIdentity(req.User); err != nil {
		e.observeFailure(model.OpRemoveLiquidity, err)
		return model.LiquidityRemoved{}, err
	}
	event, err := e.execute(ctx, model.OpRemoveLiquidity, req.TokenA, req.TokenB, func(ctx context.Context, tx storage.Tx) (model.Event, *model.PoolView, error) {
		pool, err := e.loadPool(ctx, tx, req.TokenA, req.TokenB)
		if err != nil {
			return nil, nil, err
		}
		if err := checkVaults(ctx, tx, pool); err != nil {
			return nil, nil, err
		}
		ledger := custody.NewLedger(tx)
		supply, err := ledger.Supply(ctx, pool.LPTokenMint)
		if err != nil {
			return nil, nil, err
		}
		if req.LPTokenAmount == 0 {
			return nil, nil, model.ErrInvalidAmount.Wrap("LP token amount must be positive")
		}
		held, err := ledger.Balance(ctx, req.User, pool.LPTokenMint)
		if err != nil {
			return nil, nil, err
		}
		if req.LPTokenAmount > held {
			return nil, nil, model.ErrInsufficientLiquidity.Wrapf("user holds %d LP shares, redeems %d", held, req.LPTokenAmount)
		}
		plan, err := planWithdraw(pool, supply, req.LPTokenAmount, req.MinAmountA, req.MinAmountB)
		if err != nil {
			return nil, nil, err
		}
		authority, err := e.signer(pool)
		if err != nil {
			return nil, nil, err
		}

		userLP := derive.AssociatedAccount(req.User, pool.LPTokenMint)
		if err := ledger.Burn(ctx, pool.LPTokenMint, userLP, req.LPTokenAmount, req.User); err != nil {
			return nil, nil, err
		}
		userA, err := ledger.EnsureAssociatedAccount(ctx, req.User, pool.TokenAMint)
		if err != nil {
			return nil, nil, err
		}
		userB, err := ledger.EnsureAssociatedAccount(ctx, req.User, pool.TokenBMint)
		if err != nil {
			return nil, nil, err
		}
		if err := ledger.Transfer(ctx, pool.TokenAVault, userA, plan.amountA, authority); err != nil {
			return nil, nil, err
		}
		if err := ledger.Transfer(ctx, pool.TokenBVault, userB, plan.amountB, authority); err != nil {
			return nil, nil, err
		}

		pool.ReserveA, pool.ReserveB = plan.reserveA, plan.reserveB
		if err := tx.PutPool(ctx, pool); err != nil {
			return nil, nil, err
		}
		return model.LiquidityRemoved{
			Pool:           pool.Address,
			User:           req.User,
			AmountA:        plan.amountA,
			AmountB:        plan.amountB,
			LPTokensBurned: req.LPTokenAmount,
		}, &model.PoolView{Pool: pool, LPSupply: supply - req.LPTokenAmount}, nil
	})
	if err != nil {
		return model.LiquidityRemoved{}, err
	}
	return event.(model.LiquidityRemoved), nil
}
