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

// SwapRequest exchanges AmountIn of one side for the other. IsAToB selects
// the direction relative to the pool's (TokenA, TokenB) order.
type SwapRequest struct {
	User         common.Address
	TokenA       common.Address
	TokenB       common.Address
	AmountIn     uint64
	MinAmountOut uint64
	IsAToB       bool
}

type swapPlan struct {
	amountOut  uint64
	reserveIn  uint64
	reserveOut uint64
}

// planSwap prices a swap and checks that the constant product does not
// decrease.
func planSwap(pool model.Pool, amountIn, minOut uint64, isAToB bool) (swapPlan, error) {
	if amountIn == 0 {
		return swapPlan{}, model.ErrInvalidAmount.Wrap("swap amount must be positive")
	}
	reserveIn, reserveOut := pool.Reserves(isAToB)
	if reserveIn == 0 || reserveOut == 0 {
		return swapPlan{}, model.ErrZeroReserves.Wrapf("pool %s", pool.Address.Hex())
	}
	out, err := amm.SwapOut(amountIn, reserveIn, reserveOut, pool.FeeNumerator)
	if err != nil {
		return swapPlan{}, err
	}
	if out < minOut {
		return swapPlan{}, model.ErrSlippageExceeded.Wrapf("would receive %d, minimum %d", out, minOut)
	}
	plan := swapPlan{amountOut: out}
	if plan.reserveIn, err = amm.Add(reserveIn, amountIn); err != nil {
		return swapPlan{}, err
	}
	if plan.reserveOut, err = amm.Sub(reserveOut, out); err != nil {
		return swapPlan{}, err
	}
	if !amm.ProductNonDecreasing(reserveIn, reserveOut, plan.reserveIn, plan.reserveOut) {
		return swapPlan{}, model.ErrInsufficientLiquidity.Wrap("swap would decrease the constant product")
	}
	return plan, nil
}

// Swap takes AmountIn from the user into the input vault and pays the priced
// output from the other vault.
func (e *Engine) Swap(ctx context.Context, req SwapRequest) (model.SwapExecuted, error) {
	if err := derive.ValidateIdentity(req.User); err != nil {
		e.observeFailure(model.OpSwap, err)
		return model.SwapExecuted{}, err
	}
	event, err := e.execute(ctx, model.OpSwap, req.TokenA, req.TokenB, func(ctx context.Context, tx storage.Tx) (model.Event, *model.PoolView, error) {
		pool, err := e.loadPool(ctx, tx, req.TokenA, req.TokenB)
		if err != nil {
			return nil, nil, err
		}
		if err := checkVaults(ctx, tx, pool); err != nil {
			return nil, nil, err
		}
		plan, err := planSwap(pool, req.AmountIn, req.MinAmountOut, req.IsAToB)
		if err != nil {
			return nil, nil, err
		}
		authority, err := e.signer(pool)
		if err != nil {
			return nil, nil, err
		}

		ledger := custody.NewLedger(tx)
		vaultIn, vaultOut := pool.Vaults(req.IsAToB)
		mintIn, mintOut := pool.Mints(req.IsAToB)
		src := derive.AssociatedAccount(req.User, mintIn)
		if err := ledger.Transfer(ctx, src, vaultIn, req.AmountIn, req.User); err != nil {
			return nil, nil, err
		}
		dst, err := ledger.EnsureAssociatedAccount(ctx, req.User, mintOut)
		if err != nil {
			return nil, nil, err
		}
		if err := ledger.Transfer(ctx, vaultOut, dst, plan.amountOut, authority); err != nil {
			return nil, nil, err
		}

		if req.IsAToB {
			pool.ReserveA, pool.ReserveB = plan.reserveIn, plan.reserveOut
		} else {
			pool.ReserveB, pool.ReserveA = plan.reserveIn, plan.reserveOut
		}
		if err := tx.PutPool(ctx, pool); err != nil {
			return nil, nil, err
		}
		v, err := view(ctx, ledger, pool)
		if err != nil {
			return nil, nil, err
		}
		return model.SwapExecuted{
			Pool:      pool.Address,
			User:      req.User,
			AmountIn:  req.AmountIn,
			AmountOut: plan.amountOut,
			IsAToB:    req.IsAToB,
		}, v, nil
	})
	if err != nil {
		return model.SwapExecuted{}, err
	}
	swap := event.(model.SwapExecuted)
	e.metrics.ObserveSwap(swap.Pool.Hex(), swap.IsAToB, swap.AmountIn)
	return swap, nil
}
