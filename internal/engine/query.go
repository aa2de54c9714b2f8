package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/custody"
	"pairSwap/internal/metrics"
	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

// Pool returns the committed state of the (tokenA, tokenB) pool.
func (e *Engine) Pool(ctx context.Context, tokenA, tokenB common.Address) (model.PoolView, error) {
	var out model.PoolView
	err := e.backend.View(ctx, func(tx storage.Tx) error {
		pool, err := e.loadPool(ctx, tx, tokenA, tokenB)
		if err != nil {
			return err
		}
		v, err := view(ctx, custody.NewLedger(tx), pool)
		if err != nil {
			return err
		}
		out = *v
		return nil
	})
	return out, err
}

// PoolByAddress returns the committed state of the pool stored at address.
func (e *Engine) PoolByAddress(ctx context.Context, address common.Address) (model.PoolView, error) {
	var out model.PoolView
	err := e.backend.View(ctx, func(tx storage.Tx) error {
		pool, err := tx.Pool(ctx, address)
		if err != nil {
			return err
		}
		v, err := view(ctx, custody.NewLedger(tx), pool)
		if err != nil {
			return err
		}
		out = *v
		return nil
	})
	return out, err
}

// Pools lists every pool ordered by address.
func (e *Engine) Pools(ctx context.Context) ([]model.PoolView, error) {
	var out []model.PoolView
	err := e.backend.View(ctx, func(tx storage.Tx) error {
		pools, err := tx.Pools(ctx)
		if err != nil {
			return err
		}
		ledger := custody.NewLedger(tx)
		out = make([]model.PoolView, 0, len(pools))
		for _, pool := range pools {
			v, err := view(ctx, ledger, pool)
			if err != nil {
				return err
			}
			out = append(out, *v)
		}
		return nil
	})
	return out, err
}

// Balance returns owner's holding of mint.
func (e *Engine) Balance(ctx context.Context, owner, mint common.Address) (uint64, error) {
	var out uint64
	err := e.backend.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = custody.NewLedger(tx).Balance(ctx, owner, mint)
		return err
	})
	return out, err
}

// Fund issues amount of mint to owner, creating the mint under authority
// when it does not exist yet.
func (e *Engine) Fund(ctx context.Context, mint, authority, owner common.Address, amount uint64) error {
	err := e.backend.Atomic(ctx, func(tx storage.Tx) error {
		if err := guardPoolAccounts(ctx, tx, mint, authority); err != nil {
			return err
		}
		return custody.NewLedger(tx).Fund(ctx, mint, authority, owner, amount)
	})
	if err != nil {
		e.observeFailure(model.OpFund, err)
		return err
	}
	e.metrics.ObserveOperation(model.OpFund, metrics.StatusOK)
	return nil
}

// QuoteSwap prices a swap against committed reserves without executing it.
func (e *Engine) QuoteSwap(ctx context.Context, tokenA, tokenB common.Address, amountIn uint64, isAToB bool) (uint64, error) {
	var out uint64
	err := e.backend.View(ctx, func(tx storage.Tx) error {
		pool, err := e.loadPool(ctx, tx, tokenA, tokenB)
		if err != nil {
			return err
		}
		plan, err := planSwap(pool, amountIn, 0, isAToB)
		if err != nil {
			return err
		}
		out = plan.amountOut
		return nil
	})
	return out, err
}

// QuoteAddLiquidity returns the LP shares a deposit would mint.
func (e *Engine) QuoteAddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB uint64) (uint64, error) {
	var out uint64
	err := e.backend.View(ctx, func(tx storage.Tx) error {
		pool, err := e.loadPool(ctx, tx, tokenA, tokenB)
		if err != nil {
			return err
		}
		supply, err := custody.NewLedger(tx).Supply(ctx, pool.LPTokenMint)
		if err != nil {
			return err
		}
		plan, err := planDeposit(pool, supply, amountA, amountB, 0)
		if err != nil {
			return err
		}
		out = plan.minted
		return nil
	})
	return out, err
}

// QuoteRemoveLiquidity returns the amounts burning shares would pay out.
func (e *Engine) QuoteRemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, shares uint64) (uint64, uint64, error) {
	var amountA, amountB uint64
	err := e.backend.View(ctx, func(tx storage.Tx) error {
		pool, err := e.loadPool(ctx, tx, tokenA, tokenB)
		if err != nil {
			return err
		}
		supply, err := custody.NewLedger(tx).Supply(ctx, pool.LPTokenMint)
		if err != nil {
			return err
		}
		plan, err := planWithdraw(pool, supply, shares, 0, 0)
		if err != nil {
			return err
		}
		amountA, amountB = plan.amountA, plan.amountB
		return nil
	})
	return amountA, amountB, err
}

// guardPoolAccounts keeps Fund away from accounts a pool owns. Only the
// engine signs for a pool authority.
func guardPoolAccounts(ctx context.Context, tx storage.Tx, mint, authority common.Address) error {
	pools, err := tx.Pools(ctx)
	if err != nil {
		return err
	}
	for _, p := range pools {
		switch {
		case authority == p.Authority:
			return model.ErrUnauthorized.Wrapf("%s is the authority of pool %s", authority.Hex(), p.Address.Hex())
		case mint == p.LPTokenMint:
			return model.ErrUnauthorized.Wrapf("%s is the LP mint of pool %s", mint.Hex(), p.Address.Hex())
		case mint == p.TokenAVault, mint == p.TokenBVault, mint == p.Address:
			return model.ErrAccountExists.Wrapf("%s belongs to pool %s", mint.Hex(), p.Address.Hex())
		}
	}
	return nil
}
