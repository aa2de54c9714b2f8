package engine

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/amm"
	"pairSwap/internal/custody"
	"pairSwap/internal/derive"
	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

// InitializePool creates the pool for (tokenA, tokenB) with empty reserves,
// its two vaults and its LP mint. The order of the mints is part of the
// pool's identity; the reversed pair is rejected once either exists.
func (e *Engine) InitializePool(ctx context.Context, tokenA, tokenB common.Address) (model.PoolInitialized, error) {
	if err := validatePair(tokenA, tokenB); err != nil {
		e.observeFailure(model.OpInitialize, err)
		return model.PoolInitialized{}, err
	}
	if err := amm.ValidateFee(e.cfg.FeeNumerator); err != nil {
		e.observeFailure(model.OpInitialize, err)
		return model.PoolInitialized{}, err
	}

	event, err := e.execute(ctx, model.OpInitialize, tokenA, tokenB, func(ctx context.Context, tx storage.Tx) (model.Event, *model.PoolView, error) {
		accounts, err := e.deriver.PoolAccounts(tokenA, tokenB)
		if err != nil {
			return nil, nil, err
		}
		reverse, err := e.deriver.PoolAddress(tokenB, tokenA)
		if err != nil {
			return nil, nil, err
		}
		for _, address := range []common.Address{accounts.Pool, reverse} {
			if _, err := tx.Pool(ctx, address); err == nil {
				return nil, nil, model.ErrPoolAlreadyExists.Wrapf("pool %s", address.Hex())
			} else if !errors.Is(err, model.ErrPoolNotFound) {
				return nil, nil, err
			}
		}
		for _, mint := range []common.Address{tokenA, tokenB} {
			if _, err := tx.Mint(ctx, mint); err != nil {
				return nil, nil, err
			}
		}

		ledger := custody.NewLedger(tx)
		if err := ledger.CreateAccount(ctx, accounts.TokenAVault, tokenA, accounts.Authority); err != nil {
			return nil, nil, err
		}
		if err := ledger.CreateAccount(ctx, accounts.TokenBVault, tokenB, accounts.Authority); err != nil {
			return nil, nil, err
		}
		if err := ledger.CreateMint(ctx, accounts.LPTokenMint, accounts.Authority); err != nil {
			return nil, nil, err
		}

		pool := model.Pool{
			Address:       accounts.Pool,
			Authority:     accounts.Authority,
			TokenAMint:    tokenA,
			TokenBMint:    tokenB,
			TokenAVault:   accounts.TokenAVault,
			TokenBVault:   accounts.TokenBVault,
			LPTokenMint:   accounts.LPTokenMint,
			FeeNumerator:  e.cfg.FeeNumerator,
			AuthorityBump: accounts.AuthorityBump,
		}
		if err := tx.CreatePool(ctx, pool); err != nil {
			return nil, nil, err
		}
		return model.PoolInitialized{
			Pool:        pool.Address,
			TokenAMint:  tokenA,
			TokenBMint:  tokenB,
			LPTokenMint: pool.LPTokenMint,
		}, &model.PoolView{Pool: pool}, nil
	})
	if err != nil {
		return model.PoolInitialized{}, err
	}
	return event.(model.PoolInitialized), nil
}

func validatePair(tokenA, tokenB common.Address) error {
	if err := derive.ValidateIdentity(tokenA); err != nil {
		return err
	}
	if err := derive.ValidateIdentity(tokenB); err != nil {
		return err
	}
	if tokenA == tokenB {
		return model.ErrInvalidTokenPair.Wrapf("mint %s", tokenA.Hex())
	}
	return nil
}
