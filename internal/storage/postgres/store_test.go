package postgres

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("PAIRSWAP_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("PAIRSWAP_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.EnsureSchema(ctx))
	_, err = store.pool.Exec(ctx, `TRUNCATE pools, mints, token_accounts`)
	require.NoError(t, err)
	return store
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.Error(t, err)
}

func TestStorePoolRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	pool := model.Pool{
		Address:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Authority:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		TokenAMint:    common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		TokenBMint:    common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		TokenAVault:   common.HexToAddress("0x3333333333333333333333333333333333333333"),
		TokenBVault:   common.HexToAddress("0x4444444444444444444444444444444444444444"),
		LPTokenMint:   common.HexToAddress("0x5555555555555555555555555555555555555555"),
		ReserveA:      math.MaxUint64,
		ReserveB:      7,
		FeeNumerator:  30,
		AuthorityBump: 254,
	}

	require.NoError(t, store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.PutPool(ctx, pool)
	}))

	require.NoError(t, store.View(ctx, func(tx storage.Tx) error {
		got, err := tx.Pool(ctx, pool.Address)
		require.NoError(t, err)
		require.Equal(t, pool, got)
		return nil
	}))
}

func TestStoreAtomicRollback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	account := model.TokenAccount{
		Address: common.HexToAddress("0x6666666666666666666666666666666666666666"),
		Mint:    common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Owner:   common.HexToAddress("0x7777777777777777777777777777777777777777"),
		Balance: 10,
	}
	require.NoError(t, store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.PutAccount(ctx, account)
	}))

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(tx storage.Tx) error {
		updated := account
		updated.Balance = 0
		require.NoError(t, tx.PutAccount(ctx, updated))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, store.View(ctx, func(tx storage.Tx) error {
		got, err := tx.Account(ctx, account.Address)
		require.NoError(t, err)
		require.Equal(t, uint64(10), got.Balance)

		_, err = tx.Mint(ctx, account.Mint)
		require.ErrorIs(t, err, model.ErrMintNotFound)
		return nil
	}))
}

func TestStoreCreateRejectsExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	pool := model.Pool{
		Address:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenAMint:  common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		TokenBMint:  common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		LPTokenMint: common.HexToAddress("0x5555555555555555555555555555555555555555"),
	}
	require.NoError(t, store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreatePool(ctx, pool)
	}))

	err := store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreatePool(ctx, pool)
	})
	require.ErrorIs(t, err, model.ErrPoolAlreadyExists)

	reversed := pool
	reversed.Address = common.HexToAddress("0x8888888888888888888888888888888888888888")
	reversed.TokenAMint, reversed.TokenBMint = pool.TokenBMint, pool.TokenAMint
	err = store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreatePool(ctx, reversed)
	})
	require.ErrorIs(t, err, model.ErrPoolAlreadyExists)

	mint := model.Mint{Address: pool.LPTokenMint, Authority: pool.Authority}
	account := model.TokenAccount{Address: pool.TokenAVault, Mint: pool.TokenAMint, Owner: pool.Authority}
	require.NoError(t, store.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.CreateMint(ctx, mint); err != nil {
			return err
		}
		return tx.CreateAccount(ctx, account)
	}))
	err = store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreateMint(ctx, mint)
	})
	require.ErrorIs(t, err, model.ErrAccountExists)
	err = store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreateAccount(ctx, account)
	})
	require.ErrorIs(t, err, model.ErrAccountExists)
}
