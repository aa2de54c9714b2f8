package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

func TestAtomicCommits(t *testing.T) {
	ctx := context.Background()
	b := New()
	pool := model.Pool{Address: common.HexToAddress("0x01"), ReserveA: 5}

	require.NoError(t, b.Atomic(ctx, func(tx storage.Tx) error {
		return tx.PutPool(ctx, pool)
	}))

	require.NoError(t, b.View(ctx, func(tx storage.Tx) error {
		got, err := tx.Pool(ctx, pool.Address)
		require.NoError(t, err)
		require.Equal(t, pool, got)
		return nil
	}))
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	b := New()
	addr := common.HexToAddress("0x02")
	account := model.TokenAccount{Address: addr, Balance: 10}

	require.NoError(t, b.Atomic(ctx, func(tx storage.Tx) error {
		return tx.PutAccount(ctx, account)
	}))

	boom := errors.New("boom")
	err := b.Atomic(ctx, func(tx storage.Tx) error {
		updated := account
		updated.Balance = 99
		require.NoError(t, tx.PutAccount(ctx, updated))
		require.NoError(t, tx.PutMint(ctx, model.Mint{Address: common.HexToAddress("0x03")}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, b.View(ctx, func(tx storage.Tx) error {
		got, err := tx.Account(ctx, addr)
		require.NoError(t, err)
		require.Equal(t, uint64(10), got.Balance)

		_, err = tx.Mint(ctx, common.HexToAddress("0x03"))
		require.ErrorIs(t, err, model.ErrMintNotFound)
		return nil
	}))
}

func TestAtomicRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	b := New()
	addr := common.HexToAddress("0x04")

	require.Panics(t, func() {
		_ = b.Atomic(ctx, func(tx storage.Tx) error {
			require.NoError(t, tx.PutPool(ctx, model.Pool{Address: addr}))
			panic("unexpected")
		})
	})

	require.NoError(t, b.View(ctx, func(tx storage.Tx) error {
		_, err := tx.Pool(ctx, addr)
		require.ErrorIs(t, err, model.ErrPoolNotFound)
		return nil
	}))
}

func TestViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	b := New()
	err := b.View(ctx, func(tx storage.Tx) error {
		return tx.PutPool(ctx, model.Pool{})
	})
	require.Error(t, err)
}

func TestPoolsSortedByAddress(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.Atomic(ctx, func(tx storage.Tx) error {
		for _, hex := range []string{"0x03", "0x01", "0x02"} {
			if err := tx.PutPool(ctx, model.Pool{Address: common.HexToAddress(hex)}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, b.View(ctx, func(tx storage.Tx) error {
		pools, err := tx.Pools(ctx)
		require.NoError(t, err)
		require.Len(t, pools, 3)
		require.Equal(t, common.HexToAddress("0x01"), pools[0].Address)
		require.Equal(t, common.HexToAddress("0x03"), pools[2].Address)
		return nil
	}))
}

func TestCreateRejectsExisting(t *testing.T) {
	ctx := context.Background()
	b := New()
	pool := model.Pool{Address: common.HexToAddress("0x05")}
	mint := model.Mint{Address: common.HexToAddress("0x06")}
	account := model.TokenAccount{Address: common.HexToAddress("0x07"), Balance: 3}

	create := func() error {
		return b.Atomic(ctx, func(tx storage.Tx) error {
			if err := tx.CreatePool(ctx, pool); err != nil {
				return err
			}
			if err := tx.CreateMint(ctx, mint); err != nil {
				return err
			}
			return tx.CreateAccount(ctx, account)
		})
	}
	require.NoError(t, create())
	require.ErrorIs(t, create(), model.ErrPoolAlreadyExists)

	err := b.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreateMint(ctx, mint)
	})
	require.ErrorIs(t, err, model.ErrAccountExists)

	err = b.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreateAccount(ctx, model.TokenAccount{Address: account.Address})
	})
	require.ErrorIs(t, err, model.ErrAccountExists)

	require.NoError(t, b.View(ctx, func(tx storage.Tx) error {
		got, err := tx.Account(ctx, account.Address)
		require.NoError(t, err)
		require.Equal(t, uint64(3), got.Balance)
		return nil
	}))
}

func TestViewsShareTheLock(t *testing.T) {
	ctx := context.Background()
	b := New()
	pool := model.Pool{Address: common.HexToAddress("0x08"), ReserveA: 9}
	require.NoError(t, b.Atomic(ctx, func(tx storage.Tx) error {
		return tx.PutPool(ctx, pool)
	}))

	done := make(chan error, 1)
	require.NoError(t, b.View(ctx, func(storage.Tx) error {
		go func() {
			done <- b.View(ctx, func(tx storage.Tx) error {
				_, err := tx.Pool(ctx, pool.Address)
				return err
			})
		}()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("nested view blocked behind an open view")
		}
	}))
}
