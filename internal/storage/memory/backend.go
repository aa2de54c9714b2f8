// Package memory is an in-process storage backend. A single lock guards the
// whole state, since user token accounts are shared across pools. A
// transaction keeps an undo log and replays it when the unit of work fails.
package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

var errReadOnly = errors.New("write in read-only transaction")

// Backend holds pools, token accounts, and mints in maps.
type Backend struct {
	mu       sync.RWMutex
	pools    map[common.Address]model.Pool
	accounts map[common.Address]model.TokenAccount
	mints    map[common.Address]model.Mint
}

var _ storage.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		pools:    make(map[common.Address]model.Pool),
		accounts: make(map[common.Address]model.TokenAccount),
		mints:    make(map[common.Address]model.Mint),
	}
}

// Atomic runs fn under the write lock. Any error, or a panic, reverts
// every write fn made.
func (b *Backend) Atomic(ctx context.Context, fn func(storage.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t := &tx{b: b, writable: true}
	defer func() {
		if r := recover(); r != nil {
			t.rollback()
			panic(r)
		}
		if err != nil {
			t.rollback()
		}
	}()

	return fn(t)
}

// View runs fn under the read lock.
func (b *Backend) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	return fn(&tx{b: b})
}

func (b *Backend) Close() {}

type tx struct {
	b        *Backend
	writable bool
	undo     []func()
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *tx) Pool(_ context.Context, address common.Address) (model.Pool, error) {
	pool, ok := t.b.pools[address]
	if !ok {
		return model.Pool{}, model.ErrPoolNotFound.Wrapf("pool %s", address.Hex())
	}
	return pool, nil
}

func (t *tx) Pools(_ context.Context) ([]model.Pool, error) {
	out := make([]model.Pool, 0, len(t.b.pools))
	for _, pool := range t.b.pools {
		out = append(out, pool)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address.Bytes(), out[j].Address.Bytes()) < 0
	})
	return out, nil
}

func (t *tx) CreatePool(ctx context.Context, pool model.Pool) error {
	if _, ok := t.b.pools[pool.Address]; ok {
		return model.ErrPoolAlreadyExists.Wrapf("pool %s", pool.Address.Hex())
	}
	return t.PutPool(ctx, pool)
}

func (t *tx) PutPool(_ context.Context, pool model.Pool) error {
	if !t.writable {
		return errReadOnly
	}
	prev, existed := t.b.pools[pool.Address]
	t.undo = append(t.undo, func() {
		if existed {
			t.b.pools[pool.Address] = prev
		} else {
			delete(t.b.pools, pool.Address)
		}
	})
	t.b.pools[pool.Address] = pool
	return nil
}

func (t *tx) Account(_ context.Context, address common.Address) (model.TokenAccount, error) {
	account, ok := t.b.accounts[address]
	if !ok {
		return model.TokenAccount{}, model.ErrAccountNotFound.Wrapf("account %s", address.Hex())
	}
	return account, nil
}

func (t *tx) CreateAccount(ctx context.Context, account model.TokenAccount) error {
	if _, ok := t.b.accounts[account.Address]; ok {
		return model.ErrAccountExists.Wrapf("account %s", account.Address.Hex())
	}
	return t.PutAccount(ctx, account)
}

func (t *tx) PutAccount(_ context.Context, account model.TokenAccount) error {
	if !t.writable {
		return errReadOnly
	}
	prev, existed := t.b.accounts[account.Address]
	t.undo = append(t.undo, func() {
		if existed {
			t.b.accounts[account.Address] = prev
		} else {
			delete(t.b.accounts, account.Address)
		}
	})
	t.b.accounts[account.Address] = account
	return nil
}

func (t *tx) Mint(_ context.Context, address common.Address) (model.Mint, error) {
	mint, ok := t.b.mints[address]
	if !ok {
		return model.Mint{}, model.ErrMintNotFound.Wrapf("mint %s", address.Hex())
	}
	return mint, nil
}

func (t *tx) CreateMint(ctx context.Context, mint model.Mint) error {
	if _, ok := t.b.mints[mint.Address]; ok {
		return model.ErrAccountExists.Wrapf("mint %s", mint.Address.Hex())
	}
	return t.PutMint(ctx, mint)
}

func (t *tx) PutMint(_ context.Context, mint model.Mint) error {
	if !t.writable {
		return errReadOnly
	}
	prev, existed := t.b.mints[mint.Address]
	t.undo = append(t.undo, func() {
		if existed {
			t.b.mints[mint.Address] = prev
		} else {
			delete(t.b.mints, mint.Address)
		}
	})
	t.b.mints[mint.Address] = mint
	return nil
}
