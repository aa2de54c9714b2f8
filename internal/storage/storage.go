package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/model"
)

// Tx is one unit of work over pool records and custody state. Writes made
// through a Tx become visible together when the enclosing Atomic call
// returns nil, and are discarded otherwise.
//
// Create* insert a record only when none exists at its address and fail with
// ErrPoolAlreadyExists or ErrAccountExists otherwise, even against a
// concurrent transaction. Put* overwrite the mutable fields of a record.
type Tx interface {
	Pool(ctx context.Context, address common.Address) (model.Pool, error)
	Pools(ctx context.Context) ([]model.Pool, error)
	CreatePool(ctx context.Context, pool model.Pool) error
	PutPool(ctx context.Context, pool model.Pool) error

	Account(ctx context.Context, address common.Address) (model.TokenAccount, error)
	CreateAccount(ctx context.Context, account model.TokenAccount) error
	PutAccount(ctx context.Context, account model.TokenAccount) error

	Mint(ctx context.Context, address common.Address) (model.Mint, error)
	CreateMint(ctx context.Context, mint model.Mint) error
	PutMint(ctx context.Context, mint model.Mint) error
}

// Backend runs transactions against a pool record store.
type Backend interface {
	// Atomic runs fn in a read-write transaction. Operations against the
	// same pool are serialized.
	Atomic(ctx context.Context, fn func(Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error
	Close()
}

// Sink defines a consumer of committed event records.
type Sink interface {
	PutEventBatch(records []model.EventRecord) error
}
