// Package engine implements the pool lifecycle: initialization, liquidity
// provision and withdrawal, and swaps. Each operation runs as one storage
// transaction; on any error nothing it touched is persisted and no event is
// published.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairSwap/internal/amm"
	"pairSwap/internal/custody"
	"pairSwap/internal/derive"
	"pairSwap/internal/metrics"
	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

// Config holds engine settings.
type Config struct {
	ProgramID    common.Address
	FeeNumerator uint64
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{ProgramID: derive.DefaultProgramID, FeeNumerator: amm.DefaultFeeNumerator}
}

// Engine executes pool operations against a storage backend.
type Engine struct {
	cfg     Config
	backend storage.Backend
	deriver derive.Deriver
	sink    storage.Sink
	metrics *metrics.EngineMetrics
	logger  *zap.Logger
	now     func() time.Time

	seq   atomic.Uint64
	locks sync.Map
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSink publishes committed events to sink.
func WithSink(sink storage.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithMetrics records operation outcomes and pool gauges.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithStartSeq makes the next published event carry seq+1.
func WithStartSeq(seq uint64) Option {
	return func(e *Engine) { e.seq.Store(seq) }
}

// New builds an Engine over backend.
func New(cfg Config, backend storage.Backend, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("storage backend is nil")
	}
	if err := amm.ValidateFee(cfg.FeeNumerator); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		backend: backend,
		deriver: derive.NewDeriver(cfg.ProgramID),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Deriver returns the address deriver bound to the engine's program id.
func (e *Engine) Deriver() derive.Deriver {
	return e.deriver
}

// FeeNumerator returns the fee applied to newly initialized pools.
func (e *Engine) FeeNumerator() uint64 {
	return e.cfg.FeeNumerator
}

// LastSeq returns the sequence number of the most recently published event.
func (e *Engine) LastSeq() uint64 {
	return e.seq.Load()
}

// mutation is the body of one state-changing operation. It returns the event
// to publish and the pool whose gauges should be refreshed.
type mutation func(ctx context.Context, tx storage.Tx) (model.Event, *model.PoolView, error)

// execute runs fn atomically under the pair lock, then publishes its event.
func (e *Engine) execute(ctx context.Context, op string, tokenA, tokenB common.Address, fn mutation) (model.Event, error) {
	unlock := e.lockPair(tokenA, tokenB)
	defer unlock()

	var (
		event model.Event
		view  *model.PoolView
	)
	err := e.backend.Atomic(ctx, func(tx storage.Tx) error {
		var err error
		event, view, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		e.observeFailure(op, err)
		return nil, err
	}

	e.logger.Info("operation committed",
		zap.String("op", op),
		zap.String("pool", event.PoolAddress().Hex()),
		zap.Any("event", event),
	)
	e.metrics.ObserveOperation(op, metrics.StatusOK)
	if view != nil {
		e.metrics.ObservePool(view.Address.Hex(), view.ReserveA, view.ReserveB, view.LPSupply)
	}
	e.publish(event)
	return event, nil
}

func (e *Engine) observeFailure(op string, err error) {
	if _, ok := model.Classify(err); ok {
		e.metrics.ObserveOperation(op, metrics.StatusRejected)
		e.logger.Debug("operation rejected", zap.String("op", op), zap.Error(err))
		return
	}
	e.metrics.ObserveOperation(op, metrics.StatusError)
	e.logger.Warn("operation failed", zap.String("op", op), zap.Error(err))
}

// publish assigns the next sequence number and hands the record to the sink.
// Sink failures never undo a committed operation.
func (e *Engine) publish(event model.Event) {
	seq := e.seq.Add(1)
	record, err := model.NewEventRecord(seq, event, e.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		e.logger.Error("encode event", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	e.logger.Debug("event",
		zap.Uint64("seq", seq),
		zap.String("event", record.EventName),
		zap.String("pool", record.Pool),
	)
	if e.sink == nil {
		return
	}
	if err := e.sink.PutEventBatch([]model.EventRecord{record}); err != nil {
		e.logger.Warn("publish event", zap.Uint64("seq", seq), zap.Error(err))
	}
}

// lockPair serializes operations on one unordered mint pair inside this
// process. Both orderings share a lock so that concurrent initialization of
// (A, B) and (B, A) cannot both succeed.
func (e *Engine) lockPair(tokenA, tokenB common.Address) func() {
	key := pairKey(tokenA, tokenB)
	v, _ := e.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func pairKey(tokenA, tokenB common.Address) [2 * common.AddressLength]byte {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	var key [2 * common.AddressLength]byte
	copy(key[:common.AddressLength], tokenA.Bytes())
	copy(key[common.AddressLength:], tokenB.Bytes())
	return key
}

// loadPool resolves the pool created for (tokenA, tokenB) in that order.
func (e *Engine) loadPool(ctx context.Context, tx storage.Tx, tokenA, tokenB common.Address) (model.Pool, error) {
	if tokenA == tokenB {
		return model.Pool{}, model.ErrInvalidTokenPair.Wrapf("mint %s", tokenA.Hex())
	}
	address, err := e.deriver.PoolAddress(tokenA, tokenB)
	if err != nil {
		return model.Pool{}, err
	}
	pool, err := tx.Pool(ctx, address)
	if errors.Is(err, model.ErrPoolNotFound) {
		if reverse, derr := e.deriver.PoolAddress(tokenB, tokenA); derr == nil {
			if _, rerr := tx.Pool(ctx, reverse); rerr == nil {
				return model.Pool{}, model.ErrPoolNotFound.Wrapf("pool is registered as (%s, %s)", tokenB.Hex(), tokenA.Hex())
			}
		}
		return model.Pool{}, err
	}
	if err != nil {
		return model.Pool{}, err
	}
	if pool.TokenAMint != tokenA || pool.TokenBMint != tokenB {
		return model.Pool{}, model.ErrInvalidTokenPair.Wrapf("pool %s holds a different pair", address.Hex())
	}
	return pool, nil
}

// signer re-derives the pool authority from the stored bump.
func (e *Engine) signer(pool model.Pool) (common.Address, error) {
	authority, err := e.deriver.Authority(pool.TokenAMint, pool.TokenBMint, pool.AuthorityBump)
	if err != nil {
		return common.Address{}, err
	}
	if authority != pool.Authority {
		return common.Address{}, model.ErrUnauthorized.Wrapf("authority of pool %s does not re-derive", pool.Address.Hex())
	}
	return authority, nil
}

// checkVaults verifies that vault balances match the recorded reserves.
func checkVaults(ctx context.Context, tx storage.Tx, pool model.Pool) error {
	vaultA, err := tx.Account(ctx, pool.TokenAVault)
	if err != nil {
		return err
	}
	vaultB, err := tx.Account(ctx, pool.TokenBVault)
	if err != nil {
		return err
	}
	if vaultA.Balance != pool.ReserveA || vaultB.Balance != pool.ReserveB {
		return fmt.Errorf("pool %s vaults hold (%d, %d), reserves are (%d, %d)",
			pool.Address.Hex(), vaultA.Balance, vaultB.Balance, pool.ReserveA, pool.ReserveB)
	}
	return nil
}

func view(ctx context.Context, ledger *custody.Ledger, pool model.Pool) (*model.PoolView, error) {
	supply, err := ledger.Supply(ctx, pool.LPTokenMint)
	if err != nil {
		return nil, err
	}
	return &model.PoolView{Pool: pool, LPSupply: supply}, nil
}
