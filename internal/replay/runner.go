// Package replay applies a recorded operation log to the pool engine.
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pairSwap/internal/engine"
	"pairSwap/internal/model"
)

// DefaultIssuer is the authority of mints created by fund operations that
// name none.
var DefaultIssuer = common.HexToAddress("0x00000000000000000000000000000000000f0ced")

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	InputPath         string
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	Workers           int
	Issuer            common.Address
}

// Applier is the engine surface a replay drives.
type Applier interface {
	Fund(ctx context.Context, mint, authority, owner common.Address, amount uint64) error
	InitializePool(ctx context.Context, tokenA, tokenB common.Address) (model.PoolInitialized, error)
	AddLiquidity(ctx context.Context, req engine.AddLiquidityRequest) (model.LiquidityAdded, error)
	RemoveLiquidity(ctx context.Context, req engine.RemoveLiquidityRequest) (model.LiquidityRemoved, error)
	Swap(ctx context.Context, req engine.SwapRequest) (model.SwapExecuted, error)
}

// Summary reports the outcome of a replay.
type Summary struct {
	Total          int    `json:"total"`
	Skipped        int    `json:"skipped"`
	Applied        int    `json:"applied"`
	Rejected       int    `json:"rejected"`
	Pairs          int    `json:"pairs"`
	Groups         int    `json:"groups"`
	LastAppliedSeq uint64 `json:"last_applied_seq"`
}

// Runner reads operations and applies them through an Applier.
type Runner struct {
	cfg        RunConfig
	engine     Applier
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, applier Applier, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Issuer == (common.Address{}) {
		cfg.Issuer = DefaultIssuer
	}
	return &Runner{
		cfg:        cfg,
		engine:     applier,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run replays the input file. Fund operations run first in order. The
// remaining operations run sequentially within a group of pairs linked by a
// shared user account, while independent groups proceed concurrently. Engine rejections are counted and skipped; any other
// error is retried and then aborts the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.engine == nil {
		return Summary{}, fmt.Errorf("engine is nil")
	}
	if r.cfg.InputPath == "" {
		return Summary{}, fmt.Errorf("input path is required")
	}

	ops, err := ReadOperationsFile(r.cfg.InputPath)
	if err != nil {
		return Summary{}, err
	}
	return r.Apply(ctx, ops)
}

// Apply replays ops that an earlier run has not finished.
func (r *Runner) Apply(ctx context.Context, ops []model.Operation) (Summary, error) {
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return Summary{}, err
	}
	if ok {
		r.logger.Info("resume from checkpoint",
			zap.Uint64("last_applied", cp.LastAppliedSeq),
			zap.Int("applied_above", len(cp.AppliedAbove)),
		)
	}

	summary := Summary{Total: len(ops)}
	var (
		pending = make([]model.Operation, 0, len(ops))
		seqs    = make([]uint64, 0, len(ops))
		already []uint64
	)
	for _, op := range ops {
		if !cp.finished(op.Seq) {
			seqs = append(seqs, op.Seq)
			pending = append(pending, op)
			continue
		}
		summary.Skipped++
		if op.Seq > cp.LastAppliedSeq {
			seqs = append(seqs, op.Seq)
			already = append(already, op.Seq)
		}
	}
	prog := newProgress(cp.LastAppliedSeq, seqs)
	for _, seq := range already {
		prog.markSkipped(seq)
	}

	funds, groups := schedule(pending)
	summary.Pairs = countPairs(pending)
	summary.Groups = len(groups)
	r.logger.Info("replay start",
		zap.Int("pending", len(pending)),
		zap.Int("funds", len(funds)),
		zap.Int("pairs", summary.Pairs),
		zap.Int("groups", summary.Groups),
		zap.Int("workers", r.cfg.Workers),
	)

	runErr := r.applyFunds(ctx, funds, prog)
	if runErr == nil {
		runErr = r.applyGroups(ctx, groups, prog)
	}

	final := prog.checkpoint()
	if err := r.checkpoint.Save(final); err != nil && runErr == nil {
		runErr = err
	}
	summary.Applied, summary.Rejected = prog.counts()
	summary.LastAppliedSeq = final.LastAppliedSeq

	if runErr != nil {
		r.logger.Error("replay aborted", zap.Error(runErr), zap.Uint64("last_applied", final.LastAppliedSeq))
		return summary, runErr
	}
	r.logger.Info("replay complete",
		zap.Int("applied", summary.Applied),
		zap.Int("rejected", summary.Rejected),
		zap.Int("skipped", summary.Skipped),
		zap.Uint64("last_applied", summary.LastAppliedSeq),
	)
	return summary, nil
}

func (r *Runner) applyFunds(ctx context.Context, funds []model.Operation, prog *progress) error {
	for _, op := range funds {
		if err := r.apply(ctx, op, prog); err != nil {
			return err
		}
	}
	return r.checkpoint.Save(prog.checkpoint())
}

func (r *Runner) applyGroups(ctx context.Context, groups [][]model.Operation, prog *progress) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			for _, op := range group {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				if err := r.apply(gctx, op, prog); err != nil {
					return err
				}
			}
			return r.checkpoint.Save(prog.checkpoint())
		})
	}
	return g.Wait()
}

// apply runs one operation with retry and records its outcome.
func (r *Runner) apply(ctx context.Context, op model.Operation, prog *progress) error {
	policy := newRetryPolicy(r.cfg.MaxRetries, r.cfg.RetryBackoff)
	policy.onRetry = func(attempt int, err error) {
		r.logger.Warn("operation failed, retrying",
			zap.Uint64("seq", op.Seq),
			zap.String("op", op.Op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	err := policy.do(ctx, func(ctx context.Context) error {
		return r.dispatch(ctx, op)
	})
	if err == nil {
		prog.markApplied(op.Seq)
		return nil
	}
	if _, ok := model.Classify(err); ok {
		r.logger.Info("operation rejected", zap.Uint64("seq", op.Seq), zap.String("op", op.Op), zap.Error(err))
		prog.markRejected(op.Seq)
		return nil
	}
	return fmt.Errorf("seq %d %s: %w", op.Seq, op.Op, err)
}

func (r *Runner) dispatch(ctx context.Context, op model.Operation) error {
	var err error
	switch op.Op {
	case model.OpFund:
		authority := op.Authority
		if authority == (common.Address{}) {
			authority = r.cfg.Issuer
		}
		err = r.engine.Fund(ctx, op.Mint, authority, op.User, op.Amount)
	case model.OpInitialize:
		_, err = r.engine.InitializePool(ctx, op.TokenA, op.TokenB)
	case model.OpAddLiquidity:
		_, err = r.engine.AddLiquidity(ctx, engine.AddLiquidityRequest{
			User:           op.User,
			TokenA:         op.TokenA,
			TokenB:         op.TokenB,
			AmountA:        op.AmountA,
			AmountB:        op.AmountB,
			MinLPTokensOut: op.MinLPTokensOut,
		})
	case model.OpRemoveLiquidity:
		_, err = r.engine.RemoveLiquidity(ctx, engine.RemoveLiquidityRequest{
			User:          op.User,
			TokenA:        op.TokenA,
			TokenB:        op.TokenB,
			LPTokenAmount: op.LPTokenAmount,
			MinAmountA:    op.MinAmountA,
			MinAmountB:    op.MinAmountB,
		})
	case model.OpSwap:
		_, err = r.engine.Swap(ctx, engine.SwapRequest{
			User:         op.User,
			TokenA:       op.TokenA,
			TokenB:       op.TokenB,
			AmountIn:     op.AmountIn,
			MinAmountOut: op.MinAmountOut,
			IsAToB:       op.IsAToB,
		})
	default:
		err = fmt.Errorf("unknown op %q", op.Op)
	}
	return err
}
