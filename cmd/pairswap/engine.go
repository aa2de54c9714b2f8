package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"pairSwap/internal/config"
	"pairSwap/internal/derive"
	"pairSwap/internal/engine"
	"pairSwap/internal/metrics"
	"pairSwap/internal/storage"
	"pairSwap/internal/storage/memory"
	"pairSwap/internal/storage/postgres"
)

// runtime bundles the engine with the resources that must be released with it.
type runtime struct {
	engine   *engine.Engine
	registry *prometheus.Registry
	close    func()
}

func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*runtime, error) {
	programID := derive.DefaultProgramID
	if cfg.ProgramID != "" {
		id, err := derive.ParseIdentity(cfg.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("program-id: %w", err)
		}
		programID = id
	}

	var (
		backend storage.Backend
		closeFn = func() {}
	)
	switch cfg.Backend {
	case config.BackendPostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		backend = store
		closeFn = store.Close
	default:
		backend = memory.New()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(metrics.NewEngineMetrics(registry)),
	}
	if cfg.EventsOut != "" {
		lastSeq, err := storage.LastEventSeq(cfg.EventsOut)
		if err != nil {
			closeFn()
			return nil, err
		}
		events := storage.NewJsonlStorage(cfg.EventsOut)
		opts = append(opts, engine.WithSink(events), engine.WithStartSeq(lastSeq))
		closeBackend := closeFn
		closeFn = func() {
			if err := events.Close(); err != nil {
				logger.Warn("close event log", zap.Error(err))
			}
			closeBackend()
		}
	}

	e, err := engine.New(engine.Config{ProgramID: programID, FeeNumerator: cfg.FeeNumerator}, backend, opts...)
	if err != nil {
		closeFn()
		return nil, err
	}

	logger.Info("engine ready",
		zap.String("backend", cfg.Backend),
		zap.String("program_id", programID.Hex()),
		zap.Uint64("fee_numerator", cfg.FeeNumerator),
		zap.String("events_out", cfg.EventsOut),
		zap.Uint64("last_event_seq", e.LastSeq()),
	)
	return &runtime{engine: e, registry: registry, close: closeFn}, nil
}

func parseAddress(flag, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, fmt.Errorf("%s is required", flag)
	}
	addr, err := derive.ParseIdentity(value)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", flag, err)
	}
	return addr, nil
}
