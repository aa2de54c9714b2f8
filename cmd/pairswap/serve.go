package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairSwap/internal/api"
	"pairSwap/internal/config"
	"pairSwap/internal/replay"
)

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	server := api.NewServer(api.Config{ListenAddr: cfg.Listen}, rt.engine, rt.registry, logger)
	return server.Run(ctx)
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	runner := replay.NewRunner(replay.RunConfig{
		InputPath:         cfg.Replay.In,
		CheckpointPath:    cfg.Replay.Checkpoint,
		CheckpointEnabled: cfg.Replay.CheckpointEnabled,
		MaxRetries:        cfg.Replay.MaxRetries,
		RetryBackoff:      cfg.Replay.RetryBackoff,
		Workers:           cfg.Replay.Workers,
	}, rt.engine, logger)

	logger.Info("replay config",
		zap.String("in", cfg.Replay.In),
		zap.Bool("checkpoint_enabled", cfg.Replay.CheckpointEnabled),
		zap.String("checkpoint", cfg.Replay.Checkpoint),
		zap.Int("workers", cfg.Replay.Workers),
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
