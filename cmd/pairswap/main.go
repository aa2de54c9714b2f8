package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pairSwap/internal/amm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pairswap",
		Short:        "Constant-product token pair pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pool API",
		RunE:  runServe,
	}
	addEngineFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	root.AddCommand(serveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a JSONL operation log to the pools",
		RunE:  runReplay,
	}
	addEngineFlags(replayCmd)
	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().Int("workers", 4, "token pairs replayed concurrently")
	root.AddCommand(replayCmd)

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the derived accounts of a pool",
		RunE:  runDerive,
	}
	deriveCmd.Flags().String("token-a", "", "first token mint")
	deriveCmd.Flags().String("token-b", "", "second token mint")
	deriveCmd.Flags().String("program-id", "", "program identity seeding derivation")
	root.AddCommand(deriveCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against given reserves",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("reserve-in", "", "reserve of the input token")
	quoteCmd.Flags().String("reserve-out", "", "reserve of the output token")
	quoteCmd.Flags().String("amount-in", "", "input amount")
	quoteCmd.Flags().Uint64("fee", amm.DefaultFeeNumerator, "fee numerator over 10000")
	quoteCmd.Flags().Int32("decimals", 0, "decimals applied to amounts")
	root.AddCommand(quoteCmd)

	root.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the postgres schema",
		RunE:  runSchema,
	})

	return root
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "memory", "storage backend (memory, postgres)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("program-id", "", "program identity seeding derivation")
	cmd.Flags().Uint64("fee-numerator", amm.DefaultFeeNumerator, "fee numerator over 10000 for new pools")
	cmd.Flags().String("events-out", "", "event JSONL path, empty disables")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
