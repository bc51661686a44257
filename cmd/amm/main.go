package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityCore/internal/config"
	"liquidityCore/internal/model"
	"liquidityCore/internal/replay"
	"liquidityCore/internal/storage"
	"liquidityCore/internal/storage/postgres"
	"liquidityCore/internal/transfer"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product AMM pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay pool operations from a JSONL file",
		RunE:  runReplay,
	}

	runCmd.Flags().String("ops", "", "operations JSONL path")
	runCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL path")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (optional, stores events and snapshots)")
	runCmd.Flags().Int("batch-size", 500, "ops per storage batch")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum storage retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	root.AddCommand(newQuoteCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.OpsPath == "" {
		return fmt.Errorf("ops path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink storage.Storage
	var pgStore *postgres.Store
	if cfg.PgDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		sink = pgEventSink{ctx: ctx, store: pgStore}
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	ledger := transfer.NewLedger()
	runner := replay.NewRunner(replay.RunConfig{
		OpsPath:           cfg.OpsPath,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, ledger, sink, logger)

	logger.Info("replay start",
		zap.String("ops", cfg.OpsPath),
		zap.String("out", cfg.Out),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Bool("postgres", pgStore != nil),
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	if pgStore != nil {
		if err := pgStore.UpsertSnapshots(ctx, runner.Registry().Snapshots()); err != nil {
			return fmt.Errorf("store snapshots: %w", err)
		}
	}

	return nil
}

// pgEventSink adapts the Postgres store to the batch sink interface.
type pgEventSink struct {
	ctx   context.Context
	store *postgres.Store
}

func (s pgEventSink) PutEventBatch(events []model.Event) error {
	return s.store.InsertEvents(s.ctx, events)
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
