// Package replay applies recorded pool operations from a JSONL file and
// persists the emitted events.
package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"liquidityCore/internal/model"
	"liquidityCore/internal/pool"
	"liquidityCore/internal/stats"
	"liquidityCore/internal/storage"
	"liquidityCore/internal/transfer"
)

// RunConfig holds runtime settings for the replay runner.
type RunConfig struct {
	OpsPath           string
	BatchSize         int
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner replays operations against pools and writes their events to
// storage. Individual operation failures are recorded and skipped; storage
// failures are retried and abort the run when exhausted.
type Runner struct {
	cfg        RunConfig
	registry   *pool.Registry
	ledger     *transfer.Ledger
	storage    storage.Storage
	logger     *zap.Logger
	checkpoint *CheckpointStore
	collector  *eventCollector
	stats      *stats.Collector
	failed     []model.OpError
}

// NewRunner builds a Runner with its dependencies. The pool registry is
// owned by the runner and wired to the transfer ledger and event collector.
func NewRunner(cfg RunConfig, ledger *transfer.Ledger, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	collector := &eventCollector{}
	return &Runner{
		cfg:        cfg,
		registry:   pool.NewRegistry(ledger, collector, logger),
		ledger:     ledger,
		storage:    storageSink,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		collector:  collector,
		stats:      stats.NewCollector(),
	}
}

// Registry exposes the pools built during the replay.
func (r *Runner) Registry() *pool.Registry {
	return r.registry
}

// Failures returns the operations that were rejected during the replay.
func (r *Runner) Failures() []model.OpError {
	return r.failed
}

// Summaries returns the per-pair totals accumulated during the replay.
func (r *Runner) Summaries() map[string]*stats.Summary {
	return r.stats.Summaries()
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.ledger == nil {
		return fmt.Errorf("transfer ledger is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	ops, err := ReadOps(r.cfg.OpsPath)
	if err != nil {
		return err
	}

	var resumeAfter uint64
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok {
			resumeAfter = cp.LastAppliedSeq
			r.logger.Info("resume from checkpoint", zap.Uint64("last_applied_seq", resumeAfter))
		}
	}

	applied := make([]model.OpRecord, 0)
	pending := make([]model.OpRecord, 0, len(ops))
	for _, op := range ops {
		if op.Seq > resumeAfter {
			pending = append(pending, op)
		} else {
			applied = append(applied, op)
		}
	}

	// Pools and the transfer ledger live in memory, so a resumed run first
	// re-applies the checkpointed prefix to rebuild them. Those events are
	// already stored; they only feed the summary.
	if len(applied) > 0 {
		r.logger.Info("rebuild state",
			zap.Int("ops", len(applied)),
			zap.Uint64("through_seq", resumeAfter),
		)
		for _, op := range applied {
			if err := r.applyOp(op); err != nil {
				// rejected in the original run as well; not a new failure
				r.logger.Debug("op rejected during rebuild", zap.Uint64("seq", op.Seq), zap.Error(err))
			}
		}
		for _, ev := range r.collector.Drain() {
			if err := r.stats.AddEvent(ev); err != nil {
				r.logger.Warn("summary skipped event", zap.String("pair", ev.Pair), zap.Error(err))
			}
		}
	}

	if len(pending) == 0 {
		r.logger.Info("nothing to replay", zap.Int("total_ops", len(ops)))
		return nil
	}

	batches, err := SplitBatches(len(pending), r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, batch := range batches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("apply ops",
			zap.Uint64("from_seq", pending[batch.From].Seq),
			zap.Uint64("to_seq", pending[batch.To].Seq),
		)

		for _, op := range pending[batch.From : batch.To+1] {
			if err := r.applyOp(op); err != nil {
				r.failed = append(r.failed, model.OpError{
					Seq:     op.Seq,
					Kind:    op.Kind,
					Pair:    op.Pair,
					Account: op.Account,
					Error:   err.Error(),
				})
				r.logger.Warn("op rejected",
					zap.Uint64("seq", op.Seq),
					zap.String("kind", op.Kind),
					zap.String("pair", op.Pair),
					zap.Error(err),
				)
			}
		}

		events := r.collector.Drain()
		for _, ev := range events {
			if err := r.stats.AddEvent(ev); err != nil {
				r.logger.Warn("summary skipped event", zap.String("pair", ev.Pair), zap.Error(err))
			}
		}

		if err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(context.Context) error {
			return r.storage.PutEventBatch(events)
		}); err != nil {
			return fmt.Errorf("store events: %w", err)
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(pending[batch.To].Seq); err != nil {
				return err
			}
		}
	}

	r.logSummary(len(pending))
	return nil
}

func (r *Runner) applyOp(op model.OpRecord) error {
	account, err := ParseAccount(op.Account)
	if err != nil {
		return err
	}

	switch op.Kind {
	case model.OpFund:
		if op.Asset == "" {
			return fmt.Errorf("fund: asset is required")
		}
		amount, err := ParseAmount("amount", op.Amount)
		if err != nil {
			return err
		}
		return r.ledger.Credit(account, op.Asset, amount)

	case model.OpDeposit:
		p, err := r.getPool(op.Pair)
		if err != nil {
			return err
		}
		amountA, err := ParseAmount("amount_a", op.AmountA)
		if err != nil {
			return err
		}
		amountB, err := ParseAmount("amount_b", op.AmountB)
		if err != nil {
			return err
		}
		_, err = p.Deposit(account, amountA, amountB)
		return err

	case model.OpWithdraw:
		p, err := r.getPool(op.Pair)
		if err != nil {
			return err
		}
		shares, err := ParseAmount("shares", op.Shares)
		if err != nil {
			return err
		}
		_, _, err = p.Withdraw(account, shares)
		return err

	case model.OpSwapAForB, model.OpSwapBForA:
		p, err := r.getPool(op.Pair)
		if err != nil {
			return err
		}
		amountIn, err := ParseAmount("amount_in", op.AmountIn)
		if err != nil {
			return err
		}
		if op.Kind == model.OpSwapAForB {
			_, err = p.SwapAForB(account, amountIn)
		} else {
			_, err = p.SwapBForA(account, amountIn)
		}
		return err

	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

func (r *Runner) getPool(pair string) (*pool.Pool, error) {
	p, err := r.registry.GetOrCreate(pair)
	if err != nil {
		return nil, err
	}
	assetA, _, err := pool.SplitPair(pair)
	if err != nil {
		return nil, err
	}
	r.stats.SetPairAssets(pair, assetA)
	return p, nil
}

func (r *Runner) logSummary(applied int) {
	for pair, summary := range r.stats.Summaries() {
		r.logger.Info("pair summary",
			zap.String("pair", pair),
			zap.Uint64("deposits", summary.DepositCount),
			zap.Uint64("withdrawals", summary.WithdrawCount),
			zap.Uint64("swaps", summary.SwapCount),
			zap.String("volume_a", summary.VolumeA.String()),
			zap.String("volume_b", summary.VolumeB.String()),
			zap.String("fees_a", summary.FeesA.String()),
			zap.String("fees_b", summary.FeesB.String()),
		)
	}
	r.logger.Info("replay done",
		zap.Int("applied", applied-len(r.failed)),
		zap.Int("rejected", len(r.failed)),
	)
}

// eventCollector buffers events emitted by pools between storage flushes.
type eventCollector struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *eventCollector) Record(ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *eventCollector) Drain() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.events
	c.events = nil
	return events
}
