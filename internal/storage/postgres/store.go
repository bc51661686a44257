package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityCore/internal/model"
)

// Store provides Postgres persistence for pool events and snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertEvents appends pool events. Replays are append-only; a (pair, seq)
// conflict means the batch was already written and is skipped.
func (s *Store) InsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		payload, err := json.Marshal(event.Decoded)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		batch.Queue(`
			INSERT INTO pool_events (
				pair, seq, kind, payload, emitted_at, created_at
			) VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (pair, seq) DO NOTHING
		`,
			event.Pair,
			int64(event.Seq),
			event.Kind,
			payload,
			event.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSnapshots inserts or updates per-pair ledger snapshots.
func (s *Store) UpsertSnapshots(ctx context.Context, snaps []model.PoolSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snaps {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				pair, asset_a, asset_b, reserve_a, reserve_b, total_shares, taken_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (pair)
			DO UPDATE SET
				asset_a = EXCLUDED.asset_a,
				asset_b = EXCLUDED.asset_b,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				total_shares = EXCLUDED.total_shares,
				taken_at = EXCLUDED.taken_at,
				updated_at = now()
		`,
			snap.Pair,
			snap.AssetA,
			snap.AssetB,
			snap.ReserveA,
			snap.ReserveB,
			snap.TotalShares,
			snap.TakenAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snaps {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
