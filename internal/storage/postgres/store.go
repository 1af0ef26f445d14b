// Package postgres persists pool snapshots in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairpool/internal/pool"
)

// Store provides Postgres persistence for the pool snapshot: one scalar state
// row, the holder ledger, and the append-only event log.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pgPool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{pool: pgPool}
	if err := s.ensureSchema(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pool_state (
			id smallint PRIMARY KEY CHECK (id = 1),
			balance_a text NOT NULL,
			balance_b text NOT NULL,
			total_shares text NOT NULL,
			fee_bps bigint NOT NULL,
			admin text NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS pool_holders (
			address text PRIMARY KEY,
			shares text NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pool_events (
			seq bigint PRIMARY KEY,
			kind text NOT NULL,
			account text NOT NULL,
			ts bigint NOT NULL,
			payload jsonb NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the full snapshot in one transaction: the state row is
// upserted, the holder ledger is replaced, and new events are appended.
// Events already present keep their original rows.
func (s *Store) Save(ctx context.Context, snap *pool.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pool_state (id, balance_a, balance_b, total_shares, fee_bps, admin, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			balance_a = EXCLUDED.balance_a,
			balance_b = EXCLUDED.balance_b,
			total_shares = EXCLUDED.total_shares,
			fee_bps = EXCLUDED.fee_bps,
			admin = EXCLUDED.admin,
			updated_at = now()
	`, snap.BalanceA, snap.BalanceB, snap.TotalShares, int64(snap.FeeBps), snap.Admin)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pool_holders`); err != nil {
		return fmt.Errorf("clear holders: %w", err)
	}

	batch := &pgx.Batch{}
	for addr, shares := range snap.Holders {
		batch.Queue(`INSERT INTO pool_holders (address, shares) VALUES ($1, $2)`, addr, shares)
	}
	for _, ev := range snap.Events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", ev.Seq, err)
		}
		batch.Queue(`
			INSERT INTO pool_events (seq, kind, account, ts, payload)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (seq) DO NOTHING
		`, int64(ev.Seq), string(ev.Kind), ev.Account, int64(ev.Timestamp), payload)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}

// Load reconstructs the snapshot. Returns false when no state row exists.
func (s *Store) Load(ctx context.Context) (*pool.Snapshot, bool, error) {
	snap := &pool.Snapshot{Holders: make(map[string]string)}

	var feeBps int64
	row := s.pool.QueryRow(ctx, `
		SELECT balance_a, balance_b, total_shares, fee_bps, admin
		FROM pool_state WHERE id = 1
	`)
	if err := row.Scan(&snap.BalanceA, &snap.BalanceB, &snap.TotalShares, &feeBps, &snap.Admin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load state: %w", err)
	}
	if feeBps < 0 {
		return nil, false, fmt.Errorf("stored fee is negative: %d", feeBps)
	}
	snap.FeeBps = uint64(feeBps)

	rows, err := s.pool.Query(ctx, `SELECT address, shares FROM pool_holders`)
	if err != nil {
		return nil, false, fmt.Errorf("load holders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr, shares string
		if err := rows.Scan(&addr, &shares); err != nil {
			return nil, false, fmt.Errorf("scan holder: %w", err)
		}
		snap.Holders[addr] = shares
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate holders: %w", err)
	}

	evRows, err := s.pool.Query(ctx, `SELECT payload FROM pool_events ORDER BY seq`)
	if err != nil {
		return nil, false, fmt.Errorf("load events: %w", err)
	}
	defer evRows.Close()
	for evRows.Next() {
		var payload []byte
		if err := evRows.Scan(&payload); err != nil {
			return nil, false, fmt.Errorf("scan event: %w", err)
		}
		var ev pool.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, false, fmt.Errorf("parse event: %w", err)
		}
		snap.Events = append(snap.Events, ev)
	}
	if err := evRows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate events: %w", err)
	}

	return snap, true, nil
}
