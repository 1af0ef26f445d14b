// Package service wires the pool engine to persistence and backs the HTTP
// handlers.
package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairpool/internal/pool"
	"pairpool/internal/storage"
)

// Config holds persistence settings for the service.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// PoolService owns the engine and checkpoints its state after every completed
// mutation. Engine errors pass through untouched; persistence errors are
// wrapped.
type PoolService struct {
	logger  *zap.Logger
	engine  *pool.Pool
	store   storage.Store
	journal *storage.Journal
	cfg     Config

	// serializes mutate+persist pairs so an older snapshot can never
	// overwrite a newer one
	mu        sync.Mutex
	journaled uint64
}

// NewPoolService builds a PoolService. journal may be nil to disable the
// JSONL audit copy.
func NewPoolService(logger *zap.Logger, engine *pool.Pool, store storage.Store, journal *storage.Journal, cfg Config) *PoolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolService{
		logger:  logger,
		engine:  engine,
		store:   store,
		journal: journal,
		cfg:     cfg,
	}
}

// Deposit adds liquidity for caller and returns the minted shares.
func (s *PoolService) Deposit(ctx context.Context, caller common.Address, amountA, amountB *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	minted, err := s.engine.Deposit(caller, amountA, amountB)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("liquidity added",
		zap.String("caller", caller.Hex()),
		zap.String("amount_a", amountA.String()),
		zap.String("amount_b", amountB.String()),
		zap.String("shares", minted.String()),
	)
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return minted, nil
}

// Withdraw burns caller's shares and returns the paid-out amounts.
func (s *PoolService) Withdraw(ctx context.Context, caller common.Address, shares *big.Int) (*big.Int, *big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outA, outB, err := s.engine.Withdraw(caller, shares)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug("liquidity removed",
		zap.String("caller", caller.Hex()),
		zap.String("shares", shares.String()),
		zap.String("amount_a", outA.String()),
		zap.String("amount_b", outB.String()),
	)
	if err := s.persist(ctx); err != nil {
		return nil, nil, err
	}
	return outA, outB, nil
}

// Swap trades amountIn of tokenIn and returns the output amount.
func (s *PoolService) Swap(ctx context.Context, caller common.Address, tokenIn pool.Token, amountIn *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.engine.Swap(caller, tokenIn, amountIn)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("swap executed",
		zap.String("caller", caller.Hex()),
		zap.String("token_in", string(tokenIn)),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", out.String()),
	)
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// SetFee updates the fee rate on behalf of caller.
func (s *PoolService) SetFee(ctx context.Context, caller common.Address, feeBps uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.SetFee(caller, feeBps); err != nil {
		return err
	}
	s.logger.Info("fee updated", zap.Uint64("fee_bps", feeBps))
	return s.persist(ctx)
}

// Quote prices a swap without mutating state.
func (s *PoolService) Quote(tokenIn pool.Token, amountIn *big.Int) (*big.Int, error) {
	return s.engine.Quote(tokenIn, amountIn)
}

// State returns the pool's scalar state.
func (s *PoolService) State() pool.State {
	return s.engine.State()
}

// HolderBalance returns holder's share balance, zero if absent.
func (s *PoolService) HolderBalance(holder common.Address) *big.Int {
	return s.engine.HolderBalance(holder)
}

// Events returns the full event log.
func (s *PoolService) Events() []pool.Event {
	return s.engine.Events()
}

// SpotPrice returns the price of A in terms of B, zero when undefined.
func (s *PoolService) SpotPrice() *big.Rat {
	return s.engine.SpotPrice()
}

// Stats rolls the event log up into cumulative totals.
func (s *PoolService) Stats() (pool.Stats, error) {
	return pool.ComputeStats(s.engine.Events())
}

// Restore loads a previously saved snapshot into the engine, if one exists.
func (s *PoolService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		s.logger.Info("no snapshot found, starting empty")
		return nil
	}
	if err := s.engine.Restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	s.journaled = uint64(len(snap.Events))
	s.logger.Info("snapshot restored",
		zap.String("balance_a", snap.BalanceA),
		zap.String("balance_b", snap.BalanceB),
		zap.String("total_shares", snap.TotalShares),
		zap.Int("events", len(snap.Events)),
	)
	return nil
}

func (s *PoolService) persist(ctx context.Context) error {
	snap := s.engine.Snapshot()
	err := storage.WithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		return s.store.Save(ctx, snap)
	})
	if err != nil {
		s.logger.Error("snapshot save failed", zap.Error(err))
		return fmt.Errorf("save snapshot: %w", err)
	}

	if s.journal != nil {
		fresh := s.engine.EventsSince(s.journaled)
		if len(fresh) > 0 {
			if err := s.journal.Append(fresh); err != nil {
				// the journal is an audit copy, the snapshot already holds the log
				s.logger.Warn("journal append failed", zap.Error(err))
			} else {
				s.journaled = fresh[len(fresh)-1].Seq + 1
			}
		}
	}
	return nil
}
