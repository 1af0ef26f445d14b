// Package pool implements a two-asset constant-product liquidity pool:
// proportional share accounting, fee-adjusted swap pricing, and an
// append-only event log. All amounts are non-negative integers in the
// smallest unit of each asset.
package pool

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Token selects one of the pool's two asset sides.
type Token string

const (
	TokenA Token = "A"
	TokenB Token = "B"
)

// State is a copy of the pool's scalar state.
type State struct {
	BalanceA    *big.Int
	BalanceB    *big.Int
	TotalShares *big.Int
	FeeBps      uint64
}

// Pool owns the two asset balances, the total share supply, the per-holder
// share ledger, the fee rate, and the event log. Mutations are serialized
// behind a single write lock; a failing operation returns before touching
// any state.
type Pool struct {
	mu sync.RWMutex

	balanceA    *big.Int
	balanceB    *big.Int
	totalShares *big.Int
	feeBps      uint64

	admin  common.Address
	ledger map[common.Address]*big.Int

	events  []Event
	nextSeq uint64

	clock func() time.Time
}

// New constructs an empty pool. admin is the only identity allowed to update
// the fee; it is fixed for the pool's lifetime.
func New(admin common.Address, feeBps uint64) (*Pool, error) {
	if feeBps > MaxFeeBps {
		return nil, ErrFeeOutOfRange
	}
	return &Pool{
		balanceA:    new(big.Int),
		balanceB:    new(big.Int),
		totalShares: new(big.Int),
		feeBps:      feeBps,
		admin:       admin,
		ledger:      make(map[common.Address]*big.Int),
		clock:       time.Now,
	}, nil
}

// WithClock overrides the event timestamp source for deterministic tests.
func (p *Pool) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = clock
}

// Quote prices a swap of amountIn of tokenIn without mutating state.
func (p *Pool) Quote(tokenIn Token, amountIn *big.Int) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.quoteLocked(tokenIn, amountIn)
}

func (p *Pool) quoteLocked(tokenIn Token, amountIn *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	var x, y *big.Int
	switch tokenIn {
	case TokenA:
		x, y = p.balanceA, p.balanceB
	case TokenB:
		x, y = p.balanceB, p.balanceA
	default:
		return nil, ErrUnknownToken
	}

	if x.Sign() == 0 || y.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}
	return amountOut(x, y, amountIn, p.feeBps)
}

// Deposit adds amountA and amountB to the pool and mints shares to caller.
// The first deposit mints floor(sqrt(amountA*amountB)); later deposits mint by
// the scarcer side of the supplied ratio, and any surplus of the other asset
// is absorbed into the pool without refund. Returns the minted share count.
func (p *Pool) Deposit(caller common.Address, amountA, amountB *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if p.totalShares.Sign() != 0 && (p.balanceA.Sign() == 0 || p.balanceB.Sign() == 0) {
		return nil, ErrCorruptedPoolState
	}

	var minted *big.Int
	if p.totalShares.Sign() == 0 {
		minted = intSqrt(new(big.Int).Mul(amountA, amountB))
	} else {
		fromA := new(big.Int).Mul(amountA, p.totalShares)
		fromA.Div(fromA, p.balanceA)
		fromB := new(big.Int).Mul(amountB, p.totalShares)
		fromB.Div(fromB, p.balanceB)
		minted = minBig(fromA, fromB)
	}
	if minted.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}

	p.balanceA.Add(p.balanceA, amountA)
	p.balanceB.Add(p.balanceB, amountB)
	p.totalShares.Add(p.totalShares, minted)
	p.credit(caller, minted)

	p.appendEvent(Event{
		Kind:    EventLiquidityAdded,
		Account: caller.Hex(),
		Added: &LiquidityAddedData{
			AmountA:      amountA.String(),
			AmountB:      amountB.String(),
			SharesMinted: minted.String(),
		},
	})

	return new(big.Int).Set(minted), nil
}

// Withdraw burns shares from caller and pays out the proportional slice of
// both balances, rounded down. A ledger entry that reaches zero is removed.
func (p *Pool) Withdraw(caller common.Address, shares *big.Int) (*big.Int, *big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	held, ok := p.ledger[caller]
	if !ok {
		return nil, nil, ErrNoBalance
	}
	if shares.Cmp(held) > 0 {
		return nil, nil, ErrInsufficientShares
	}
	// unreachable once the ledger check passed, kept as an invariant check
	if p.totalShares.Sign() == 0 {
		return nil, nil, ErrCorruptedPoolState
	}

	outA := new(big.Int).Mul(shares, p.balanceA)
	outA.Div(outA, p.totalShares)
	outB := new(big.Int).Mul(shares, p.balanceB)
	outB.Div(outB, p.totalShares)

	p.balanceA.Sub(p.balanceA, outA)
	p.balanceB.Sub(p.balanceB, outB)
	p.totalShares.Sub(p.totalShares, shares)
	held.Sub(held, shares)
	if held.Sign() == 0 {
		delete(p.ledger, caller)
	}

	p.appendEvent(Event{
		Kind:    EventLiquidityRemoved,
		Account: caller.Hex(),
		Removed: &LiquidityRemovedData{
			SharesBurned: shares.String(),
			AmountA:      outA.String(),
			AmountB:      outB.String(),
		},
	})

	return outA, outB, nil
}

// Swap trades amountIn of tokenIn for the other asset at the quoted price and
// returns the output amount. Pricing failures propagate unchanged.
func (p *Pool) Swap(caller common.Address, tokenIn Token, amountIn *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, err := p.quoteLocked(tokenIn, amountIn)
	if err != nil {
		return nil, err
	}

	switch tokenIn {
	case TokenA:
		p.balanceA.Add(p.balanceA, amountIn)
		p.balanceB.Sub(p.balanceB, out)
	case TokenB:
		p.balanceB.Add(p.balanceB, amountIn)
		p.balanceA.Sub(p.balanceA, out)
	}

	p.appendEvent(Event{
		Kind:    EventSwap,
		Account: caller.Hex(),
		Swap: &SwapEventData{
			TokenIn:   string(tokenIn),
			AmountIn:  amountIn.String(),
			AmountOut: out.String(),
		},
	})

	return new(big.Int).Set(out), nil
}

// SetFee replaces the fee rate. Only the administrator fixed at construction
// may call it; past events are unaffected.
func (p *Pool) SetFee(caller common.Address, feeBps uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.admin {
		return ErrUnauthorized
	}
	if feeBps > MaxFeeBps {
		return ErrFeeOutOfRange
	}
	p.feeBps = feeBps
	return nil
}

// State returns a copy of the pool's scalar state.
func (p *Pool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{
		BalanceA:    new(big.Int).Set(p.balanceA),
		BalanceB:    new(big.Int).Set(p.balanceB),
		TotalShares: new(big.Int).Set(p.totalShares),
		FeeBps:      p.feeBps,
	}
}

// HolderBalance returns holder's share balance, zero if absent.
func (p *Pool) HolderBalance(holder common.Address) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if held, ok := p.ledger[holder]; ok {
		return new(big.Int).Set(held)
	}
	return new(big.Int)
}

// Events returns a copy of the full event log in execution order.
func (p *Pool) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// EventsSince returns a copy of all events with Seq >= seq.
func (p *Pool) EventsSince(seq uint64) []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Event, 0)
	for _, ev := range p.events {
		if ev.Seq >= seq {
			out = append(out, ev)
		}
	}
	return out
}

// SpotPrice returns the price of asset A in terms of asset B as an exact
// fraction balanceB/balanceA. When either balance is zero there is no price
// and a zero value is returned; that is not an error.
func (p *Pool) SpotPrice() *big.Rat {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.balanceA.Sign() == 0 || p.balanceB.Sign() == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(p.balanceB, p.balanceA)
}

// Admin returns the fee administrator identity.
func (p *Pool) Admin() common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.admin
}

func (p *Pool) credit(holder common.Address, shares *big.Int) {
	held, ok := p.ledger[holder]
	if !ok {
		held = new(big.Int)
		p.ledger[holder] = held
	}
	held.Add(held, shares)
}

func (p *Pool) appendEvent(ev Event) {
	ev.Seq = p.nextSeq
	ev.Timestamp = uint64(p.clock().UTC().Unix())
	p.nextSeq++
	p.events = append(p.events, ev)
}
