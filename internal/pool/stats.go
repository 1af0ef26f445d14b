package pool

import (
	"fmt"
	"math/big"
)

// Stats holds cumulative totals rolled up from the event log.
type Stats struct {
	Deposits    uint64
	Withdrawals uint64
	Swaps       uint64

	// Gross swap volume per side, counting both inflow and outflow.
	SwapVolumeA *big.Int
	SwapVolumeB *big.Int

	SharesMinted *big.Int
	SharesBurned *big.Int
}

// ComputeStats folds the event log into cumulative totals. The log is a pure
// audit trail, so this derives everything from event payloads alone.
func ComputeStats(events []Event) (Stats, error) {
	stats := Stats{
		SwapVolumeA:  new(big.Int),
		SwapVolumeB:  new(big.Int),
		SharesMinted: new(big.Int),
		SharesBurned: new(big.Int),
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventLiquidityAdded:
			if ev.Added == nil {
				return Stats{}, fmt.Errorf("event %d: missing liquidity_added payload", ev.Seq)
			}
			minted, err := parseAmount("shares_minted", ev.Added.SharesMinted)
			if err != nil {
				return Stats{}, fmt.Errorf("event %d: %w", ev.Seq, err)
			}
			stats.Deposits++
			stats.SharesMinted.Add(stats.SharesMinted, minted)
		case EventLiquidityRemoved:
			if ev.Removed == nil {
				return Stats{}, fmt.Errorf("event %d: missing liquidity_removed payload", ev.Seq)
			}
			burned, err := parseAmount("shares_burned", ev.Removed.SharesBurned)
			if err != nil {
				return Stats{}, fmt.Errorf("event %d: %w", ev.Seq, err)
			}
			stats.Withdrawals++
			stats.SharesBurned.Add(stats.SharesBurned, burned)
		case EventSwap:
			if ev.Swap == nil {
				return Stats{}, fmt.Errorf("event %d: missing swap payload", ev.Seq)
			}
			in, err := parseAmount("amount_in", ev.Swap.AmountIn)
			if err != nil {
				return Stats{}, fmt.Errorf("event %d: %w", ev.Seq, err)
			}
			out, err := parseAmount("amount_out", ev.Swap.AmountOut)
			if err != nil {
				return Stats{}, fmt.Errorf("event %d: %w", ev.Seq, err)
			}
			stats.Swaps++
			switch Token(ev.Swap.TokenIn) {
			case TokenA:
				stats.SwapVolumeA.Add(stats.SwapVolumeA, in)
				stats.SwapVolumeB.Add(stats.SwapVolumeB, out)
			case TokenB:
				stats.SwapVolumeB.Add(stats.SwapVolumeB, in)
				stats.SwapVolumeA.Add(stats.SwapVolumeA, out)
			default:
				return Stats{}, fmt.Errorf("event %d: unknown token %q", ev.Seq, ev.Swap.TokenIn)
			}
		default:
			return Stats{}, fmt.Errorf("event %d: unknown kind %q", ev.Seq, ev.Kind)
		}
	}

	return stats, nil
}
