package pool

import (
	"math/big"
	"testing"
)

func TestComputeStats(t *testing.T) {
	p := newTestPool(t, 30)
	mustDeposit(t, p, alice, 200, 100)
	if _, err := p.Swap(bob, TokenA, big.NewInt(10)); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if _, err := p.Swap(bob, TokenB, big.NewInt(20)); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if _, _, err := p.Withdraw(alice, big.NewInt(41)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	stats, err := ComputeStats(p.Events())
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}

	if stats.Deposits != 1 || stats.Withdrawals != 1 || stats.Swaps != 2 {
		t.Fatalf("counts mismatch: %+v", stats)
	}
	if stats.SharesMinted.Int64() != 141 || stats.SharesBurned.Int64() != 41 {
		t.Fatalf("share totals mismatch: minted %s burned %s", stats.SharesMinted, stats.SharesBurned)
	}

	// Cross-check volumes against the recorded payloads.
	wantA, wantB := new(big.Int), new(big.Int)
	for _, ev := range p.Events() {
		if ev.Kind != EventSwap {
			continue
		}
		in, _ := new(big.Int).SetString(ev.Swap.AmountIn, 10)
		out, _ := new(big.Int).SetString(ev.Swap.AmountOut, 10)
		if ev.Swap.TokenIn == string(TokenA) {
			wantA.Add(wantA, in)
			wantB.Add(wantB, out)
		} else {
			wantB.Add(wantB, in)
			wantA.Add(wantA, out)
		}
	}
	if stats.SwapVolumeA.Cmp(wantA) != 0 || stats.SwapVolumeB.Cmp(wantB) != 0 {
		t.Fatalf("volumes mismatch: got (%s, %s) want (%s, %s)",
			stats.SwapVolumeA, stats.SwapVolumeB, wantA, wantB)
	}
}

func TestComputeStatsEmptyLog(t *testing.T) {
	stats, err := ComputeStats(nil)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if stats.Deposits != 0 || stats.Swaps != 0 || stats.SwapVolumeA.Sign() != 0 {
		t.Fatalf("empty log produced non-zero stats: %+v", stats)
	}
}

func TestComputeStatsRejectsMalformedEvents(t *testing.T) {
	cases := []struct {
		name   string
		events []Event
	}{
		{"missing_payload", []Event{{Seq: 0, Kind: EventSwap}}},
		{"bad_amount", []Event{{Seq: 0, Kind: EventSwap, Swap: &SwapEventData{TokenIn: "A", AmountIn: "x", AmountOut: "1"}}}},
		{"unknown_token", []Event{{Seq: 0, Kind: EventSwap, Swap: &SwapEventData{TokenIn: "C", AmountIn: "1", AmountOut: "1"}}}},
		{"unknown_kind", []Event{{Seq: 0, Kind: EventKind("other")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ComputeStats(tc.events); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
