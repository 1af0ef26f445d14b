package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"pairpool/internal/pool"
)

func testSnapshot() *pool.Snapshot {
	return &pool.Snapshot{
		BalanceA:    "210",
		BalanceB:    "95",
		TotalShares: "141",
		FeeBps:      30,
		Admin:       "0x00000000000000000000000000000000000000Ff",
		Holders: map[string]string{
			"0x00000000000000000000000000000000000000A1": "141",
		},
		Events: []pool.Event{
			{Seq: 0, Kind: pool.EventLiquidityAdded, Account: "0x00000000000000000000000000000000000000A1",
				Added: &pool.LiquidityAddedData{AmountA: "200", AmountB: "100", SharesMinted: "141"}},
			{Seq: 1, Kind: pool.EventSwap, Account: "0x00000000000000000000000000000000000000B2",
				Swap: &pool.SwapEventData{TokenIn: "A", AmountIn: "10", AmountOut: "5"}},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.json")
	store := NewFileStore(path)
	ctx := context.Background()

	loaded, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load before save: %v", err)
	}
	if ok || loaded != nil {
		t.Fatalf("expected no snapshot before first save")
	}

	snap := testSnapshot()
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot after save")
	}
	if !reflect.DeepEqual(loaded, snap) {
		t.Fatalf("round-trip mismatch: %+v != %+v", loaded, snap)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "pool.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if err := store.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}

	next := testSnapshot()
	next.BalanceA = "500"
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.BalanceA != "500" {
		t.Fatalf("balance_a %s, want 500", loaded.BalanceA)
	}
}

func TestFileStoreRejectsNilSnapshot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "pool.json"))
	if err := store.Save(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil snapshot")
	}
}
