// Package storage persists pool snapshots and journals events.
package storage

import (
	"context"

	"pairpool/internal/pool"
)

// Store persists full pool snapshots. Load returns false when no snapshot has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (*pool.Snapshot, bool, error)
	Save(ctx context.Context, snap *pool.Snapshot) error
}
