package repositories

import (
	"context"
	"time"
)

// SnapshotRecord is one persisted session snapshot.
type SnapshotRecord struct {
	Version   uint64
	Data      []byte
	CreatedAt time.Time
}

// Repository persists compressed session snapshots. Only the latest snapshot
// matters for recovery; implementations may keep history or overwrite.
type Repository interface {
	Close(ctx context.Context) error
	SaveSnapshot(ctx context.Context, version uint64, data []byte) error
	LoadLatestSnapshot(ctx context.Context) (*SnapshotRecord, error)
}
