package repositories

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps the latest snapshot in memory. Useful for tests and
// for running without persistence.
type MemoryRepository struct {
	mu     sync.Mutex
	latest *SnapshotRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) SaveSnapshot(ctx context.Context, version uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	r.latest = &SnapshotRecord{
		Version:   version,
		Data:      stored,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *MemoryRepository) LoadLatestSnapshot(ctx context.Context) (*SnapshotRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return nil, &ErrNotFound{}
	}
	record := *r.latest
	return &record, nil
}
