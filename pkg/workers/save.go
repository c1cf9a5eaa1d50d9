package workers

import (
	"context"
	"time"

	"github.com/hollowmere/encounterd/pkg/log"
	"github.com/hollowmere/encounterd/pkg/messages"
	"github.com/hollowmere/encounterd/pkg/repositories"
)

// DefaultSaveInterval is how often the save worker persists the session.
const DefaultSaveInterval = 10 * time.Second

// SnapshotSource exposes the pipeline's most recent committed snapshot.
type SnapshotSource interface {
	Latest() (messages.SnapshotBlob, bool)
}

// SaveSnapshotWorker periodically persists the latest session snapshot.
// Saves are skipped while the version has not moved.
type SaveSnapshotWorker struct {
	repository repositories.Repository
	source     SnapshotSource
	interval   time.Duration
	lastSaved  uint64
}

// NewSaveSnapshotWorkerOptions contains options for creating a new SaveSnapshotWorker.
type NewSaveSnapshotWorkerOptions struct {
	Repository repositories.Repository
	Source     SnapshotSource
	Interval   time.Duration
}

func NewSaveSnapshotWorker(opts NewSaveSnapshotWorkerOptions) *SaveSnapshotWorker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	return &SaveSnapshotWorker{
		repository: opts.Repository,
		source:     opts.Source,
		interval:   interval,
	}
}

// Start runs the worker until the context is cancelled, then makes one final
// save attempt so a clean shutdown loses nothing.
func (w *SaveSnapshotWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.save(context.Background())
			return
		case <-ticker.C:
			w.save(ctx)
		}
	}
}

func (w *SaveSnapshotWorker) save(ctx context.Context) {
	blob, ok := w.source.Latest()
	if !ok || blob.Version == w.lastSaved {
		return
	}
	if err := w.repository.SaveSnapshot(ctx, blob.Version, blob.Data); err != nil {
		log.Error("Failed to save snapshot at version %d: %v", blob.Version, err)
		return
	}
	w.lastSaved = blob.Version
	log.Debug("Saved snapshot at version %d", blob.Version)
}
