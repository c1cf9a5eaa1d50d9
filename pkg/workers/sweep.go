package workers

import (
	"context"
	"time"

	"github.com/hollowmere/encounterd/pkg/log"
	"github.com/hollowmere/encounterd/pkg/messages"
	"github.com/hollowmere/encounterd/pkg/queue"
)

// DefaultSweepInterval is how often the sweep action is injected.
const DefaultSweepInterval = 15 * time.Second

// SweepWorker periodically injects a sweep action into the pipeline so
// abandoned pending transactions are force-denied on the pipeline goroutine,
// never from here.
type SweepWorker struct {
	actionQueue queue.Queue
	interval    time.Duration
}

// NewSweepWorkerOptions contains options for creating a new SweepWorker.
type NewSweepWorkerOptions struct {
	ActionQueue queue.Queue
	Interval    time.Duration
}

func NewSweepWorker(opts NewSweepWorkerOptions) *SweepWorker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SweepWorker{
		actionQueue: opts.ActionQueue,
		interval:    interval,
	}
}

// Start runs the worker until the context is cancelled.
func (w *SweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.actionQueue.Enqueue(&messages.Message{Type: messages.MessageTypeInternalSweep}); err != nil {
				log.Warn("Failed to enqueue sweep: %v", err)
			}
		}
	}
}
