// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/genscript/internal/metrics"
	"github.com/hyperengineering/genscript/internal/snapshot"
)

// SnapshotStore defines the store operations needed by the snapshot worker.
type SnapshotStore interface {
	GenerateSnapshot(ctx context.Context, path string) error
}

// SnapshotWorker writes a database snapshot to path on every interval and
// hands it to the uploader.
type SnapshotWorker struct {
	store    SnapshotStore
	uploader snapshot.Uploader
	path     string
	interval time.Duration
}

// NewSnapshotWorker creates a worker. A nil uploader keeps snapshots local.
func NewSnapshotWorker(store SnapshotStore, uploader snapshot.Uploader, path string, interval time.Duration) *SnapshotWorker {
	if uploader == nil {
		uploader = &snapshot.NoopUploader{}
	}
	return &SnapshotWorker{
		store:    store,
		uploader: uploader,
		path:     path,
		interval: interval,
	}
}

// Run starts the worker loop. Generates snapshot immediately on start,
// then on each interval. Returns when ctx is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "snapshot",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "snapshot",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce generates and uploads a single snapshot. Failures are logged and
// counted, never returned.
func (w *SnapshotWorker) RunOnce(ctx context.Context) bool {
	start := time.Now()
	slog.Info("snapshot generation started",
		"component", "worker",
		"action", "snapshot_start",
		"path", w.path,
	)

	if err := w.store.GenerateSnapshot(ctx, w.path); err != nil {
		// Shutting down
		if ctx.Err() != nil {
			return false
		}
		metrics.ObserveSnapshot(false)
		slog.Warn("snapshot generation failed",
			"component", "worker",
			"action", "snapshot_failed",
			"error", err,
		)
		return false
	}

	if err := w.uploader.Upload(ctx, w.path); err != nil {
		if ctx.Err() != nil {
			return false
		}
		metrics.ObserveSnapshot(false)
		slog.Warn("snapshot upload failed",
			"component", "worker",
			"action", "upload_failed",
			"error", err,
		)
		return false
	}

	metrics.ObserveSnapshot(true)
	slog.Info("snapshot completed",
		"component", "worker",
		"action", "snapshot_complete",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return true
}
