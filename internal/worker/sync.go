package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tactics-catalog/internal/config"
)

// LikeCache holds the live playlist like counts
type LikeCache interface {
	GetAllLikeCounts(ctx context.Context) (map[string]int64, error)
	BatchSetLikeCounts(ctx context.Context, counts map[string]int64) error
}

// LikeArchive holds the durable copy of playlist like counts
type LikeArchive interface {
	GetAllLikeCounts(ctx context.Context) (map[string]int64, error)
	BatchUpsertLikeCounts(ctx context.Context, counts map[string]int64) error
}

// SyncWorker periodically copies like counts from Redis to PostgreSQL
type SyncWorker struct {
	cache   LikeCache
	archive LikeArchive
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	cache LikeCache,
	archive LikeArchive,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		cache:   cache,
		archive: archive,
		config:  cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process, running a final sync first
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			w.flush()
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// flush saves counts one last time on shutdown
func (w *SyncWorker) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	w.RunOnce(ctx)
}

// RunOnce runs a single sync cycle
func (w *SyncWorker) RunOnce(ctx context.Context) {
	startTime := time.Now()
	count, err := w.SyncToDatabase(ctx)
	if err != nil {
		w.logger.Error("failed to sync like counts", "error", err)
		return
	}
	w.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"playlists", count,
	)
}

// SyncToDatabase copies every like count from Redis to PostgreSQL and
// returns how many playlists were written
func (w *SyncWorker) SyncToDatabase(ctx context.Context) (int, error) {
	counts, err := w.cache.GetAllLikeCounts(ctx)
	if err != nil {
		return 0, err
	}

	if len(counts) == 0 {
		w.logger.Debug("no like counts to sync")
		return 0, nil
	}

	// Process in batches to avoid overwhelming the database
	batchSize := w.config.BatchSize
	if batchSize == 0 {
		batchSize = 1000
	}

	batch := make(map[string]int64, batchSize)
	for playlistID, likes := range counts {
		batch[playlistID] = likes

		if len(batch) >= batchSize {
			if err := w.archive.BatchUpsertLikeCounts(ctx, batch); err != nil {
				return 0, err
			}
			batch = make(map[string]int64, batchSize)
		}
	}

	// Process remaining batch
	if len(batch) > 0 {
		if err := w.archive.BatchUpsertLikeCounts(ctx, batch); err != nil {
			return 0, err
		}
	}

	return len(counts), nil
}

// SyncFromDatabase restores like counts from PostgreSQL into Redis.
// This is useful for recovery or initialization.
func (w *SyncWorker) SyncFromDatabase(ctx context.Context) error {
	w.logger.Info("syncing like counts from database")

	counts, err := w.archive.GetAllLikeCounts(ctx)
	if err != nil {
		return err
	}

	if len(counts) == 0 {
		w.logger.Debug("no like counts to sync from database")
		return nil
	}

	if err := w.cache.BatchSetLikeCounts(ctx, counts); err != nil {
		return err
	}

	w.logger.Info("restored like counts from database", "playlists", len(counts))
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
