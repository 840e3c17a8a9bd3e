package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

const (
	// DefaultGCThreshold is how long an emptied session stays listed
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// Collectee is the part of the bookmark service the collector prunes.
type Collectee interface {
	Sessions(ctx context.Context, provider domain.Provider) ([]domain.SessionMeta, error)
	PruneSession(ctx context.Context, sessionID string, staleBefore time.Time) (bool, error)
}

// GarbageCollector removes the metas of sessions whose bookmarks were all
// deleted and that nobody touched for longer than the threshold.
type GarbageCollector struct {
	target    Collectee
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	target Collectee,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	return &GarbageCollector{
		target:    target,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect prunes stale empty sessions and returns how many were removed.
// A session that fails is logged and skipped.
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	gc.logger.Debug("running garbage collection for empty sessions")

	metas, err := gc.target.Sessions(ctx, "")
	if err != nil {
		return 0, err
	}

	staleBefore := gc.now().Add(-gc.threshold)
	deleted := 0
	for _, meta := range metas {
		if meta.UpdatedAt.IsZero() || !meta.UpdatedAt.Before(staleBefore) {
			continue
		}
		pruned, err := gc.target.PruneSession(ctx, meta.SessionID, staleBefore)
		if err != nil {
			gc.logger.Warn("failed to prune session",
				logger.String("session_id", meta.SessionID),
				logger.Error(err))
			continue
		}
		if !pruned {
			continue
		}
		gc.logger.Info("garbage collected empty session",
			logger.String("session_id", meta.SessionID),
			logger.String("title", meta.Title),
			logger.String("idle_for", gc.now().Sub(meta.UpdatedAt).Round(time.Hour).String()))
		deleted++
	}

	if deleted > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("sessions_deleted", deleted))
	} else {
		gc.logger.Debug("no sessions to garbage collect")
	}
	return deleted, nil
}
