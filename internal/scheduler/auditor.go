package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

const (
	// DefaultAuditInterval is used when no interval is configured.
	DefaultAuditInterval = time.Hour
)

// Auditee is the part of the bookmark service the auditor inspects.
type Auditee interface {
	Sessions(ctx context.Context, provider domain.Provider) ([]domain.SessionMeta, error)
	Orphans(ctx context.Context, sessionID string) ([]domain.Bookmark, error)
	Normalize(ctx context.Context, sessionID string) (int, error)
}

// Report summarizes one audit pass.
type Report struct {
	Sessions   int
	Orphans    int
	Renumbered int
}

// OrphanAuditor periodically reports records whose parent vanished and
// closes order gaps left by writers that bypassed the service. Orphans are
// only logged; removing them is the user's call.
type OrphanAuditor struct {
	target   Auditee
	logger   logger.Logger
	interval time.Duration
	trigger  chan struct{}
	stopCh   chan struct{}
}

// NewOrphanAuditor creates a new orphan auditor
func NewOrphanAuditor(target Auditee, log logger.Logger, interval time.Duration) *OrphanAuditor {
	if interval <= 0 {
		interval = DefaultAuditInterval
	}

	return &OrphanAuditor{
		target:   target,
		logger:   log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic audit
func (a *OrphanAuditor) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := a.Audit(ctx); err != nil {
		a.logger.Warn("initial orphan audit failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(a.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := a.Audit(ctx); err != nil {
					a.logger.Error("orphan audit failed",
						logger.Error(err))
				}
			case <-a.trigger:
				a.logger.Info("manual orphan audit triggered")
				if _, err := a.Audit(ctx); err != nil {
					a.logger.Error("orphan audit failed",
						logger.Error(err))
				}
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Trigger requests an audit outside the schedule. It returns false when a
// request is already pending.
func (a *OrphanAuditor) Trigger() bool {
	select {
	case a.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop stops the auditor
func (a *OrphanAuditor) Stop() {
	close(a.stopCh)
}

// Audit inspects every session once. A failing session is logged and
// skipped so one bad snapshot does not hide the others.
func (a *OrphanAuditor) Audit(ctx context.Context) (Report, error) {
	a.logger.Debug("running orphan audit")

	metas, err := a.target.Sessions(ctx, "")
	if err != nil {
		return Report{}, err
	}

	report := Report{Sessions: len(metas)}
	for _, meta := range metas {
		orphans, err := a.target.Orphans(ctx, meta.SessionID)
		if err != nil {
			a.logger.Warn("failed to audit session",
				logger.String("session_id", meta.SessionID),
				logger.Error(err))
			continue
		}
		for _, o := range orphans {
			parent, _ := o.Parent.ID()
			a.logger.Warn("orphaned bookmark",
				logger.String("session_id", meta.SessionID),
				logger.String("bookmark_id", o.ID),
				logger.String("missing_parent", parent))
		}
		report.Orphans += len(orphans)

		n, err := a.target.Normalize(ctx, meta.SessionID)
		if err != nil {
			a.logger.Warn("failed to renumber session",
				logger.String("session_id", meta.SessionID),
				logger.Error(err))
			continue
		}
		report.Renumbered += n
	}

	if report.Orphans > 0 || report.Renumbered > 0 {
		a.logger.Info("orphan audit completed",
			logger.Int("sessions", report.Sessions),
			logger.Int("orphans", report.Orphans),
			logger.Int("renumbered", report.Renumbered))
	} else {
		a.logger.Debug("no orphans or gaps found")
	}

	return report, nil
}
