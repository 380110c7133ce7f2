package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wisbric/meshdrift/internal/db"
)

// Scheduler runs the three cron jobs named in spec §4.11, one ticker loop
// per job, grounded on escalation.Engine's tick-and-iterate-tenants shape.
// Celery's crontab(minute=0) / crontab(hour=3, minute=0) /
// crontab(minute="*/30") become three named intervals here.
type Scheduler struct {
	queue  Queue
	q      *db.Queries
	logger *slog.Logger

	snapshotInterval  time.Duration
	retentionInterval time.Duration
	baselineInterval  time.Duration

	group singleflight.Group
}

// NewScheduler creates a Scheduler. queue is used to enqueue build_snapshot
// and the retention/baseline jobs run inline against q since they are pure
// sweeps, not notification-bearing tasks.
func NewScheduler(queue Queue, q *db.Queries, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		queue:             queue,
		q:                 q,
		logger:            logger,
		snapshotInterval:  time.Hour,
		retentionInterval: 24 * time.Hour,
		baselineInterval:  30 * time.Minute,
	}
}

// Run starts all three ticker loops and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"snapshot_interval", s.snapshotInterval,
		"retention_interval", s.retentionInterval,
		"baseline_interval", s.baselineInterval,
	)

	snapshotTicker := time.NewTicker(s.snapshotInterval)
	defer snapshotTicker.Stop()
	retentionTicker := time.NewTicker(s.retentionInterval)
	defer retentionTicker.Stop()
	baselineTicker := time.NewTicker(s.baselineInterval)
	defer baselineTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-snapshotTicker.C:
			s.enqueueSnapshotBuilds(ctx)
		case <-retentionTicker.C:
			s.enqueueRetentionSweep(ctx)
		case <-baselineTicker.C:
			s.enqueueBaselineRefresh(ctx)
		}
	}
}

// enqueueSnapshotBuilds enqueues a build_snapshot task per tenant for the
// window just closed. Concurrent triggers for the same (tenant, window)
// dedupe via singleflight, satisfying spec §4.11's coalescing requirement.
func (s *Scheduler) enqueueSnapshotBuilds(ctx context.Context) {
	tenants, err := s.q.ListTenants(ctx)
	if err != nil {
		s.logger.Error("listing tenants for snapshot build", "error", err)
		return
	}

	windowStart := time.Now().Truncate(time.Hour)
	for _, t := range tenants {
		key := fmt.Sprintf("%s:%d", t.ID, windowStart.Unix())
		s.group.DoChan(key, func() (any, error) {
			_, err := s.queue.Enqueue(ctx, KindBuildSnapshot, map[string]any{
				"tenant_id":    t.ID,
				"window_start": windowStart,
			}, EnqueueOptions{})
			if err != nil {
				s.logger.Error("enqueuing build_snapshot", "tenant_id", t.ID, "error", err)
			}
			return nil, err
		})
	}
}

// enqueueRetentionSweep enqueues the nightly retention sweep per tenant.
func (s *Scheduler) enqueueRetentionSweep(ctx context.Context) {
	tenants, err := s.q.ListTenants(ctx)
	if err != nil {
		s.logger.Error("listing tenants for retention sweep", "error", err)
		return
	}
	for _, t := range tenants {
		if _, err := s.queue.Enqueue(ctx, KindBuildSnapshot, map[string]any{
			"tenant_id": t.ID,
			"sweep":     "retention",
		}, EnqueueOptions{}); err != nil {
			s.logger.Error("enqueuing retention sweep", "tenant_id", t.ID, "error", err)
		}
	}
}

// enqueueBaselineRefresh enqueues the half-hourly baseline-update and
// stale-profile eviction pass per tenant.
func (s *Scheduler) enqueueBaselineRefresh(ctx context.Context) {
	tenants, err := s.q.ListTenants(ctx)
	if err != nil {
		s.logger.Error("listing tenants for baseline refresh", "error", err)
		return
	}
	for _, t := range tenants {
		if _, err := s.queue.Enqueue(ctx, KindDetectDrift, map[string]any{
			"tenant_id": t.ID,
			"sweep":     "baseline_refresh",
		}, EnqueueOptions{}); err != nil {
			s.logger.Error("enqueuing baseline refresh", "tenant_id", t.ID, "error", err)
		}
	}
}
