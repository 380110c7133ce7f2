package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wisbric/meshdrift/internal/apperr"
	"github.com/wisbric/meshdrift/internal/audit"
	"github.com/wisbric/meshdrift/pkg/drift"
	"github.com/wisbric/meshdrift/pkg/graph"
	"github.com/wisbric/meshdrift/pkg/integration"
	"github.com/wisbric/meshdrift/pkg/ml"
)

// buildSnapshotPayload is the JSON body enqueued by Scheduler for
// KindBuildSnapshot. A "sweep" field of "retention" marks the nightly
// retention pass rather than a normal window build, since both reuse the
// same Kind with a discriminator instead of a dedicated one.
type buildSnapshotPayload struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	WindowStart time.Time `json:"window_start"`
	Sweep       string    `json:"sweep"`
}

// detectDriftPayload is the JSON body enqueued for KindDetectDrift. A
// "sweep" field of "baseline_refresh" marks the half-hourly baseline
// maintenance pass rather than a normal detection run.
type detectDriftPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Sweep    string    `json:"sweep"`
}

// sendNotificationPayload is the JSON body enqueued for KindSendNotification,
// one per scored event that cleared the notification threshold.
type sendNotificationPayload struct {
	TenantID uuid.UUID   `json:"tenant_id"`
	Event    drift.Event `json:"event"`
	Score    int         `json:"score"`
	Severity drift.Severity `json:"severity"`
}

// notifyThreshold is the minimum smart score a scored event must reach
// before it is handed off to the notification stage, per spec §4.11's
// requirement that only severity critical or high (score >= 60 per §4.5)
// reaches an operator.
const notifyThreshold = 60

// shouldNotify reports whether a scored event clears notifyThreshold, i.e.
// its severity is high or critical.
func shouldNotify(score int) bool {
	return score >= notifyThreshold
}

// Pipeline wires the three task kinds into the build_snapshot -> detect_drift
// -> send_notification hand-off named in spec §4.11. Each stage is a
// Handler registered against a Queue; the stages themselves communicate by
// enqueuing the next kind, not by direct calls, so a crash between stages
// loses nothing still pending in the queue.
type Pipeline struct {
	queue Queue

	ingestor  integration.Ingestor
	snapshots *graph.Store
	profiles  *ml.ProfileStore
	whitelist *ml.WhitelistStore
	feedback  *ml.FeedbackStore

	notifiers []integration.Notifier
	publisher integration.Publisher
	audit     *audit.Writer

	ruleConfig drift.RuleConfig
	logger     *slog.Logger
}

// PipelineDeps bundles the collaborators Pipeline needs, grouped the way
// ml.Dependencies groups the smart scorer's.
type PipelineDeps struct {
	Ingestor  integration.Ingestor
	Snapshots *graph.Store
	Profiles  *ml.ProfileStore
	Whitelist *ml.WhitelistStore
	Feedback  *ml.FeedbackStore
	Notifiers []integration.Notifier
	Publisher integration.Publisher
	// Audit is optional; when set, the retention sweep and baseline
	// eviction jobs record their outcomes to it.
	Audit *audit.Writer
}

// NewPipeline creates a Pipeline bound to queue for enqueuing downstream
// stages, using cfg for rule evaluation.
func NewPipeline(queue Queue, deps PipelineDeps, cfg drift.RuleConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		queue:      queue,
		ingestor:   deps.Ingestor,
		snapshots:  deps.Snapshots,
		profiles:   deps.Profiles,
		whitelist:  deps.Whitelist,
		feedback:   deps.Feedback,
		notifiers:  deps.Notifiers,
		publisher:  deps.Publisher,
		audit:      deps.Audit,
		ruleConfig: cfg,
		logger:     logger,
	}
}

// logAudit records a tenant-scoped worker action, a no-op if no audit
// writer was configured.
func (p *Pipeline) logAudit(tenantID uuid.UUID, action, resource string, detail map[string]any) {
	if p.audit == nil {
		return
	}
	body, _ := json.Marshal(detail)
	p.audit.Log(audit.Entry{TenantID: tenantID, Actor: "scheduler", Action: action, Resource: resource, Detail: body})
}

// Subscribe registers all three stage handlers against queue.
func (p *Pipeline) Subscribe(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.queue.Subscribe(ctx, KindBuildSnapshot, WithRetry(DefaultRetryPolicy(), p.handleBuildSnapshot)) })
	g.Go(func() error { return p.queue.Subscribe(ctx, KindDetectDrift, WithRetry(DefaultRetryPolicy(), p.handleDetectDrift)) })
	g.Go(func() error { return p.queue.Subscribe(ctx, KindSendNotification, WithRetry(DefaultRetryPolicy(), p.handleSendNotification)) })
	return g.Wait()
}

// handleBuildSnapshot fetches records for the closed window, builds and
// persists a snapshot, then enqueues detect_drift for the same tenant. A
// retention-sweep payload skips the build and purges old snapshots instead.
func (p *Pipeline) handleBuildSnapshot(ctx context.Context, raw []byte) error {
	var payload buildSnapshotPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "decoding build_snapshot payload", err)
	}

	if payload.Sweep == "retention" {
		cutoff := time.Now().Add(-30 * 24 * time.Hour)
		n, err := p.snapshots.DeleteOlderThan(ctx, payload.TenantID, cutoff)
		if err != nil {
			return err
		}
		p.logger.Info("retention sweep complete", "tenant_id", payload.TenantID, "deleted", n)
		p.logAudit(payload.TenantID, "retention_sweep", "snapshot", map[string]any{"deleted": n, "cutoff": cutoff})
		return nil
	}

	start := payload.WindowStart
	end := start.Add(time.Hour)

	records, err := p.ingestor.FetchRecords(ctx, payload.TenantID, start, end)
	if err != nil {
		return err
	}

	snapshotID := fmt.Sprintf("%s-%d", payload.TenantID, start.Unix())
	snap, err := graph.BuildSnapshot(snapshotID, records, start, end)
	if err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "building snapshot", err)
	}

	if err := p.snapshots.Save(ctx, payload.TenantID, snap); err != nil {
		return err
	}

	_, err = p.queue.Enqueue(ctx, KindDetectDrift, detectDriftPayload{TenantID: payload.TenantID}, EnqueueOptions{})
	return err
}

// handleDetectDrift diffs the two most recent snapshots, scores the
// resulting events, enqueues one send_notification per event clearing
// notifyThreshold, and broadcasts the full batch via Publisher. A
// baseline-refresh payload instead folds the latest snapshot's edges into
// each profile and evicts stale ones.
func (p *Pipeline) handleDetectDrift(ctx context.Context, raw []byte) error {
	var payload detectDriftPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "decoding detect_drift payload", err)
	}

	if payload.Sweep == "baseline_refresh" {
		return p.refreshBaselines(ctx, payload.TenantID)
	}

	current, baseline, err := p.snapshots.GetLatestTwo(ctx, payload.TenantID)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil
		}
		return err
	}

	events := drift.Diff(baseline, current)
	if len(events) == 0 {
		return nil
	}

	scored, err := ml.ScoreBatch(ctx, payload.TenantID, p.ruleConfig, events, current, ml.Dependencies{
		Profiles:  p.profiles,
		Whitelist: p.whitelist,
		Feedback:  p.feedback,
	})
	if err != nil {
		return err
	}

	if p.publisher != nil {
		scoredEvents := make([]drift.Event, 0, len(scored))
		for _, s := range scored {
			scoredEvents = append(scoredEvents, s.Event.WithSeverity(s.Breakdown.Severity))
		}
		if err := p.publisher.Publish(ctx, payload.TenantID, scoredEvents); err != nil {
			p.logger.Error("publishing drift events", "tenant_id", payload.TenantID, "error", err)
		}
	}

	for _, s := range scored {
		if !shouldNotify(s.Score) {
			continue
		}
		_, err := p.queue.Enqueue(ctx, KindSendNotification, sendNotificationPayload{
			TenantID: payload.TenantID,
			Event:    s.Event,
			Score:    s.Score,
			Severity: s.Breakdown.Severity,
		}, EnqueueOptions{})
		if err != nil {
			return err
		}
	}
	return nil
}

// refreshBaselines observes the latest snapshot's edges into each edge
// profile and evicts profiles stale past the window, per spec §4.11's
// half-hourly baseline maintenance job.
func (p *Pipeline) refreshBaselines(ctx context.Context, tenantID uuid.UUID) error {
	snap, err := p.snapshots.GetLatest(ctx, tenantID)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil
		}
		return err
	}

	now := time.Now()
	for _, key := range snap.SortedEdgeKeys() {
		edge := snap.Edges[key]
		if _, err := p.profiles.Observe(ctx, tenantID, edge, ml.DefaultWindowSize, now); err != nil {
			return err
		}
	}

	evicted, err := p.profiles.EvictStale(ctx, tenantID, ml.DefaultWindowSize, now)
	if err != nil {
		return err
	}
	p.logAudit(tenantID, "baseline_refresh", "profile", map[string]any{
		"observed": len(snap.Edges),
		"evicted":  evicted,
	})
	return nil
}

// handleSendNotification renders the scored event as an explain card and
// fans it out across every configured Notifier concurrently, per spec
// §4.11's notification stage.
func (p *Pipeline) handleSendNotification(ctx context.Context, raw []byte) error {
	var payload sendNotificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "decoding send_notification payload", err)
	}

	scored := drift.Scored{
		Event:    payload.Event,
		Score:    payload.Score,
		Severity: payload.Severity,
	}
	card := drift.Explain(scored, drift.Evaluate(p.ruleConfig, payload.Event))

	g, ctx := errgroup.WithContext(ctx)
	for _, n := range p.notifiers {
		n := n
		g.Go(func() error { return n.Notify(ctx, payload.TenantID, card) })
	}
	return g.Wait()
}
