package ml

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/meshdrift/internal/apperr"
	"github.com/wisbric/meshdrift/internal/db"
	"github.com/wisbric/meshdrift/pkg/graph"
)

// ProfileStore persists EdgeProfiles, tenant-scoped throughout, the same
// shape as graph.Store.
type ProfileStore struct {
	q *db.Queries
}

// NewProfileStore creates a ProfileStore backed by the given pool.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{q: db.New(pool)}
}

// Get returns the persisted profile for (tenantID, source, destination). The
// bool result is false with a nil error when no profile exists yet.
func (s *ProfileStore) Get(ctx context.Context, tenantID uuid.UUID, source, destination string) (EdgeProfile, bool, error) {
	row, err := s.q.GetBaseline(ctx, tenantID, source, destination)
	if err != nil {
		if err == pgx.ErrNoRows {
			return EdgeProfile{}, false, nil
		}
		return EdgeProfile{}, false, apperr.Wrap(apperr.Unavailable, "fetching baseline", err)
	}
	return fromRow(row), true, nil
}

// List returns every persisted profile for a tenant.
func (s *ProfileStore) List(ctx context.Context, tenantID uuid.UUID) ([]EdgeProfile, error) {
	rows, err := s.q.ListBaselines(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "listing baselines", err)
	}
	out := make([]EdgeProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Save upserts a profile for a tenant.
func (s *ProfileStore) Save(ctx context.Context, tenantID uuid.UUID, profile EdgeProfile) error {
	if err := s.q.UpsertBaseline(ctx, toRow(tenantID, profile)); err != nil {
		return apperr.Wrap(apperr.Unavailable, "saving baseline", err)
	}
	return nil
}

// Observe folds a newly observed edge into its existing profile (if any) and
// persists the result, returning the updated profile.
func (s *ProfileStore) Observe(ctx context.Context, tenantID uuid.UUID, e graph.Edge, windowSize int, now time.Time) (EdgeProfile, error) {
	existing, ok, err := s.Get(ctx, tenantID, e.Source, e.Destination)
	if err != nil {
		return EdgeProfile{}, err
	}

	var prior *EdgeProfile
	if ok {
		prior = &existing
	}

	updated := UpdateBaseline(prior, e, windowSize, now)
	if err := s.Save(ctx, tenantID, updated); err != nil {
		return EdgeProfile{}, err
	}
	return updated, nil
}

// EvictStale removes profiles untouched for a full window (an edge absent
// since windowSize hours before now), returning the count removed.
func (s *ProfileStore) EvictStale(ctx context.Context, tenantID uuid.UUID, windowSize int, now time.Time) (int64, error) {
	cutoff := now.Add(-time.Duration(windowSize) * time.Hour)
	n, err := s.q.DeleteStaleBaselines(ctx, tenantID, cutoff)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, "evicting stale baselines", err)
	}
	return n, nil
}

func fromRow(row db.BaselineRow) EdgeProfile {
	return EdgeProfile{
		Source:           row.Source,
		Destination:      row.Destination,
		MeanRequestCount: row.MeanRequestCount,
		StdRequestCount:  row.StdRequestCount,
		MeanErrorRate:    row.MeanErrorRate,
		StdErrorRate:     row.StdErrorRate,
		MeanP99LatencyMs: row.MeanP99LatencyMs,
		StdP99LatencyMs:  row.StdP99LatencyMs,
		SampleCount:      int(row.SampleCount),
		LastUpdated:      row.LastUpdated,
	}
}

func toRow(tenantID uuid.UUID, p EdgeProfile) db.BaselineRow {
	return db.BaselineRow{
		TenantID:         tenantID,
		Source:           p.Source,
		Destination:      p.Destination,
		MeanRequestCount: p.MeanRequestCount,
		StdRequestCount:  p.StdRequestCount,
		MeanErrorRate:    p.MeanErrorRate,
		StdErrorRate:     p.StdErrorRate,
		MeanP99LatencyMs: p.MeanP99LatencyMs,
		StdP99LatencyMs:  p.StdP99LatencyMs,
		SampleCount:      int32(p.SampleCount),
		LastUpdated:      p.LastUpdated,
	}
}
