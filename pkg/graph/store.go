package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/meshdrift/internal/apperr"
	"github.com/wisbric/meshdrift/internal/db"
)

// Store provides database operations for snapshots, tenant-scoped throughout.
type Store struct {
	pool *pgxpool.Pool
	q    *db.Queries
}

// NewStore creates a snapshot Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: db.New(pool)}
}

// Save persists a snapshot for tenantID inside a single transaction: the
// snapshot header is upserted, then its nodes and edges are deleted and
// reinserted. Concurrent readers never observe a partial snapshot.
func (s *Store) Save(ctx context.Context, tenantID uuid.UUID, snap Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	q := s.q.WithTx(tx)

	snapshotPK, err := q.UpsertSnapshot(ctx, tenantID, snap.SnapshotID, snap.TimestampStart, snap.TimestampEnd)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "upserting snapshot header", err)
	}

	if err := q.DeleteEdgesBySnapshotPK(ctx, snapshotPK); err != nil {
		return apperr.Wrap(apperr.Unavailable, "clearing edges", err)
	}
	if err := q.DeleteNodesBySnapshotPK(ctx, snapshotPK); err != nil {
		return apperr.Wrap(apperr.Unavailable, "clearing nodes", err)
	}

	for _, n := range snap.Nodes {
		if err := q.InsertNode(ctx, db.NodeRow{
			SnapshotPK: snapshotPK,
			Name:       n.Name,
			Namespace:  n.Namespace,
			NodeType:   string(n.NodeType),
		}); err != nil {
			return apperr.Wrap(apperr.Unavailable, "inserting node", err)
		}
	}

	for _, k := range snap.SortedEdgeKeys() {
		e := snap.Edges[k]
		if err := q.InsertEdge(ctx, db.EdgeRow{
			SnapshotPK:   snapshotPK,
			Source:       e.Source,
			Destination:  e.Destination,
			RequestCount: e.RequestCount,
			ErrorCount:   e.ErrorCount,
			AvgLatencyMs: e.AvgLatencyMs,
			P99LatencyMs: e.P99LatencyMs,
		}); err != nil {
			return apperr.Wrap(apperr.Unavailable, "inserting edge", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.Unavailable, "committing snapshot", err)
	}
	return nil
}

// Get returns the snapshot identified by snapshotID for tenantID.
func (s *Store) Get(ctx context.Context, tenantID uuid.UUID, snapshotID string) (Snapshot, error) {
	row, err := s.q.GetSnapshotByID(ctx, tenantID, snapshotID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Snapshot{}, apperr.New(apperr.NotFound, fmt.Sprintf("snapshot %q not found", snapshotID))
		}
		return Snapshot{}, apperr.Wrap(apperr.Unavailable, "fetching snapshot", err)
	}
	return s.hydrate(ctx, row)
}

// GetLatest returns the most recently observed snapshot for tenantID.
func (s *Store) GetLatest(ctx context.Context, tenantID uuid.UUID) (Snapshot, error) {
	row, err := s.q.GetLatestSnapshot(ctx, tenantID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Snapshot{}, apperr.New(apperr.NotFound, "no snapshots for tenant")
		}
		return Snapshot{}, apperr.Wrap(apperr.Unavailable, "fetching latest snapshot", err)
	}
	return s.hydrate(ctx, row)
}

// GetLatestTwo returns the two most recent snapshots for tenantID, newest
// first, for use as the (baseline, current) pair the drift detector diffs.
// Returns apperr.NotFound if fewer than two snapshots exist.
func (s *Store) GetLatestTwo(ctx context.Context, tenantID uuid.UUID) (current, baseline Snapshot, err error) {
	rows, err := s.q.GetLatestTwoSnapshots(ctx, tenantID)
	if err != nil {
		return Snapshot{}, Snapshot{}, apperr.Wrap(apperr.Unavailable, "fetching latest two snapshots", err)
	}
	if len(rows) < 2 {
		return Snapshot{}, Snapshot{}, apperr.New(apperr.NotFound, "fewer than two snapshots available")
	}

	current, err = s.hydrate(ctx, rows[0])
	if err != nil {
		return Snapshot{}, Snapshot{}, err
	}
	baseline, err = s.hydrate(ctx, rows[1])
	if err != nil {
		return Snapshot{}, Snapshot{}, err
	}
	return current, baseline, nil
}

// List returns up to limit snapshots for tenantID, most recent first.
func (s *Store) List(ctx context.Context, tenantID uuid.UUID, limit int32) ([]Snapshot, error) {
	rows, err := s.q.ListSnapshots(ctx, tenantID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "listing snapshots", err)
	}

	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := s.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// Delete removes a single snapshot by snapshot_id. Returns apperr.NotFound
// if no matching row existed.
func (s *Store) Delete(ctx context.Context, tenantID uuid.UUID, snapshotID string) error {
	deleted, err := s.q.DeleteSnapshot(ctx, tenantID, snapshotID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "deleting snapshot", err)
	}
	if !deleted {
		return apperr.New(apperr.NotFound, fmt.Sprintf("snapshot %q not found", snapshotID))
	}
	return nil
}

// DeleteOlderThan purges snapshots whose window ended before cutoff, part of
// the retention sweep the scheduler runs nightly. Returns the count removed.
func (s *Store) DeleteOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error) {
	n, err := s.q.DeleteSnapshotsOlderThan(ctx, tenantID, cutoff)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, "purging old snapshots", err)
	}
	return n, nil
}

func (s *Store) hydrate(ctx context.Context, row db.SnapshotRow) (Snapshot, error) {
	nodeRows, err := s.q.ListNodesBySnapshotPK(ctx, row.ID)
	if err != nil {
		return Snapshot{}, apperr.Wrap(apperr.Unavailable, "listing nodes", err)
	}
	edgeRows, err := s.q.ListEdgesBySnapshotPK(ctx, row.ID)
	if err != nil {
		return Snapshot{}, apperr.Wrap(apperr.Unavailable, "listing edges", err)
	}

	nodes := make([]Node, 0, len(nodeRows))
	for _, n := range nodeRows {
		node, err := NewNode(n.Name, n.Namespace, NodeType(n.NodeType))
		if err != nil {
			return Snapshot{}, apperr.Wrap(apperr.Unavailable, "hydrating node", err)
		}
		nodes = append(nodes, node)
	}

	edges := make([]Edge, 0, len(edgeRows))
	for _, e := range edgeRows {
		edge, err := NewEdge(e.Source, e.Destination, e.RequestCount, e.ErrorCount, e.AvgLatencyMs, e.P99LatencyMs)
		if err != nil {
			return Snapshot{}, apperr.Wrap(apperr.Unavailable, "hydrating edge", err)
		}
		edges = append(edges, edge)
	}

	return NewSnapshot(row.SnapshotID, row.TimestampStart, row.TimestampEnd, nodes, edges)
}
