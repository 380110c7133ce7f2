package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertSnapshot inserts or replaces the snapshot row for (tenant_id, snapshot_id)
// and returns its surrogate primary key. Callers run this within a transaction
// together with DeleteNodesBySnapshotPK/DeleteEdgesBySnapshotPK and the Insert*
// calls so the replace is atomic.
func (q *Queries) UpsertSnapshot(ctx context.Context, tenantID uuid.UUID, snapshotID string, start, end time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `
		INSERT INTO snapshots (tenant_id, snapshot_id, timestamp_start, timestamp_end)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, snapshot_id) DO UPDATE
			SET timestamp_start = EXCLUDED.timestamp_start,
			    timestamp_end   = EXCLUDED.timestamp_end
		RETURNING id
	`, tenantID, snapshotID, start, end).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting snapshot: %w", err)
	}
	return id, nil
}

// DeleteNodesBySnapshotPK removes all node rows for a snapshot, ahead of a fresh insert.
func (q *Queries) DeleteNodesBySnapshotPK(ctx context.Context, snapshotPK uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM nodes WHERE snapshot_pk = $1`, snapshotPK)
	if err != nil {
		return fmt.Errorf("deleting nodes: %w", err)
	}
	return nil
}

// DeleteEdgesBySnapshotPK removes all edge rows for a snapshot, ahead of a fresh insert.
func (q *Queries) DeleteEdgesBySnapshotPK(ctx context.Context, snapshotPK uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM edges WHERE snapshot_pk = $1`, snapshotPK)
	if err != nil {
		return fmt.Errorf("deleting edges: %w", err)
	}
	return nil
}

// InsertNode inserts one node row.
func (q *Queries) InsertNode(ctx context.Context, n NodeRow) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO nodes (snapshot_pk, name, namespace, node_type)
		VALUES ($1, $2, $3, $4)
	`, n.SnapshotPK, n.Name, n.Namespace, n.NodeType)
	if err != nil {
		return fmt.Errorf("inserting node: %w", err)
	}
	return nil
}

// InsertEdge inserts one edge row.
func (q *Queries) InsertEdge(ctx context.Context, e EdgeRow) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO edges (snapshot_pk, source, destination, request_count, error_count, avg_latency_ms, p99_latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.SnapshotPK, e.Source, e.Destination, e.RequestCount, e.ErrorCount, e.AvgLatencyMs, e.P99LatencyMs)
	if err != nil {
		return fmt.Errorf("inserting edge: %w", err)
	}
	return nil
}

// GetSnapshotByID returns the snapshot row for (tenant_id, snapshot_id).
// Wrong-tenant lookups return pgx.ErrNoRows, same as a missing snapshot_id —
// never a distinguishable "forbidden", to avoid an existence oracle.
func (q *Queries) GetSnapshotByID(ctx context.Context, tenantID uuid.UUID, snapshotID string) (SnapshotRow, error) {
	var s SnapshotRow
	err := q.db.QueryRow(ctx, `
		SELECT id, tenant_id, snapshot_id, timestamp_start, timestamp_end, created_at
		FROM snapshots WHERE tenant_id = $1 AND snapshot_id = $2
	`, tenantID, snapshotID).Scan(&s.ID, &s.TenantID, &s.SnapshotID, &s.TimestampStart, &s.TimestampEnd, &s.CreatedAt)
	if err != nil {
		return SnapshotRow{}, err
	}
	return s, nil
}

// GetLatestSnapshot returns the snapshot with the largest timestamp_start,
// ties broken by lexicographic snapshot_id.
func (q *Queries) GetLatestSnapshot(ctx context.Context, tenantID uuid.UUID) (SnapshotRow, error) {
	var s SnapshotRow
	err := q.db.QueryRow(ctx, `
		SELECT id, tenant_id, snapshot_id, timestamp_start, timestamp_end, created_at
		FROM snapshots WHERE tenant_id = $1
		ORDER BY timestamp_start DESC, snapshot_id DESC
		LIMIT 1
	`, tenantID).Scan(&s.ID, &s.TenantID, &s.SnapshotID, &s.TimestampStart, &s.TimestampEnd, &s.CreatedAt)
	if err != nil {
		return SnapshotRow{}, err
	}
	return s, nil
}

// GetLatestTwoSnapshots returns up to the two most recent snapshots, newest first.
func (q *Queries) GetLatestTwoSnapshots(ctx context.Context, tenantID uuid.UUID) ([]SnapshotRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, snapshot_id, timestamp_start, timestamp_end, created_at
		FROM snapshots WHERE tenant_id = $1
		ORDER BY timestamp_start DESC, snapshot_id DESC
		LIMIT 2
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying latest two snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var s SnapshotRow
		if err := rows.Scan(&s.ID, &s.TenantID, &s.SnapshotID, &s.TimestampStart, &s.TimestampEnd, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSnapshots returns the most-recent-first snapshots for a tenant, up to limit.
func (q *Queries) ListSnapshots(ctx context.Context, tenantID uuid.UUID, limit int32) ([]SnapshotRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, snapshot_id, timestamp_start, timestamp_end, created_at
		FROM snapshots WHERE tenant_id = $1
		ORDER BY timestamp_start DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var s SnapshotRow
		if err := rows.Scan(&s.ID, &s.TenantID, &s.SnapshotID, &s.TimestampStart, &s.TimestampEnd, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListNodesBySnapshotPK returns all node rows for a snapshot.
func (q *Queries) ListNodesBySnapshotPK(ctx context.Context, snapshotPK uuid.UUID) ([]NodeRow, error) {
	rows, err := q.db.Query(ctx, `SELECT snapshot_pk, name, namespace, node_type FROM nodes WHERE snapshot_pk = $1`, snapshotPK)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		var n NodeRow
		if err := rows.Scan(&n.SnapshotPK, &n.Name, &n.Namespace, &n.NodeType); err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListEdgesBySnapshotPK returns all edge rows for a snapshot.
func (q *Queries) ListEdgesBySnapshotPK(ctx context.Context, snapshotPK uuid.UUID) ([]EdgeRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT snapshot_pk, source, destination, request_count, error_count, avg_latency_ms, p99_latency_ms
		FROM edges WHERE snapshot_pk = $1
	`, snapshotPK)
	if err != nil {
		return nil, fmt.Errorf("listing edges: %w", err)
	}
	defer rows.Close()

	var out []EdgeRow
	for rows.Next() {
		var e EdgeRow
		if err := rows.Scan(&e.SnapshotPK, &e.Source, &e.Destination, &e.RequestCount, &e.ErrorCount, &e.AvgLatencyMs, &e.P99LatencyMs); err != nil {
			return nil, fmt.Errorf("scanning edge row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot and cascades to its nodes/edges.
// Returns true if a row was deleted.
func (q *Queries) DeleteSnapshot(ctx context.Context, tenantID uuid.UUID, snapshotID string) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM snapshots WHERE tenant_id = $1 AND snapshot_id = $2`, tenantID, snapshotID)
	if err != nil {
		return false, fmt.Errorf("deleting snapshot: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteSnapshotsOlderThan purges snapshots whose timestamp_end is older than the cutoff.
func (q *Queries) DeleteSnapshotsOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM snapshots WHERE tenant_id = $1 AND timestamp_end < $2`, tenantID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
