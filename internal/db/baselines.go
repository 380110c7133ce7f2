package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertBaseline inserts or replaces a tenant's EdgeProfile for (source, destination).
func (q *Queries) UpsertBaseline(ctx context.Context, b BaselineRow) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO baselines (tenant_id, source, destination,
			mean_request_count, std_request_count,
			mean_error_rate, std_error_rate,
			mean_p99_latency_ms, std_p99_latency_ms,
			sample_count, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (tenant_id, source, destination) DO UPDATE SET
			mean_request_count  = EXCLUDED.mean_request_count,
			std_request_count   = EXCLUDED.std_request_count,
			mean_error_rate     = EXCLUDED.mean_error_rate,
			std_error_rate      = EXCLUDED.std_error_rate,
			mean_p99_latency_ms = EXCLUDED.mean_p99_latency_ms,
			std_p99_latency_ms  = EXCLUDED.std_p99_latency_ms,
			sample_count        = EXCLUDED.sample_count,
			last_updated        = EXCLUDED.last_updated
	`, b.TenantID, b.Source, b.Destination,
		b.MeanRequestCount, b.StdRequestCount,
		b.MeanErrorRate, b.StdErrorRate,
		b.MeanP99LatencyMs, b.StdP99LatencyMs,
		b.SampleCount, b.LastUpdated)
	if err != nil {
		return fmt.Errorf("upserting baseline: %w", err)
	}
	return nil
}

// GetBaseline returns the EdgeProfile for (tenant_id, source, destination).
func (q *Queries) GetBaseline(ctx context.Context, tenantID uuid.UUID, source, destination string) (BaselineRow, error) {
	var b BaselineRow
	err := q.db.QueryRow(ctx, `
		SELECT tenant_id, source, destination,
			mean_request_count, std_request_count,
			mean_error_rate, std_error_rate,
			mean_p99_latency_ms, std_p99_latency_ms,
			sample_count, last_updated
		FROM baselines WHERE tenant_id = $1 AND source = $2 AND destination = $3
	`, tenantID, source, destination).Scan(
		&b.TenantID, &b.Source, &b.Destination,
		&b.MeanRequestCount, &b.StdRequestCount,
		&b.MeanErrorRate, &b.StdErrorRate,
		&b.MeanP99LatencyMs, &b.StdP99LatencyMs,
		&b.SampleCount, &b.LastUpdated,
	)
	if err != nil {
		return BaselineRow{}, err
	}
	return b, nil
}

// ListBaselines returns all EdgeProfiles for a tenant.
func (q *Queries) ListBaselines(ctx context.Context, tenantID uuid.UUID) ([]BaselineRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT tenant_id, source, destination,
			mean_request_count, std_request_count,
			mean_error_rate, std_error_rate,
			mean_p99_latency_ms, std_p99_latency_ms,
			sample_count, last_updated
		FROM baselines WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing baselines: %w", err)
	}
	defer rows.Close()

	var out []BaselineRow
	for rows.Next() {
		var b BaselineRow
		if err := rows.Scan(
			&b.TenantID, &b.Source, &b.Destination,
			&b.MeanRequestCount, &b.StdRequestCount,
			&b.MeanErrorRate, &b.StdErrorRate,
			&b.MeanP99LatencyMs, &b.StdP99LatencyMs,
			&b.SampleCount, &b.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scanning baseline row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteStaleBaselines evicts profiles whose last_updated is older than the cutoff
// (an edge absent for W consecutive windows).
func (q *Queries) DeleteStaleBaselines(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM baselines WHERE tenant_id = $1 AND last_updated < $2`, tenantID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting stale baselines: %w", err)
	}
	return tag.RowsAffected(), nil
}
