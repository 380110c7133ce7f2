package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertWhitelist adds (or replaces) a standing suppression for (tenant_id, source, destination).
func (q *Queries) InsertWhitelist(ctx context.Context, w WhitelistRow) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO whitelist (tenant_id, source, destination, reason, expires_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (tenant_id, source, destination) DO UPDATE SET
			reason     = EXCLUDED.reason,
			expires_at = EXCLUDED.expires_at
	`, w.TenantID, w.Source, w.Destination, w.Reason, w.ExpiresAt)
	if err != nil {
		return fmt.Errorf("inserting whitelist entry: %w", err)
	}
	return nil
}

// DeleteWhitelist removes a standing suppression. Returns true if a row was removed.
func (q *Queries) DeleteWhitelist(ctx context.Context, tenantID uuid.UUID, source, destination string) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM whitelist WHERE tenant_id = $1 AND source = $2 AND destination = $3`, tenantID, source, destination)
	if err != nil {
		return false, fmt.Errorf("deleting whitelist entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListWhitelist returns all whitelist entries for a tenant, expired or not.
func (q *Queries) ListWhitelist(ctx context.Context, tenantID uuid.UUID) ([]WhitelistRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT tenant_id, source, destination, reason, expires_at, created_at
		FROM whitelist WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing whitelist: %w", err)
	}
	defer rows.Close()

	var out []WhitelistRow
	for rows.Next() {
		var w WhitelistRow
		if err := rows.Scan(&w.TenantID, &w.Source, &w.Destination, &w.Reason, &w.ExpiresAt, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning whitelist row: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// IsWhitelisted reports whether (tenant_id, source, destination) has an active,
// non-expired whitelist entry.
func (q *Queries) IsWhitelisted(ctx context.Context, tenantID uuid.UUID, source, destination string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM whitelist
			WHERE tenant_id = $1 AND source = $2 AND destination = $3
				AND (expires_at IS NULL OR expires_at > now())
		)
	`, tenantID, source, destination).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking whitelist: %w", err)
	}
	return exists, nil
}
