package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertSuppressRule adds a standing suppression rule matching a drift event_type
// and a glob-style service name pattern.
func (q *Queries) InsertSuppressRule(ctx context.Context, r SuppressRuleRow) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `
		INSERT INTO suppress_rules (tenant_id, event_type, service_pattern, expires_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, r.TenantID, r.EventType, r.ServicePattern, r.ExpiresAt).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting suppress rule: %w", err)
	}
	return id, nil
}

// DeleteSuppressRule removes a suppression rule by id. Returns true if a row was removed.
func (q *Queries) DeleteSuppressRule(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM suppress_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, fmt.Errorf("deleting suppress rule: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListActiveSuppressRules returns the tenant's non-expired suppress rules.
func (q *Queries) ListActiveSuppressRules(ctx context.Context, tenantID uuid.UUID) ([]SuppressRuleRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, event_type, service_pattern, expires_at, created_at
		FROM suppress_rules
		WHERE tenant_id = $1 AND (expires_at IS NULL OR expires_at > now())
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing suppress rules: %w", err)
	}
	defer rows.Close()

	var out []SuppressRuleRow
	for rows.Next() {
		var r SuppressRuleRow
		if err := rows.Scan(&r.ID, &r.TenantID, &r.EventType, &r.ServicePattern, &r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning suppress rule row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
