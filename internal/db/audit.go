package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CreateAuditLogEntryParams holds the columns for an audit_log insert.
type CreateAuditLogEntryParams struct {
	TenantID   uuid.UUID
	Actor      string
	Action     string
	Resource   string
	ResourceID pgtype.UUID
	Detail     []byte
}

// CreateAuditLogEntry appends one row to the append-only audit_log table.
func (q *Queries) CreateAuditLogEntry(ctx context.Context, p CreateAuditLogEntryParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO audit_log (tenant_id, actor, action, resource, resource_id, detail)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, p.TenantID, p.Actor, p.Action, p.Resource, p.ResourceID, p.Detail)
	if err != nil {
		return fmt.Errorf("inserting audit log entry: %w", err)
	}
	return nil
}

// ListAuditLog returns the most recent audit_log rows for a tenant, newest first.
func (q *Queries) ListAuditLog(ctx context.Context, tenantID uuid.UUID, limit int32) ([]AuditLogRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, actor, action, resource, resource_id, detail, created_at
		FROM audit_log WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	var out []AuditLogRow
	for rows.Next() {
		var r AuditLogRow
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Actor, &r.Action, &r.Resource, &r.ResourceID, &r.Detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit log row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
