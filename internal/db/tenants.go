package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateTenant inserts a new tenant and returns its id.
func (q *Queries) CreateTenant(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `INSERT INTO tenants (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating tenant: %w", err)
	}
	return id, nil
}

// GetTenant returns a tenant by id.
func (q *Queries) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	var t Tenant
	err := q.db.QueryRow(ctx, `SELECT id, name, created_at FROM tenants WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return Tenant{}, err
	}
	return t, nil
}

// GetTenantByName returns a tenant by its unique name, used to resolve the
// tenant identified in an inbound request header.
func (q *Queries) GetTenantByName(ctx context.Context, name string) (Tenant, error) {
	var t Tenant
	err := q.db.QueryRow(ctx, `SELECT id, name, created_at FROM tenants WHERE name = $1`, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return Tenant{}, err
	}
	return t, nil
}

// DeleteTenant removes a tenant record. Cascading foreign keys remove all of
// its snapshots, baselines, feedback, and whitelist entries.
func (q *Queries) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	return nil
}

// ListTenants returns every tenant, used by the scheduler to iterate per-tenant
// baseline/notification jobs.
func (q *Queries) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, created_at FROM tenants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
