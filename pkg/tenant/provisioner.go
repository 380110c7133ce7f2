package tenant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/meshdrift/internal/db"
)

// Provisioner creates and removes tenants. With row-level scoping there is
// no schema to create or tenant-specific migration to run — provisioning is
// a single insert, and deprovisioning cascades through every tenant_id
// foreign key.
type Provisioner struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// Provision inserts a new tenant record.
func (p *Provisioner) Provision(ctx context.Context, name string) (*Info, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant name must not be empty")
	}

	q := db.New(p.Pool)
	id, err := q.CreateTenant(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("inserting tenant record: %w", err)
	}

	p.Logger.Info("tenant provisioned", "tenant_id", id, "name", name)
	return &Info{TenantID: id, Name: name}, nil
}

// Deprovision removes a tenant and, via foreign-key cascade, every row it
// owns across snapshots, baselines, feedback, and whitelist entries.
func (p *Provisioner) Deprovision(ctx context.Context, tenantID uuid.UUID) error {
	q := db.New(p.Pool)
	if err := q.DeleteTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("deleting tenant %s: %w", tenantID, err)
	}
	p.Logger.Info("tenant deprovisioned", "tenant_id", tenantID)
	return nil
}
