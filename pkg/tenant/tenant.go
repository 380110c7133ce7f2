// Package tenant carries the resolved tenant identity through a request or
// task, and resolves it at the edge. Unlike the teacher's schema-per-tenant
// design, MeshDrift scopes every table by a tenant_id column, so Info holds
// no schema name — only the identity itself.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Info is the resolved tenant context for the current request or task.
type Info struct {
	TenantID   uuid.UUID
	Name       string
	SuperAdmin bool
	UserID     *uuid.UUID
	RequestID  string
}

type contextKey string

const infoKey contextKey = "tenant_info"

// NewContext stores tenant info in the context.
func NewContext(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// FromContext extracts the tenant info from the context. Returns nil if no
// tenant is set.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(infoKey).(*Info)
	return v
}

// WithTenant builds a context carrying a fixed tenant identity, used by the
// worker's per-tenant scheduler loops where there is no inbound request to
// resolve against.
func WithTenant(ctx context.Context, tenantID uuid.UUID, name string) context.Context {
	return NewContext(ctx, &Info{TenantID: tenantID, Name: name})
}
