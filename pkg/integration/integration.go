// Package integration defines the contract boundary between the drift core
// and everything outside it: where records come from, where explain cards
// go, and how a tenant's access policy might eventually be rendered. No
// core function holds state beyond what spec §5 grants — these are
// interfaces plus the one concrete adapter per concern needed to prove the
// contract is wireable, not a reimplementation of the teacher's full
// integration surface.
package integration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/meshdrift/pkg/drift"
	"github.com/wisbric/meshdrift/pkg/graph"
)

// Ingestor supplies the request records a snapshot is built from. Log
// parsing and service-mesh telemetry collection are out of scope per
// spec §1 — this interface only names the boundary.
type Ingestor interface {
	FetchRecords(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]graph.Record, error)
}

// Notifier delivers an explain card to an operator-facing channel.
type Notifier interface {
	Notify(ctx context.Context, tenantID uuid.UUID, card drift.Card) error
}

// Publisher broadcasts raw drift events to any interested external
// subscriber (a SIEM, a dashboard), independent of Notifier's
// human-readable delivery.
type Publisher interface {
	Publish(ctx context.Context, tenantID uuid.UUID, events []drift.Event) error
}

// PolicyRenderer turns a set of observed edges into a NetworkPolicy
// manifest. Rendering and Git PR creation are out of scope per spec §1;
// this interface documents where that adapter would plug in.
type PolicyRenderer interface {
	RenderPolicy(ctx context.Context, tenantID uuid.UUID, edges []graph.Edge) ([]byte, error)
}
