package integration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/meshdrift/internal/apperr"
	"github.com/wisbric/meshdrift/pkg/graph"
)

// NoopIngestor stands in for the log-parsing/telemetry-collection adapter
// named out of scope in spec §1. FetchRecords always fails with
// Unimplemented so a misconfigured deployment fails loudly at the pipeline
// boundary instead of silently building empty snapshots.
type NoopIngestor struct{}

func (NoopIngestor) FetchRecords(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]graph.Record, error) {
	return nil, apperr.New(apperr.Unimplemented, "record ingestion is not configured for this deployment")
}

// NoopPolicyRenderer stands in for the NetworkPolicy-rendering/Git-PR
// adapter named out of scope in spec §1.
type NoopPolicyRenderer struct{}

func (NoopPolicyRenderer) RenderPolicy(ctx context.Context, tenantID uuid.UUID, edges []graph.Edge) ([]byte, error) {
	return nil, apperr.New(apperr.Unimplemented, "policy rendering is not configured for this deployment")
}
