package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Tenant is a row from the tenants table.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// SnapshotRow is a row from the snapshots table.
type SnapshotRow struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	SnapshotID      string
	TimestampStart  time.Time
	TimestampEnd    time.Time
	CreatedAt       time.Time
}

// NodeRow is a row from the nodes table.
type NodeRow struct {
	SnapshotPK uuid.UUID
	Name       string
	Namespace  string
	NodeType   string
}

// EdgeRow is a row from the edges table.
type EdgeRow struct {
	SnapshotPK   uuid.UUID
	Source       string
	Destination  string
	RequestCount int64
	ErrorCount   int64
	AvgLatencyMs float64
	P99LatencyMs float64
}

// BaselineRow is a row from the baselines table (persisted EdgeProfile).
type BaselineRow struct {
	TenantID         uuid.UUID
	Source           string
	Destination      string
	MeanRequestCount float64
	StdRequestCount  float64
	MeanErrorRate    float64
	StdErrorRate     float64
	MeanP99LatencyMs float64
	StdP99LatencyMs  float64
	SampleCount      int32
	LastUpdated      time.Time
}

// FeedbackRow is a row from the feedback table.
type FeedbackRow struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	DriftEventID uuid.UUID
	Source       string
	Destination  string
	EventType    string
	Verdict      string
	Comment      pgtype.Text
	UserID       pgtype.UUID
	CreatedAt    time.Time
}

// WhitelistRow is a row from the whitelist table.
type WhitelistRow struct {
	TenantID    uuid.UUID
	Source      string
	Destination string
	Reason      string
	ExpiresAt   pgtype.Timestamptz
	CreatedAt   time.Time
}

// SuppressRuleRow is a row from the suppress_rules table.
type SuppressRuleRow struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	EventType      string
	ServicePattern string
	ExpiresAt      pgtype.Timestamptz
	CreatedAt      time.Time
}

// AuditLogRow is a row from the audit_log table.
type AuditLogRow struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Actor      string
	Action     string
	Resource   string
	ResourceID pgtype.UUID
	Detail     []byte
	CreatedAt  time.Time
}
