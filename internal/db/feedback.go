package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertFeedback records an operator verdict (confirm/dismiss) on a drift event.
func (q *Queries) InsertFeedback(ctx context.Context, f FeedbackRow) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `
		INSERT INTO feedback (tenant_id, drift_event_id, source, destination, event_type, verdict, comment, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, f.TenantID, f.DriftEventID, f.Source, f.Destination, f.EventType, f.Verdict, f.Comment, f.UserID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting feedback: %w", err)
	}
	return id, nil
}

// GetLatestFeedback returns the most recent verdict for (tenant_id, source, destination, event_type),
// used by the C9 feedback modifier to adjust future scores for the same recurring edge/event pair.
func (q *Queries) GetLatestFeedback(ctx context.Context, tenantID uuid.UUID, source, destination, eventType string) (FeedbackRow, error) {
	var f FeedbackRow
	err := q.db.QueryRow(ctx, `
		SELECT id, tenant_id, drift_event_id, source, destination, event_type, verdict, comment, user_id, created_at
		FROM feedback
		WHERE tenant_id = $1 AND source = $2 AND destination = $3 AND event_type = $4
		ORDER BY created_at DESC
		LIMIT 1
	`, tenantID, source, destination, eventType).Scan(
		&f.ID, &f.TenantID, &f.DriftEventID, &f.Source, &f.Destination, &f.EventType, &f.Verdict, &f.Comment, &f.UserID, &f.CreatedAt,
	)
	if err != nil {
		return FeedbackRow{}, err
	}
	return f, nil
}

// CountFeedbackByVerdict returns, for a given event_type, the total feedback
// count and the count carrying verdict "false_positive", used to compute
// the C9 false-positive rate for that event type.
func (q *Queries) CountFeedbackByVerdict(ctx context.Context, tenantID uuid.UUID, eventType string) (total, falsePositive int64, err error) {
	err = q.db.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE verdict = 'false_positive')
		FROM feedback
		WHERE tenant_id = $1 AND event_type = $2
	`, tenantID, eventType).Scan(&total, &falsePositive)
	if err != nil {
		return 0, 0, fmt.Errorf("counting feedback by verdict: %w", err)
	}
	return total, falsePositive, nil
}

// ListFeedbackByEdge returns feedback history for (tenant_id, source, destination), newest first.
func (q *Queries) ListFeedbackByEdge(ctx context.Context, tenantID uuid.UUID, source, destination string) ([]FeedbackRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tenant_id, drift_event_id, source, destination, event_type, verdict, comment, user_id, created_at
		FROM feedback
		WHERE tenant_id = $1 AND source = $2 AND destination = $3
		ORDER BY created_at DESC
	`, tenantID, source, destination)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackRow
	for rows.Next() {
		var f FeedbackRow
		if err := rows.Scan(&f.ID, &f.TenantID, &f.DriftEventID, &f.Source, &f.Destination, &f.EventType, &f.Verdict, &f.Comment, &f.UserID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
