package ml

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/meshdrift/internal/apperr"
	"github.com/wisbric/meshdrift/internal/db"
)

// Verdict is an operator's judgment on a past drift event.
type Verdict string

const (
	VerdictTruePositive  Verdict = "true_positive"
	VerdictFalsePositive Verdict = "false_positive"
	VerdictExpected      Verdict = "expected"
)

// feedbackModifiers maps a verdict to the smart-score adjustment future
// occurrences of the same edge/event pair receive.
var feedbackModifiers = map[Verdict]int{
	VerdictFalsePositive: -40,
	VerdictExpected:      -30,
	VerdictTruePositive:  0,
}

// Feedback is an operator's recorded verdict on a drift event.
type Feedback struct {
	DriftEventID uuid.UUID
	Source       string
	Destination  string
	EventType    string
	Verdict      Verdict
	Comment      string
	UserID       uuid.UUID
}

// FeedbackStore persists operator verdicts and, optionally, cascades an
// "expected" verdict into a standing whitelist entry.
type FeedbackStore struct {
	q             *db.Queries
	whitelist     *WhitelistStore
	autoWhitelist bool
}

// NewFeedbackStore creates a FeedbackStore backed by the given pool.
// autoWhitelist controls whether recording an "expected" verdict also
// inserts a whitelist entry for the edge (spec allows, does not require,
// this cascade).
func NewFeedbackStore(pool *pgxpool.Pool, autoWhitelist bool) *FeedbackStore {
	return &FeedbackStore{q: db.New(pool), whitelist: NewWhitelistStore(pool), autoWhitelist: autoWhitelist}
}

// Record stores a verdict and, if autoWhitelist is set and the verdict is
// "expected", inserts a corresponding whitelist entry for the edge.
func (s *FeedbackStore) Record(ctx context.Context, tenantID uuid.UUID, f Feedback) error {
	row := db.FeedbackRow{
		TenantID:     tenantID,
		DriftEventID: f.DriftEventID,
		Source:       f.Source,
		Destination:  f.Destination,
		EventType:    f.EventType,
		Verdict:      string(f.Verdict),
		CreatedAt:    time.Time{},
	}
	if f.Comment != "" {
		row.Comment = pgtype.Text{String: f.Comment, Valid: true}
	}
	if f.UserID != uuid.Nil {
		row.UserID = pgtype.UUID{Bytes: f.UserID, Valid: true}
	}

	if _, err := s.q.InsertFeedback(ctx, row); err != nil {
		return apperr.Wrap(apperr.Unavailable, "recording feedback", err)
	}

	if s.autoWhitelist && f.Verdict == VerdictExpected {
		if err := s.whitelist.Add(ctx, tenantID, f.Source, f.Destination, "auto-whitelisted from feedback", nil); err != nil {
			return err
		}
	}
	return nil
}

// Modifier returns the smart-score adjustment contributed by the most recent
// feedback on (source, destination, eventType), or 0 if none exists.
func (s *FeedbackStore) Modifier(ctx context.Context, tenantID uuid.UUID, source, destination, eventType string) (int, error) {
	row, err := s.q.GetLatestFeedback(ctx, tenantID, source, destination, eventType)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, apperr.Wrap(apperr.Unavailable, "fetching latest feedback", err)
	}
	return feedbackModifiers[Verdict(row.Verdict)], nil
}

// FalsePositiveRate returns the fraction of feedback recorded for eventType
// that carried a "false_positive" verdict, grounded on ml/feedback.py's
// get_false_positive_pattern. Returns 0 with no error when no feedback has
// been recorded yet for that event type.
func (s *FeedbackStore) FalsePositiveRate(ctx context.Context, tenantID uuid.UUID, eventType string) (float64, error) {
	total, falsePositive, err := s.q.CountFeedbackByVerdict(ctx, tenantID, eventType)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, "counting feedback by verdict", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(falsePositive) / float64(total), nil
}
