package ml

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/meshdrift/internal/apperr"
	"github.com/wisbric/meshdrift/internal/db"
)

// whitelistModifier is the smart-score adjustment an active whitelist entry
// contributes, regardless of event type.
const whitelistModifier = -40

// WhitelistStore manages standing suppressions for known-good edges.
type WhitelistStore struct {
	q *db.Queries
}

// NewWhitelistStore creates a WhitelistStore backed by the given pool.
func NewWhitelistStore(pool *pgxpool.Pool) *WhitelistStore {
	return &WhitelistStore{q: db.New(pool)}
}

// Add inserts or replaces a whitelist entry for (source, destination). A nil
// expiresAt means the entry never expires.
func (s *WhitelistStore) Add(ctx context.Context, tenantID uuid.UUID, source, destination, reason string, expiresAt *time.Time) error {
	row := db.WhitelistRow{TenantID: tenantID, Source: source, Destination: destination, Reason: reason}
	if expiresAt != nil {
		row.ExpiresAt = pgtype.Timestamptz{Time: *expiresAt, Valid: true}
	}
	if err := s.q.InsertWhitelist(ctx, row); err != nil {
		return apperr.Wrap(apperr.Unavailable, "adding whitelist entry", err)
	}
	return nil
}

// Remove deletes a whitelist entry. Returns apperr.NotFound if none existed.
func (s *WhitelistStore) Remove(ctx context.Context, tenantID uuid.UUID, source, destination string) error {
	deleted, err := s.q.DeleteWhitelist(ctx, tenantID, source, destination)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "removing whitelist entry", err)
	}
	if !deleted {
		return apperr.New(apperr.NotFound, "no whitelist entry for edge")
	}
	return nil
}

// List returns every whitelist entry for a tenant, expired or not.
func (s *WhitelistStore) List(ctx context.Context, tenantID uuid.UUID) ([]db.WhitelistRow, error) {
	rows, err := s.q.ListWhitelist(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "listing whitelist", err)
	}
	return rows, nil
}

// IsActive reports whether (source, destination) currently has a
// non-expired whitelist entry.
func (s *WhitelistStore) IsActive(ctx context.Context, tenantID uuid.UUID, source, destination string) (bool, error) {
	active, err := s.q.IsWhitelisted(ctx, tenantID, source, destination)
	if err != nil {
		return false, apperr.Wrap(apperr.Unavailable, "checking whitelist", err)
	}
	return active, nil
}

// Modifier returns the smart-score adjustment for an edge: whitelistModifier
// if active, 0 otherwise.
func (s *WhitelistStore) Modifier(ctx context.Context, tenantID uuid.UUID, source, destination string) (int, error) {
	active, err := s.IsActive(ctx, tenantID, source, destination)
	if err != nil {
		return 0, err
	}
	if active {
		return whitelistModifier, nil
	}
	return 0, nil
}

// AddSuppressRule adds a standing suppression for eventType events whose
// source or destination matches servicePattern (a filepath.Match glob),
// grounded on ml/whitelist.py's SuppressRule. Unlike a whitelist entry, a
// suppress rule always expires.
func (s *WhitelistStore) AddSuppressRule(ctx context.Context, tenantID uuid.UUID, eventType, servicePattern string, expiresAt time.Time) error {
	row := db.SuppressRuleRow{
		TenantID:       tenantID,
		EventType:      eventType,
		ServicePattern: servicePattern,
		ExpiresAt:      pgtype.Timestamptz{Time: expiresAt, Valid: true},
	}
	if _, err := s.q.InsertSuppressRule(ctx, row); err != nil {
		return apperr.Wrap(apperr.Unavailable, "adding suppress rule", err)
	}
	return nil
}

// IsSuppressed reports whether an event of eventType touching source or
// destination matches any of the tenant's active suppress rules.
func (s *WhitelistStore) IsSuppressed(ctx context.Context, tenantID uuid.UUID, eventType, source, destination string) (bool, error) {
	rules, err := s.q.ListActiveSuppressRules(ctx, tenantID)
	if err != nil {
		return false, apperr.Wrap(apperr.Unavailable, "listing suppress rules", err)
	}

	for _, r := range rules {
		if r.EventType != eventType {
			continue
		}
		if matchesPattern(r.ServicePattern, source) || matchesPattern(r.ServicePattern, destination) {
			return true, nil
		}
	}
	return false, nil
}

func matchesPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}
