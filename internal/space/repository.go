// internal/space/repository.go
//
// Space membership and dashboard counters.
//
// Context
// -------
// A user may belong to many spaces.  The *current* space is the membership
// with the most recent `last_selected_at`; there is no separate "selected
// space" column.  Counters feed the dashboard and are each one cheap
// COUNT(*) so the caller can run them concurrently.
//
// Notes
// -----
// • CurrentForUser returns (nil, nil) when the user has no membership.
// • SeatCount returns 1 when no seat row exists (free tier).
// • CreatePersonal is idempotent per owner: an owned space is returned
//   instead of creating a second one.

package space

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PersonalName is the name of the space created for a new user.
const PersonalName = "Personal"

// Store wraps the shared *sqlx.DB.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore returns a Store bound to db.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db, now: time.Now} }

// CurrentForUser returns the most recently selected space for userID.
func (s *Store) CurrentForUser(ctx context.Context, userID string) (*DTO, error) {
	const q = `
        SELECT s.id, s.owner_id, s.name, s.tier, s.image, sm.role
        FROM   space_member sm
        JOIN   space s ON s.id = sm.space_id
        WHERE  sm.user_id = ?
        ORDER  BY sm.last_selected_at DESC
        LIMIT  1`
	var d DTO
	if err := s.db.GetContext(ctx, &d, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("space: current for user: %w", err)
	}
	return &d, nil
}

// CreatePersonal gives ownerID a hobby-tier "Personal" space with ownerID
// as its admin member, unless the user already owns a space.  It returns
// the space id.
func (s *Store) CreatePersonal(ctx context.Context, ownerID string) (string, error) {
	const qOwned = `SELECT id FROM space WHERE owner_id = ? LIMIT 1`
	var id string
	err := s.db.GetContext(ctx, &id, qOwned, ownerID)
	switch {
	case err == nil:
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("space: owned space: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("space: create personal: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id = uuid.NewString()
	const qSpace = `INSERT INTO space (id, name, owner_id, tier) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, qSpace, id, PersonalName, ownerID, TierHobby); err != nil {
		return "", fmt.Errorf("space: create personal: %w", err)
	}
	const qMember = `
        INSERT INTO space_member (space_id, user_id, role, last_selected_at)
        VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, qMember, id, ownerID, RoleAdmin, s.now().UTC()); err != nil {
		return "", fmt.Errorf("space: create personal: member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("space: create personal: commit: %w", err)
	}
	return id, nil
}

// LivePollCount counts non-deleted live polls in the space.
func (s *Store) LivePollCount(ctx context.Context, spaceID string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM   poll
        WHERE  space_id = ?
          AND  status = 'live'
          AND  deleted = FALSE`
	return s.count(ctx, "live polls", q, spaceID)
}

// UpcomingEventCount counts confirmed events starting at or after now.
func (s *Store) UpcomingEventCount(ctx context.Context, spaceID string, now time.Time) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM   scheduled_event
        WHERE  space_id = ?
          AND  start >= ?
          AND  status = 'confirmed'
          AND  deleted_at IS NULL`
	return s.count(ctx, "upcoming events", q, spaceID, now)
}

// MemberCount counts memberships of the space.
func (s *Store) MemberCount(ctx context.Context, spaceID string) (int, error) {
	const q = `SELECT COUNT(*) FROM space_member WHERE space_id = ?`
	return s.count(ctx, "members", q, spaceID)
}

// SeatCount returns the purchased seat quantity, or 1 without a seat row.
func (s *Store) SeatCount(ctx context.Context, spaceID string) (int, error) {
	const q = `SELECT quantity FROM space_seat WHERE space_id = ? LIMIT 1`
	var n int
	if err := s.db.GetContext(ctx, &n, q, spaceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 1, nil
		}
		return 0, fmt.Errorf("space: seats: %w", err)
	}
	return n, nil
}

func (s *Store) count(ctx context.Context, what, q string, args ...any) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, fmt.Errorf("space: %s: %w", what, err)
	}
	return n, nil
}
