// internal/auth/merge.go
//
// Guest-to-user merge.
//
// A legacy guest owns polls, participations, and comments by `guest_id`.
// When that guest signs in for real, ownership moves to the user id in one
// transaction so a partial merge is never visible.

package auth

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/metrics"
)

var mergeTables = []string{"poll", "participant", "comment"}

// MergeGuestIntoUser reassigns every guest-owned row to userID.
func MergeGuestIntoUser(ctx context.Context, db *sqlx.DB, userID, guestID string) error {
	if userID == "" || guestID == "" || userID == guestID {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("auth: merge guest: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var moved int64
	for _, table := range mergeTables {
		q := `UPDATE ` + table + ` SET user_id = ?, guest_id = NULL WHERE guest_id = ?`
		res, err := tx.ExecContext(ctx, q, userID, guestID)
		if err != nil {
			return fmt.Errorf("auth: merge guest: %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		moved += n
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("auth: merge guest: commit: %w", err)
	}

	metrics.GuestMerges.Inc()
	zap.L().Info("guest merged",
		zap.String("user_id", userID),
		zap.String("guest_id", guestID),
		zap.Int64("rows", moved))
	return nil
}
