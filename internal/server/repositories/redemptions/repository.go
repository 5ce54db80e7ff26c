package redemptions

import (
	"context"

	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
)

// Repository persists per-(user, deal) usage counters.
//
// TryIncrement is the concurrency-critical operation: the store must apply
// the cap check and the increment as one atomic conditional update, so two
// racing redemptions can never both take the last slot under a cap.
type Repository interface {
	// EnsureRecord lazily creates the (userID, dealID) counter at zero.
	// Creating an existing record is a no-op.
	EnsureRecord(ctx context.Context, userID, dealID string) error

	// TryIncrement atomically increments the counter if the deal's usage
	// cap allows it and returns the new value. A counter already at the
	// cap yields common.ErrorRedemptionLimit and stays unchanged.
	TryIncrement(ctx context.Context, userID, dealID string) (int32, error)

	// ListForUser returns all redemption records of one user.
	ListForUser(ctx context.Context, userID string) ([]*models.Redemption, error)

	// DeleteForUser removes all records of one user (account deletion).
	DeleteForUser(ctx context.Context, userID string) error
}
