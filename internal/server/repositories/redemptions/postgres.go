// Package redemptions provides a PostgreSQL-backed repository for the
// redemption ledger.
package redemptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/dbx"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureRecord(ctx context.Context, userID, dealID string) error {
	query := `
		INSERT INTO redemptions (user_id, deal_id, uses)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, deal_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, dealID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return nil
}

// TryIncrement relies on Postgres row-level locking: the UPDATE re-evaluates
// its predicate against the current row, so concurrent calls serialize on
// the (user_id, deal_id) row and at most usage_cap of them match. Zero rows
// updated means the cap is exhausted, not that the record is missing;
// callers ensure the record and the deal exist first.
func (r *PostgresRepository) TryIncrement(ctx context.Context, userID, dealID string) (int32, error) {
	query := `
		UPDATE redemptions r
		SET uses = r.uses + 1
		FROM deals d
		WHERE r.user_id = $1 AND r.deal_id = $2 AND d.id = r.deal_id
		  AND (d.usage_cap IS NULL OR r.uses < d.usage_cap)
		RETURNING r.uses
	`
	var uses int32
	if err := r.db.QueryRowContext(ctx, query, userID, dealID).Scan(&uses); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorRedemptionLimit
		}
		return 0, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return uses, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Redemption, error) {
	query := `
		SELECT user_id, deal_id, uses FROM redemptions
		WHERE user_id = $1
		ORDER BY deal_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	defer rows.Close()

	var result []*models.Redemption
	for rows.Next() {
		rec := &models.Redemption{}
		if err := rows.Scan(&rec.UserID, &rec.DealID, &rec.Uses); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}

	return result, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM redemptions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return nil
}
