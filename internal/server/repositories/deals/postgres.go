// Package deals provides a PostgreSQL-backed repository for the deal
// catalog.
package deals

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

func (r *PostgresRepository) Create(ctx context.Context, deal *models.Deal) error {
	query := `
		INSERT INTO deals (id, title, description, usage_cap)
		VALUES ($1, $2, $3, $4)
	`
	var usageCap sql.NullInt32
	if deal.UsageCap != nil {
		usageCap = sql.NullInt32{Int32: *deal.UsageCap, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, deal.ID, deal.Title, deal.Description, usageCap); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	query := `
		SELECT id, title, description, usage_cap FROM deals
		WHERE id = $1
	`
	deal := &models.Deal{}
	var usageCap sql.NullInt32
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&deal.ID, &deal.Title, &deal.Description, &usageCap); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	if usageCap.Valid {
		deal.UsageCap = &usageCap.Int32
	}
	return deal, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Deal, error) {
	query := `
		SELECT id, title, description, usage_cap FROM deals
		ORDER BY title
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	defer rows.Close()

	var result []*models.Deal
	for rows.Next() {
		deal := &models.Deal{}
		var usageCap sql.NullInt32
		if err := rows.Scan(&deal.ID, &deal.Title, &deal.Description, &usageCap); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
		}
		if usageCap.Valid {
			deal.UsageCap = &usageCap.Int32
		}
		result = append(result, deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
