package deals

import (
	"context"

	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
)

// Repository persists the deal catalog. The redemption ledger reads it but
// never writes it.
type Repository interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	List(ctx context.Context) ([]*models.Deal, error)
	Delete(ctx context.Context, id string) error
}
