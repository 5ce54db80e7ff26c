package credentials

import (
	"context"

	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
)

// Repository persists credential records. It is the only component that
// ever sees password hashes.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int, userNameFilter string) ([]*models.User, error)
}
