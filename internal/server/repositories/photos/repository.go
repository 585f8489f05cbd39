package photos

import (
	"context"

	"github.com/dmitrijs2005/remotefiles/internal/server/models"
)

// Repository persists photo rows. Missing rows are reported as
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Photo, error)
	Delete(ctx context.Context, id, userID string) error
}
