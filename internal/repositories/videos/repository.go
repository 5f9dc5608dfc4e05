// Package videos persists Video metadata rows.
package videos

import (
	"context"

	"github.com/dmitrijs2005/golive/internal/models"
)

type Repository interface {
	// Create inserts a new row. ID, CreatedAt and ViewCount must already be set.
	Create(ctx context.Context, v *models.Video) error
	GetByID(ctx context.Context, id string) (*models.Video, error)
	// List returns the newest videos, optionally restricted to one category.
	List(ctx context.Context, category string, limit int) ([]*models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Video, error)
	// IncrementViewCount adds one view server-side and returns the new count.
	IncrementViewCount(ctx context.Context, id string) (int64, error)
}
