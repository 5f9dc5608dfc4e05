// Package channels persists channel profiles.
package channels

import (
	"context"

	"github.com/dmitrijs2005/golive/internal/models"
)

type Repository interface {
	// Upsert creates the channel or replaces its profile fields. The
	// subscriber count is kept on update.
	Upsert(ctx context.Context, c *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
}
