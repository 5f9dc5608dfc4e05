// Package comments persists video comments.
package comments

import (
	"context"

	"github.com/dmitrijs2005/golive/internal/models"
)

type Repository interface {
	// Create inserts c. ID and CreatedAt must already be set and Content
	// must be non-blank.
	Create(ctx context.Context, c *models.Comment) error
	// ListByVideo returns comments newest first.
	ListByVideo(ctx context.Context, videoID string, limit int) ([]*models.Comment, error)
}
