// Package reclamations queues object store blobs that must be deleted
// because no Video row references them.
package reclamations

import (
	"context"

	"github.com/dmitrijs2005/golive/internal/models"
)

type Repository interface {
	// Enqueue records (bucket, key) for deletion. Enqueueing the same blob
	// twice keeps the first entry.
	Enqueue(ctx context.Context, bucket, key, reason string) error
	// ListPending returns the entries with the fewest attempts first.
	ListPending(ctx context.Context, limit int) ([]*models.Reclamation, error)
	Delete(ctx context.Context, id string) error
	// MarkFailed bumps the attempt counter and stores cause.
	MarkFailed(ctx context.Context, id string, cause error) error
}
