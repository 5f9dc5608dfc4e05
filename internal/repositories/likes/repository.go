// Package likes persists the (video, user) like relation. The composite
// primary key guarantees at most one row per pair.
package likes

import "context"

type Repository interface {
	// Insert adds the like and reports whether a row was created. A row that
	// already exists is left untouched and reported as false.
	Insert(ctx context.Context, videoID, userID string) (bool, error)
	// Delete removes the like and reports whether a row existed.
	Delete(ctx context.Context, videoID, userID string) (bool, error)
	Exists(ctx context.Context, videoID, userID string) (bool, error)
	CountByVideo(ctx context.Context, videoID string) (int64, error)
}
