package models

import "time"

// Comment is an immutable remark on a video. Listing order is CreatedAt
// descending (newest first).
type Comment struct {
	ID        string
	VideoID   string
	UserID    string
	Content   string
	LikeCount int64
	CreatedAt time.Time
}
