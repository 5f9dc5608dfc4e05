package common

import "time"

// Default logical bucket names. Both can be renamed through config.
const (
	VideosBucket     = "videos"
	ThumbnailsBucket = "thumbnails"
)

// SignedURLTTL is the validity window of every signed video URL.
const SignedURLTTL = 3600 * time.Second

// Reclamation reasons recorded with orphaned blobs.
const (
	ReasonPublishAborted = "publish_aborted"
)
