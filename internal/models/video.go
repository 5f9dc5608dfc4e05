// Package models defines the records persisted by the metadata store.
package models

import "time"

// Video is the metadata row linking an uploaded video blob and its
// thumbnail blob. A row is only ever inserted after both blobs exist.
type Video struct {
	ID                 string
	Title              string
	Description        string
	Category           string
	VideoAssetPath     string
	ThumbnailAssetPath string
	OwnerID            string
	ViewCount          int64
	CreatedAt          time.Time
}
