package models

import "time"

// Asset describes a blob written to the object store. Assets are immutable
// once written.
type Asset struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	Digest      string
}

// Reclamation is a queued deletion of a blob that was written but never
// became reachable through a Video row.
type Reclamation struct {
	ID        string
	Bucket    string
	Key       string
	Reason    string
	Attempts  int
	LastError string
	CreatedAt time.Time
}
