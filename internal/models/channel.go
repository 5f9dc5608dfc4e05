package models

// Channel is the public view of a user who owns videos.
type Channel struct {
	ID              string
	Name            string
	AvatarAssetPath string
	BannerAssetPath string
	SubscriberCount int64
	Description     string
}
