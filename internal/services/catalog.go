package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/models"
	"github.com/dmitrijs2005/golive/internal/repositories/repomanager"
)

// DefaultPageSize is used when a list call passes a non-positive limit.
const DefaultPageSize = 50

// CatalogService is the read side used by pages: videos, channels,
// comments and like state.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resolver    *AssetResolver
}

func NewCatalogService(db *sql.DB, rm repomanager.RepositoryManager, resolver *AssetResolver) *CatalogService {
	return &CatalogService{db: db, repomanager: rm, resolver: resolver}
}

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return limit
}

func (s *CatalogService) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	return s.repomanager.Videos(s.db).GetByID(ctx, id)
}

// ListVideos returns the newest videos; an empty category lists all.
func (s *CatalogService) ListVideos(ctx context.Context, category string, limit int) ([]*models.Video, error) {
	return s.repomanager.Videos(s.db).List(ctx, category, pageSize(limit))
}

func (s *CatalogService) ListChannelVideos(ctx context.Context, ownerID string, limit int) ([]*models.Video, error) {
	return s.repomanager.Videos(s.db).ListByOwner(ctx, ownerID, pageSize(limit))
}

func (s *CatalogService) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	return s.repomanager.Channels(s.db).GetByID(ctx, id)
}

func (s *CatalogService) SaveChannel(ctx context.Context, c *models.Channel) error {
	if c == nil || c.ID == "" || c.Name == "" {
		return common.Validationf("channel id and name are required")
	}
	return s.repomanager.Channels(s.db).Upsert(ctx, c)
}

// ListComments returns comments newest first.
func (s *CatalogService) ListComments(ctx context.Context, videoID string, limit int) ([]*models.Comment, error) {
	return s.repomanager.Comments(s.db).ListByVideo(ctx, videoID, pageSize(limit))
}

func (s *CatalogService) LikeCount(ctx context.Context, videoID string) (int64, error) {
	return s.repomanager.Likes(s.db).CountByVideo(ctx, videoID)
}

func (s *CatalogService) IsLiked(ctx context.Context, videoID, userID string) (bool, error) {
	return s.repomanager.Likes(s.db).Exists(ctx, videoID, userID)
}

// VideoPage is everything a watch page renders for one video.
type VideoPage struct {
	Video        *models.Video
	Channel      *models.Channel
	VideoURL     string
	ThumbnailURL string
	Likes        int64
	Liked        bool
	Comments     []*models.Comment
}

// VideoPage loads the video and its derived state for viewerID. An empty
// viewerID skips the liked lookup. A missing channel profile is not an
// error.
func (s *CatalogService) VideoPage(ctx context.Context, videoID, viewerID string, commentLimit int) (*VideoPage, error) {
	v, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	page := &VideoPage{Video: v, ThumbnailURL: s.resolver.ResolveThumbnailURL(v.ThumbnailAssetPath)}

	if page.VideoURL, err = s.resolver.ResolveVideoURL(ctx, v.VideoAssetPath); err != nil {
		return nil, err
	}
	if page.Channel, err = s.GetChannel(ctx, v.OwnerID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if page.Likes, err = s.LikeCount(ctx, videoID); err != nil {
		return nil, err
	}
	if viewerID != "" {
		if page.Liked, err = s.IsLiked(ctx, videoID, viewerID); err != nil {
			return nil, err
		}
	}
	if page.Comments, err = s.ListComments(ctx, videoID, commentLimit); err != nil {
		return nil, err
	}
	return page, nil
}
