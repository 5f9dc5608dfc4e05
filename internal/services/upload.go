// Package services contains golive business logic. This file implements
// UploadService, which turns a video and a thumbnail into a published
// Video row with cleanup of partially written blobs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/dmitrijs2005/golive/internal/metrics"
	"github.com/dmitrijs2005/golive/internal/models"
	"github.com/dmitrijs2005/golive/internal/objectstore"
	"github.com/dmitrijs2005/golive/internal/repositories/repomanager"
	"github.com/dmitrijs2005/golive/internal/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// cleanupTimeout bounds the best-effort deletion of orphaned blobs. It is
// measured from the moment the failure is detected, not from the caller's
// deadline.
const cleanupTimeout = 30 * time.Second

// Buckets names the private video bucket and the public thumbnail bucket.
type Buckets struct {
	Videos     string
	Thumbnails string
}

// PublishRequest carries the inputs of a publish. Content types are
// optional and sniffed from the bytes when empty.
type PublishRequest struct {
	Video                []byte
	VideoContentType     string
	Thumbnail            []byte
	ThumbnailContentType string
	Title                string
	Description          string
	Category             string
	OwnerID              string
}

func (r PublishRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return common.Validationf("title is required")
	case strings.TrimSpace(r.Category) == "":
		return common.Validationf("category is required")
	case len(r.Video) == 0:
		return common.Validationf("video content is empty")
	case len(r.Thumbnail) == 0:
		return common.Validationf("thumbnail content is empty")
	case strings.TrimSpace(r.OwnerID) == "":
		return common.Validationf("owner id is required")
	}
	return nil
}

// UploadService publishes videos. Blob writes strictly precede the
// metadata insert, so every visible Video row references existing blobs.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	buckets     Buckets
	logger      logging.Logger
	metrics     *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewUploadService(db *sql.DB, rm repomanager.RepositoryManager, store objectstore.Store, buckets Buckets,
	logger logging.Logger, m *metrics.Metrics) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: rm,
		store:       store,
		buckets:     buckets,
		logger:      logger.With("module", "upload"),
		metrics:     m,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

type blob struct {
	bucket string
	key    string
}

// Publish validates req, writes the video then the thumbnail, and only then
// inserts the Video row. A failed thumbnail write removes the video blob; a
// failed insert removes both. Blobs that cannot be deleted are queued for
// the reclaimer. The first failing step's error is returned.
func (s *UploadService) Publish(ctx context.Context, req PublishRequest) (video *models.Video, err error) {
	start := s.now()
	ctx, span := tracing.Start(ctx, "upload.publish", attribute.String("owner_id", req.OwnerID))
	defer func() {
		s.metrics.RecordPublish(publishResult(err), s.now().Sub(start).Seconds())
		tracing.End(span, err)
	}()

	if err := req.validate(); err != nil {
		return nil, err
	}

	videoBlob, err := s.put(ctx, s.buckets.Videos, req.OwnerID, req.Video, req.VideoContentType)
	if err != nil {
		return nil, err
	}

	thumbBlob, err := s.put(ctx, s.buckets.Thumbnails, req.OwnerID, req.Thumbnail, req.ThumbnailContentType)
	if err != nil {
		s.cleanup(ctx, videoBlob)
		return nil, err
	}

	v := &models.Video{
		ID:                 s.newID(),
		Title:              strings.TrimSpace(req.Title),
		Description:        strings.TrimSpace(req.Description),
		Category:           strings.TrimSpace(req.Category),
		VideoAssetPath:     videoBlob.key,
		ThumbnailAssetPath: thumbBlob.key,
		OwnerID:            strings.TrimSpace(req.OwnerID),
		ViewCount:          0,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.repomanager.Videos(s.db).Create(ctx, v); err != nil {
		s.cleanup(ctx, videoBlob, thumbBlob)
		return nil, common.NewMetadataError("videos.create", err)
	}

	s.logger.Info(ctx, "video published", "video_id", v.ID, "owner", v.OwnerID,
		"video_key", v.VideoAssetPath, "thumbnail_key", v.ThumbnailAssetPath)
	return v, nil
}

func (s *UploadService) put(ctx context.Context, bucket, owner string, body []byte, contentType string) (blob, error) {
	ct, ext := objectstore.DetectType(body, contentType)
	key := objectstore.NewKey(owner, ext)

	written, err := s.store.Put(ctx, bucket, key, body, ct)
	if err != nil {
		if !errors.Is(err, common.ErrStorageWrite) {
			err = fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
		}
		return blob{}, err
	}
	s.metrics.RecordUpload(bucket, len(body))
	return blob{bucket: bucket, key: written}, nil
}

// cleanup deletes blobs written by an aborted publish. It runs detached from
// ctx cancellation: an abandoned caller must not leave orphans behind.
func (s *UploadService) cleanup(ctx context.Context, blobs ...blob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	for _, b := range blobs {
		err := s.store.Delete(ctx, b.bucket, b.key)
		if err == nil {
			continue
		}
		s.logger.Warn(ctx, "orphan delete failed, queueing for reclamation",
			"bucket", b.bucket, "key", b.key, "error", err)

		if qerr := s.repomanager.Reclamations(s.db).Enqueue(ctx, b.bucket, b.key, common.ReasonPublishAborted); qerr != nil {
			s.logger.Error(ctx, "orphaned blob left behind", "bucket", b.bucket, "key", b.key,
				"delete_error", err, "enqueue_error", qerr)
		}
	}
}

func publishResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, common.ErrValidation):
		return metrics.ResultValidation
	case errors.Is(err, common.ErrStorageWrite):
		return metrics.ResultStorage
	case common.IsMetadataError(err):
		return metrics.ResultMetadata
	default:
		return metrics.ResultError
	}
}
