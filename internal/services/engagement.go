package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/dmitrijs2005/golive/internal/metrics"
	"github.com/dmitrijs2005/golive/internal/models"
	"github.com/dmitrijs2005/golive/internal/repositories/repomanager"
	"github.com/dmitrijs2005/golive/internal/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultViewTimeout bounds a detached view increment when none is configured.
const DefaultViewTimeout = 5 * time.Second

// EngagementService handles likes, comments and view counts.
//
// Only "liked" is persisted. A dislike is caller-held view state (see
// models.Reaction); it never creates or removes a like row.
type EngagementService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
	viewTimeout time.Duration

	views sync.WaitGroup

	now   func() time.Time
	newID func() string
}

func NewEngagementService(db *sql.DB, rm repomanager.RepositoryManager, viewTimeout time.Duration,
	logger logging.Logger, m *metrics.Metrics) *EngagementService {
	if viewTimeout <= 0 {
		viewTimeout = DefaultViewTimeout
	}
	return &EngagementService{
		db:          db,
		repomanager: rm,
		logger:      logger.With("module", "engagement"),
		metrics:     m,
		viewTimeout: viewTimeout,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// ToggleLike flips the like of userID on videoID and returns the new state.
//
// The toggle is a delete keyed by the (video, user) primary key followed,
// when nothing was deleted, by an insert that ignores conflicts. The key
// keeps at most one row per pair under any interleaving; an insert that
// loses a race to a concurrent insert still reports liked. Errors are
// returned as-is without retry.
func (s *EngagementService) ToggleLike(ctx context.Context, videoID, userID string) (liked bool, err error) {
	ctx, span := tracing.Start(ctx, "engagement.toggle_like", attribute.String("video_id", videoID))
	defer func() { tracing.End(span, err) }()

	if strings.TrimSpace(videoID) == "" || strings.TrimSpace(userID) == "" {
		return false, common.Validationf("video id and user id are required")
	}

	repo := s.repomanager.Likes(s.db)

	deleted, err := repo.Delete(ctx, videoID, userID)
	if err != nil {
		s.metrics.RecordEngagement("like", metrics.ResultError)
		return false, err
	}
	if deleted {
		s.metrics.RecordEngagement("unlike", metrics.ResultOK)
		return false, nil
	}

	if _, err := repo.Insert(ctx, videoID, userID); err != nil {
		s.metrics.RecordEngagement("like", metrics.ResultError)
		return false, err
	}
	s.metrics.RecordEngagement("like", metrics.ResultOK)
	return true, nil
}

// AddComment appends a comment. Content is trimmed; blank content is a
// validation error and nothing is written.
func (s *EngagementService) AddComment(ctx context.Context, videoID, userID, content string) (_ *models.Comment, err error) {
	ctx, span := tracing.Start(ctx, "engagement.add_comment", attribute.String("video_id", videoID))
	defer func() { tracing.End(span, err) }()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.Validationf("comment content is empty")
	}
	if strings.TrimSpace(videoID) == "" || strings.TrimSpace(userID) == "" {
		return nil, common.Validationf("video id and user id are required")
	}

	c := &models.Comment{
		ID:        s.newID(),
		VideoID:   videoID,
		UserID:    userID,
		Content:   content,
		LikeCount: 0,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repomanager.Comments(s.db).Create(ctx, c); err != nil {
		s.metrics.RecordEngagement("comment", metrics.ResultError)
		return nil, err
	}
	s.metrics.RecordEngagement("comment", metrics.ResultOK)
	return c, nil
}

// IncrementViews records one view of videoID in the background and returns
// immediately. The increment outlives ctx cancellation but is bounded by
// the view timeout. Failures are logged and counted, never returned.
func (s *EngagementService) IncrementViews(ctx context.Context, videoID string) {
	s.views.Add(1)
	go func() {
		defer s.views.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.viewTimeout)
		defer cancel()
		ctx, span := tracing.Start(ctx, "engagement.increment_views", attribute.String("video_id", videoID))

		n, err := s.repomanager.Videos(s.db).IncrementViewCount(ctx, videoID)
		tracing.End(span, err)
		if err != nil {
			s.metrics.RecordEngagement("view", metrics.ResultError)
			s.logger.Warn(ctx, "view increment dropped", "video_id", videoID, "error", err)
			return
		}
		s.metrics.RecordEngagement("view", metrics.ResultOK)
		s.logger.Debug(ctx, "view counted", "video_id", videoID, "views", n)
	}()
}

// Wait blocks until every in-flight view increment has finished.
func (s *EngagementService) Wait() {
	s.views.Wait()
}
