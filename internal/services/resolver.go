package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/dmitrijs2005/golive/internal/metrics"
	"github.com/dmitrijs2005/golive/internal/objectstore"
	"github.com/dmitrijs2005/golive/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// URLCache remembers signed URLs. Implementations must expire entries after
// the ttl given to Set.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, url string, ttl time.Duration) error
}

// AssetResolver maps stored asset paths to URLs: signed and expiring for
// videos, public and permanent for thumbnails.
type AssetResolver struct {
	store       objectstore.Store
	buckets     Buckets
	cache       URLCache
	cacheMargin time.Duration
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewAssetResolver builds a resolver. cache may be nil. A cached URL is
// kept for the signing TTL minus margin so it is never served after it
// stops working.
func NewAssetResolver(store objectstore.Store, buckets Buckets, cache URLCache, margin time.Duration,
	logger logging.Logger, m *metrics.Metrics) *AssetResolver {
	return &AssetResolver{
		store:       store,
		buckets:     buckets,
		cache:       cache,
		cacheMargin: margin,
		logger:      logger.With("module", "resolver"),
		metrics:     m,
	}
}

// ResolveVideoURL returns a URL valid for common.SignedURLTTL. It fails
// with common.ErrAssetNotFound when the blob does not exist.
func (r *AssetResolver) ResolveVideoURL(ctx context.Context, path string) (_ string, err error) {
	ctx, span := tracing.Start(ctx, "resolver.video_url", attribute.String("key", path))
	defer func() { tracing.End(span, err) }()

	if strings.TrimSpace(path) == "" {
		return "", common.Validationf("asset path is empty")
	}
	cacheKey := r.buckets.Videos + "/" + path

	if r.cache != nil {
		u, ok, err := r.cache.Get(ctx, cacheKey)
		switch {
		case err != nil:
			r.logger.Warn(ctx, "signed url cache read failed", "key", cacheKey, "error", err)
		case ok:
			r.metrics.RecordURLCache(metrics.ResultHit)
			return u, nil
		default:
			r.metrics.RecordURLCache(metrics.ResultMiss)
		}
	}

	u, err := r.store.SignedURL(ctx, r.buckets.Videos, path, common.SignedURLTTL)
	if err != nil {
		return "", err
	}

	if ttl := common.SignedURLTTL - r.cacheMargin; r.cache != nil && ttl > 0 {
		if err := r.cache.Set(ctx, cacheKey, u, ttl); err != nil {
			r.logger.Warn(ctx, "signed url cache write failed", "key", cacheKey, "error", err)
		}
	}
	return u, nil
}

// ResolveThumbnailURL derives the public thumbnail URL. No I/O.
func (r *AssetResolver) ResolveThumbnailURL(path string) string {
	return r.store.PublicURL(r.buckets.Thumbnails, path)
}
