package services

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/metrics"
	"github.com/dmitrijs2005/golive/internal/objectstore"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoRequest() PublishRequest {
	return PublishRequest{
		Video:     mp4Bytes,
		Thumbnail: pngBytes,
		Title:     "Demo",
		Category:  "Gaming",
		OwnerID:   "u1",
	}
}

func (e *env) uploadService(store objectstore.Store) *UploadService {
	return NewUploadService(e.db, e.rm, store, testBuckets(), e.logger, e.metrics)
}

func TestPublish_DemoScenario(t *testing.T) {
	e := newEnv(t)
	svc := e.uploadService(e.store)
	ctx := context.Background()

	v, err := svc.Publish(ctx, demoRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(0), v.ViewCount)
	assert.NotEmpty(t, v.ID)
	assert.True(t, strings.HasPrefix(v.VideoAssetPath, "u1/"), v.VideoAssetPath)
	assert.True(t, strings.HasPrefix(v.ThumbnailAssetPath, "u1/"), v.ThumbnailAssetPath)
	assert.True(t, strings.HasSuffix(v.ThumbnailAssetPath, ".png"), v.ThumbnailAssetPath)
	assert.NotEqual(t, v.VideoAssetPath, v.ThumbnailAssetPath)

	stored, err := e.rm.Videos(e.db).GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo", stored.Title)
	assert.Equal(t, v.VideoAssetPath, stored.VideoAssetPath)

	ct, ok := e.store.ContentType(common.ThumbnailsBucket, v.ThumbnailAssetPath)
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)

	resolver := NewAssetResolver(e.store, testBuckets(), nil, 0, e.logger, e.metrics)
	issued := time.Now().UTC()
	raw, err := resolver.ResolveVideoURL(ctx, v.VideoAssetPath)
	require.NoError(t, err)
	assert.Contains(t, raw, "/"+common.VideosBucket+"/")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	signedAt, err := time.Parse("20060102T150405Z", u.Query().Get("X-Amz-Date"))
	require.NoError(t, err)
	assert.WithinDuration(t, issued, signedAt, 5*time.Second)

	thumb := resolver.ResolveThumbnailURL(v.ThumbnailAssetPath)
	assert.Equal(t, "http://minio:9000/thumbnails/"+v.ThumbnailAssetPath, thumb)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.PublishTotal.WithLabelValues(metrics.ResultOK)))
}

func TestPublish_ValidationBeforeAnyIO(t *testing.T) {
	cases := map[string]func(r *PublishRequest){
		"empty title":     func(r *PublishRequest) { r.Title = "  " },
		"empty category":  func(r *PublishRequest) { r.Category = "" },
		"empty video":     func(r *PublishRequest) { r.Video = nil },
		"empty thumbnail": func(r *PublishRequest) { r.Thumbnail = []byte{} },
		"empty owner":     func(r *PublishRequest) { r.OwnerID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			req := demoRequest()
			mutate(&req)

			_, err := e.uploadService(e.store).Publish(context.Background(), req)
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, 0, e.store.Len())
			assert.Empty(t, e.store.Deleted())
			assert.Equal(t, 0, e.videoCount(t))
		})
	}
}

func TestPublish_VideoWriteFails(t *testing.T) {
	e := newEnv(t)
	store := &flakyStore{trackedStore: e.store, putErr: map[string]error{common.VideosBucket: errInjected}}

	_, err := e.uploadService(store).Publish(context.Background(), demoRequest())
	require.ErrorIs(t, err, common.ErrStorageWrite, "plain store errors are classified as storage writes")
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, 0, e.store.Len())
	assert.Empty(t, store.deleteKeys)
	assert.Equal(t, 0, e.videoCount(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.PublishTotal.WithLabelValues(metrics.ResultStorage)))
}

func TestPublish_ThumbnailWriteFailsRemovesVideoBlob(t *testing.T) {
	e := newEnv(t)
	store := &flakyStore{trackedStore: e.store, putErr: map[string]error{common.ThumbnailsBucket: common.ErrStorageWrite}}

	_, err := e.uploadService(store).Publish(context.Background(), demoRequest())
	require.ErrorIs(t, err, common.ErrStorageWrite)

	require.Len(t, store.deleteKeys, 1)
	assert.True(t, strings.HasPrefix(store.deleteKeys[0], common.VideosBucket+"/u1/"))
	assert.Equal(t, 0, e.store.Len())
	assert.Equal(t, 0, e.videoCount(t))
}

func TestPublish_DuplicateVideoIDIsConflict(t *testing.T) {
	e := newEnv(t)
	svc := e.uploadService(e.store)
	svc.newID = func() string { return "same-id" }
	ctx := context.Background()

	first, err := svc.Publish(ctx, demoRequest())
	require.NoError(t, err)

	_, err = svc.Publish(ctx, demoRequest())
	require.ErrorIs(t, err, common.ErrConflict)
	assert.True(t, common.IsMetadataError(err))

	assert.Equal(t, 1, e.videoCount(t))
	assert.Equal(t, 2, e.store.Len(), "only the first publish's blobs remain")
	_, ok := e.store.ContentType(common.VideosBucket, first.VideoAssetPath)
	assert.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.PublishTotal.WithLabelValues(metrics.ResultMetadata)))
}

func TestPublish_MetadataFailureDeletesBothBlobs(t *testing.T) {
	e := newEnv(t)
	rm := &faultyManager{RepositoryManager: e.rm, createErr: errInjected}
	svc := NewUploadService(e.db, rm, e.store, testBuckets(), e.logger, e.metrics)

	_, err := svc.Publish(context.Background(), demoRequest())
	require.Error(t, err)
	assert.True(t, common.IsMetadataError(err))
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, 0, e.store.Len(), "no orphaned blobs")
	assert.Len(t, e.store.Deleted(), 2)
	assert.Equal(t, 0, e.videoCount(t), "no video row references the blobs")

	pending, err := e.rm.Reclamations(e.db).ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.PublishTotal.WithLabelValues(metrics.ResultMetadata)))
}

func TestPublish_MetadataFailureQueuesUndeletableBlobs(t *testing.T) {
	e := newEnv(t)
	rm := &faultyManager{RepositoryManager: e.rm, createErr: errInjected}
	store := &flakyStore{trackedStore: e.store, deleteErr: errInjected}
	svc := NewUploadService(e.db, rm, store, testBuckets(), e.logger, e.metrics)

	_, err := svc.Publish(context.Background(), demoRequest())
	require.Error(t, err)
	assert.True(t, common.IsMetadataError(err), "cleanup failure must not mask the metadata error")

	pending, err := e.rm.Reclamations(e.db).ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	queued := map[string]string{}
	for _, p := range pending {
		queued[p.Bucket] = p.Key
		assert.Equal(t, common.ReasonPublishAborted, p.Reason)
	}
	assert.Contains(t, queued, common.VideosBucket)
	assert.Contains(t, queued, common.ThumbnailsBucket)
	assert.Equal(t, 0, e.videoCount(t))
}

func TestPublish_CleanupFailureIsLoggedNotReturned(t *testing.T) {
	e := newEnv(t)
	rm := &faultyManager{RepositoryManager: e.rm, createErr: errInjected, enqueueErr: errInjected}
	store := &flakyStore{trackedStore: e.store, deleteErr: errInjected}
	svc := NewUploadService(e.db, rm, store, testBuckets(), e.logger, e.metrics)

	_, err := svc.Publish(context.Background(), demoRequest())
	require.Error(t, err)
	assert.True(t, common.IsMetadataError(err))
	assert.Contains(t, e.logs.String(), "orphaned blob left behind")
}

func TestPublish_CallerCancellationStillCleansUp(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &flakyStore{trackedStore: e.store, afterPut: func(bucket string) {
		if bucket == common.ThumbnailsBucket {
			cancel()
		}
	}}

	_, err := e.uploadService(store).Publish(ctx, demoRequest())
	require.Error(t, err)
	assert.True(t, common.IsMetadataError(err))
	assert.Equal(t, 0, e.store.Len())
	assert.Len(t, store.deleteKeys, 2)
	assert.Equal(t, 0, e.videoCount(t))
}

func TestPublish_ConcurrentPublishesGetDistinctKeys(t *testing.T) {
	e := newEnv(t)
	svc := e.uploadService(e.store)

	const n = 10
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := svc.Publish(context.Background(), demoRequest())
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, 2*n, e.store.Len())
	assert.Equal(t, n, e.videoCount(t))
}
