package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/dbtest"
	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/dmitrijs2005/golive/internal/metrics"
	"github.com/dmitrijs2005/golive/internal/models"
	"github.com/dmitrijs2005/golive/internal/objectstore"
	"github.com/dmitrijs2005/golive/internal/repositories/reclamations"
	"github.com/dmitrijs2005/golive/internal/repositories/repomanager"
	"github.com/dmitrijs2005/golive/internal/repositories/videos"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	mp4Bytes = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom\x00\x00\x00\x08free")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
)

type env struct {
	db      *sql.DB
	rm      repomanager.RepositoryManager
	store   *trackedStore
	metrics *metrics.Metrics
	logs    *syncBuffer
	logger  logging.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logs := &syncBuffer{}
	return &env{
		db:      dbtest.OpenSQLite(t),
		rm:      repomanager.NewSQLRepositoryManager(dbx.SQLite),
		store:   newTrackedStore(),
		metrics: metrics.New(prometheus.NewRegistry()),
		logs:    logs,
		logger:  logging.NewSlogLogger(slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}
}

func (e *env) videoCount(t *testing.T) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM videos`).Scan(&n); err != nil {
		t.Fatalf("count videos: %v", err)
	}
	return n
}

func (e *env) seedVideo(t *testing.T, id string) *models.Video {
	t.Helper()
	v := &models.Video{
		ID: id, Title: "t-" + id, Category: "Gaming",
		VideoAssetPath: "u1/" + id + ".mp4", ThumbnailAssetPath: "u1/" + id + ".png",
		OwnerID: "u1", CreatedAt: time.Now().UTC(),
	}
	if err := e.rm.Videos(e.db).Create(context.Background(), v); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return v
}

// syncBuffer is a bytes.Buffer safe for the background view goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func testBuckets() Buckets {
	return Buckets{Videos: common.VideosBucket, Thumbnails: common.ThumbnailsBucket}
}

// trackedStore remembers which blobs are live and their content types.
type trackedStore struct {
	*objectstore.MemoryStore

	mu   sync.Mutex
	live map[string]string
}

func newTrackedStore() *trackedStore {
	return &trackedStore{
		MemoryStore: objectstore.NewMemoryStore("http://minio:9000"),
		live:        make(map[string]string),
	}
}

func (s *trackedStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	k, err := s.MemoryStore.Put(ctx, bucket, key, body, contentType)
	if err == nil {
		s.mu.Lock()
		s.live[bucket+"/"+k] = contentType
		s.mu.Unlock()
	}
	return k, err
}

func (s *trackedStore) Delete(ctx context.Context, bucket, key string) error {
	err := s.MemoryStore.Delete(ctx, bucket, key)
	if err == nil {
		s.mu.Lock()
		delete(s.live, bucket+"/"+key)
		s.mu.Unlock()
	}
	return err
}

// Len is the number of live blobs.
func (s *trackedStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *trackedStore) ContentType(bucket, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ct, ok := s.live[bucket+"/"+key]
	return ct, ok
}

// flakyStore wraps a trackedStore with injectable failures.
type flakyStore struct {
	*trackedStore
	putErr    map[string]error
	deleteErr error
	afterPut  func(bucket string)

	mu         sync.Mutex
	signCalls  int
	deleteKeys []string
}

func (f *flakyStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	if err := f.putErr[bucket]; err != nil {
		return "", err
	}
	k, err := f.trackedStore.Put(ctx, bucket, key, body, contentType)
	if err == nil && f.afterPut != nil {
		f.afterPut(bucket)
	}
	return k, err
}

func (f *flakyStore) Delete(ctx context.Context, bucket, key string) error {
	f.mu.Lock()
	f.deleteKeys = append(f.deleteKeys, bucket+"/"+key)
	f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.trackedStore.Delete(ctx, bucket, key)
}

func (f *flakyStore) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	f.signCalls++
	f.mu.Unlock()
	return f.trackedStore.SignedURL(ctx, bucket, key, ttl)
}

// faultyManager overrides single repositories of a real manager.
type faultyManager struct {
	repomanager.RepositoryManager
	createErr  error
	enqueueErr error
}

func (m *faultyManager) Videos(db dbx.DBTX) videos.Repository {
	r := m.RepositoryManager.Videos(db)
	if m.createErr == nil {
		return r
	}
	return &failingVideos{Repository: r, err: m.createErr}
}

func (m *faultyManager) Reclamations(db dbx.DBTX) reclamations.Repository {
	r := m.RepositoryManager.Reclamations(db)
	if m.enqueueErr == nil {
		return r
	}
	return &failingReclamations{Repository: r, err: m.enqueueErr}
}

type failingVideos struct {
	videos.Repository
	err error
}

func (f *failingVideos) Create(context.Context, *models.Video) error { return f.err }

type failingReclamations struct {
	reclamations.Repository
	err error
}

func (f *failingReclamations) Enqueue(context.Context, string, string, string) error { return f.err }

var errInjected = errors.New("injected")
