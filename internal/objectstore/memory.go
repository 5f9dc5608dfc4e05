package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/models"
)

type memoryObject struct {
	asset models.Asset
	body  []byte
}

// MemoryStore keeps blobs in process memory. It records deletions so
// tests can assert on cleanup.
type MemoryStore struct {
	mu         sync.Mutex
	objects    map[string]memoryObject
	deleted    []string
	publicBase string
	now        func() time.Time
}

func NewMemoryStore(publicBase string) *MemoryStore {
	if publicBase == "" {
		publicBase = "http://objects.local"
	}
	return &MemoryStore{
		objects:    make(map[string]memoryObject),
		publicBase: publicBase,
		now:        time.Now,
	}
}

func objectID(bucket, key string) string { return bucket + "/" + key }

func (m *MemoryStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := objectID(bucket, key)
	if _, ok := m.objects[id]; ok {
		return "", fmt.Errorf("%w: %s already exists", common.ErrStorageWrite, id)
	}
	m.objects[id] = memoryObject{
		asset: models.Asset{
			Bucket:      bucket,
			Key:         key,
			ContentType: contentType,
			Size:        int64(len(body)),
			Digest:      Digest(body),
		},
		body: append([]byte(nil), body...),
	}
	return key, nil
}

func (m *MemoryStore) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := objectID(bucket, key)
	delete(m.objects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// SignedURL returns a URL shaped like a presigned S3 GET.
func (m *MemoryStore) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	_, ok := m.objects[objectID(bucket, key)]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", common.ErrAssetNotFound, bucket, key)
	}

	q := url.Values{}
	q.Set("X-Amz-Date", m.now().UTC().Format("20060102T150405Z"))
	q.Set("X-Amz-Expires", strconv.Itoa(int(ttl/time.Second)))
	return publicURL(m.publicBase, bucket, key) + "?" + q.Encode(), nil
}

func (m *MemoryStore) PublicURL(bucket, key string) string {
	return publicURL(m.publicBase, bucket, key)
}

// Deleted lists "bucket/key" for every Delete call in order.
func (m *MemoryStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
