// Package objectstore writes immutable video and thumbnail blobs to a
// bucket-oriented object store and derives URLs for reading them back.
//
// Three implementations are provided: S3Store (any S3 compatible service
// through aws-sdk-go-v2), MinioStore (minio-go) and MemoryStore (tests and
// local development). New picks one by backend name.
package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Store is the object store contract used by the publish and resolve paths.
type Store interface {
	// Put writes body under key and returns the key. Existing keys are
	// never overwritten; every failure wraps common.ErrStorageWrite.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, bucket, key string) error
	// SignedURL returns a GET URL valid for ttl. It fails with
	// common.ErrAssetNotFound when the key does not exist.
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	// PublicURL derives a non-expiring URL without any I/O.
	PublicURL(bucket, key string) string
}

const (
	BackendS3     = "s3"
	BackendMinio  = "minio"
	BackendMemory = "memory"
)

// Options configures the network backed stores.
type Options struct {
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint is the API endpoint, e.g. http://127.0.0.1:9000.
	Endpoint string
	// PublicEndpoint prefixes public URLs. Defaults to Endpoint.
	PublicEndpoint string
	UseSSL         bool
}

func (o Options) publicBase() string {
	if o.PublicEndpoint != "" {
		return o.PublicEndpoint
	}
	return o.Endpoint
}

// New builds the Store named by backend.
func New(ctx context.Context, backend string, opts Options) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendS3, "":
		return NewS3Store(ctx, opts)
	case BackendMinio:
		return NewMinioStore(opts)
	case BackendMemory:
		return NewMemoryStore(opts.publicBase()), nil
	default:
		return nil, fmt.Errorf("unknown object store backend %q", backend)
	}
}

// publicURL joins base, bucket and key into a path-style URL.
func publicURL(base, bucket, key string) string {
	u, err := url.JoinPath(base, bucket, key)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
	}
	return u
}
