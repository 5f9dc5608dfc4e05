package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioAPI interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucket, key string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// newMinioClient is a seam for tests.
var newMinioClient = func(endpoint string, opts *minio.Options) (minioAPI, error) {
	return minio.New(endpoint, opts)
}

// MinioStore talks to MinIO through minio-go.
type MinioStore struct {
	client     minioAPI
	publicBase string
}

// NewMinioStore builds a client for opts.Endpoint. A scheme on the endpoint
// overrides opts.UseSSL.
func NewMinioStore(opts Options) (*MinioStore, error) {
	host, secure := splitEndpoint(opts.Endpoint, opts.UseSSL)
	client, err := newMinioClient(host, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	base := opts.PublicEndpoint
	if base == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		base = scheme + "://" + host
	}
	return &MinioStore{client: client, publicBase: base}, nil
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return endpoint, useSSL
	}
}

// Put sends If-None-Match: * so the server refuses to overwrite a key.
func (m *MinioStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"digest": Digest(body)},
	}
	opts.SetMatchETagExcept("*")

	_, err := m.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), opts)
	if err != nil {
		if isMinioPreconditionFailed(err) {
			return "", fmt.Errorf("%w: %s/%s already exists", common.ErrStorageWrite, bucket, key)
		}
		return "", fmt.Errorf("%w: put %s/%s: %w", common.ErrStorageWrite, bucket, key, err)
	}
	return key, nil
}

func (m *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isMinioNotFound(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (m *MinioStore) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if _, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return "", fmt.Errorf("%w: %s/%s", common.ErrAssetNotFound, bucket, key)
		}
		return "", fmt.Errorf("failed to stat object: %w", err)
	}

	u, err := m.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return u.String(), nil
}

func (m *MinioStore) PublicURL(bucket, key string) string {
	return publicURL(m.publicBase, bucket, key)
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

func isMinioPreconditionFailed(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusPreconditionFailed || resp.Code == "PreconditionFailed"
}
