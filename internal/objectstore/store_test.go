package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	opts := Options{Region: "us-east-1", AccessKey: "a", SecretKey: "b", Endpoint: "http://127.0.0.1:9000"}

	s, err := New(ctx, BackendMemory, opts)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, "MINIO", opts)
	require.NoError(t, err)
	assert.IsType(t, &MinioStore{}, s)

	s, err = New(ctx, BackendS3, opts)
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)

	_, err = New(ctx, "gcs", opts)
	require.ErrorContains(t, err, `unknown object store backend "gcs"`)
}

func TestPublicURL_Join(t *testing.T) {
	assert.Equal(t, "http://h:9000/b/o/k.png", publicURL("http://h:9000/", "b", "o/k.png"))
	assert.Equal(t, "http://h:9000/b/o/k%20x.png", publicURL("http://h:9000", "b", "o/k x.png"))
}
