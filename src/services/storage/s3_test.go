package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"Backend-QA-Portal/src/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *S3Storage {
	t.Helper()
	s, err := NewS3Storage(&config.Config{
		S3: config.S3Config{
			Endpoint:  "http://localhost:9000",
			Region:    "us-east-1",
			Bucket:    "sar-evidence",
			AccessKey: "minio",
			SecretKey: "minio123",
		},
		DownloadURLTTL: 5 * time.Minute,
		UploadURLTTL:   15 * time.Minute,
	})
	require.NoError(t, err)
	return s
}

// Presigning is computed locally, no server is contacted.
func TestPresignedURLs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	getURL, err := s.GetSignedURL(ctx, "archives/2024-2025/CSE/run.zip")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(getURL, "http://localhost:9000/sar-evidence/archives/2024-2025/CSE/run.zip"))
	assert.Contains(t, getURL, "X-Amz-Expires=300")

	putURL, err := s.PutSignedURL(ctx, "evidence/2024-2025/CSE/a.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Contains(t, putURL, "X-Amz-Expires=900")
}

func TestDeleteObjectsEmptyIsNoop(t *testing.T) {
	s := newTestStorage(t)
	assert.NoError(t, s.DeleteObjects(context.Background(), nil))
}
