package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_BUCKET", "sar-evidence")
	t.Setenv("APP_URI", "")
	t.Setenv("DOWNLOAD_URL_TTL", "")
	t.Setenv("UPLOAD_URL_TTL", "")
	t.Setenv("ARCHIVE_ASYNC", "")
	t.Setenv("MONGO_DB", "")
	t.Setenv("S3_USE_SSL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.AppPort)
	assert.Equal(t, "QAPortalDB", cfg.MongoDB)
	assert.Equal(t, 5*time.Minute, cfg.DownloadURLTTL)
	assert.Equal(t, 15*time.Minute, cfg.UploadURLTTL)
	assert.False(t, cfg.ArchiveAsync)
	assert.True(t, cfg.S3.UseSSL)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("S3_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestLoadRejectsLongDownloadTTL(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_BUCKET", "sar-evidence")
	t.Setenv("DOWNLOAD_URL_TTL", "3h")

	_, err := Load()
	assert.Error(t, err)
}
