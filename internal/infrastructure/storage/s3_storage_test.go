package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:       true,
		Bucket:        "test-bucket",
		AccessKey:     "test-key",
		SecretKey:     "test-secret",
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		UsePathStyle:  true,
		PresignExpiry: 15 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	tests := []struct {
		name    string
		mutate  func(c *config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid config creates storage", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(validConfig())
		require.NoError(t, err)
		assert.Equal(t, "test-bucket", storage.GetBucket())
		assert.Equal(t, 15*time.Minute, storage.presignExpiration)
	})

	t.Run("default presign expiration", func(t *testing.T) {
		cfg := validConfig()
		cfg.PresignExpiry = 0
		storage, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, storage.presignExpiration)
	})

	t.Run("endpoint without scheme and empty region", func(t *testing.T) {
		cfg := validConfig()
		cfg.Endpoint = "minio.internal:9000"
		cfg.Region = ""
		_, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
	})

	t.Run("options override config", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(validConfig(), WithPresignExpiration(time.Minute), WithLogger(zap.NewNop()))
		require.NoError(t, err)
		assert.Equal(t, time.Minute, storage.presignExpiration)
	})
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	storage, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)

	t.Run("empty storage key returns error", func(t *testing.T) {
		url, _, err := storage.GenerateDownloadURL(context.Background(), "", time.Minute)
		require.Error(t, err)
		assert.Empty(t, url)
	})

	t.Run("presigns locally", func(t *testing.T) {
		url, expiresAt, err := storage.GenerateDownloadURL(context.Background(), "t1/invoice/o1/d1.pdf", 0)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "http://localhost:9000/test-bucket/t1/invoice/o1/d1.pdf"))
		assert.Contains(t, url, "X-Amz-Signature=")
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
	})
}

func TestS3ObjectStorage_EmptyKeys(t *testing.T) {
	storage, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, storage.Upload(ctx, "", []byte("x"), "text/plain"))
	assert.Error(t, storage.DeleteObject(ctx, ""))
	_, _, err = storage.Download(ctx, "")
	assert.Error(t, err)
	_, err = storage.ObjectExists(ctx, "")
	assert.Error(t, err)
}

// The integration test talks to a real S3-compatible service, e.g.
// CAREHOURS_TEST_S3_ENDPOINT=http://localhost:9000 with minioadmin credentials.
func newIntegrationStorage(t *testing.T) *S3ObjectStorage {
	t.Helper()
	endpoint := os.Getenv("CAREHOURS_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("CAREHOURS_TEST_S3_ENDPOINT not set")
	}
	cfg := validConfig()
	cfg.Endpoint = endpoint
	cfg.Bucket = "carehours-integration"
	cfg.AccessKey = os.Getenv("CAREHOURS_TEST_S3_ACCESS_KEY")
	cfg.SecretKey = os.Getenv("CAREHOURS_TEST_S3_SECRET_KEY")

	storage, err := NewS3ObjectStorage(cfg)
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(context.Background()))
	require.NoError(t, storage.EnsureBucket(context.Background()))
	return storage
}

func TestIntegration_UploadDownloadDelete(t *testing.T) {
	storage := newIntegrationStorage(t)
	ctx := context.Background()
	key := "integration/upload.pdf"

	require.NoError(t, storage.Upload(ctx, key, []byte("%PDF-1.7"), "application/pdf"))

	body, size, err := storage.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	_ = body.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Equal(t, int64(8), size)

	require.NoError(t, storage.DeleteObject(ctx, key))
	exists, err := storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, err = storage.Download(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
