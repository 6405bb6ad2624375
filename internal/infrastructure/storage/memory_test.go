package storage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()
	key := "tenant/invoice/owner/doc.pdf"

	t.Run("upload and download", func(t *testing.T) {
		data := []byte("%PDF-1.7 test")
		require.NoError(t, s.Upload(ctx, key, data, "application/pdf"))
		data[0] = 'X'

		body, size, err := s.Download(ctx, key)
		require.NoError(t, err)
		defer body.Close()
		got, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 test", string(got), "stored bytes are a copy")
		assert.Equal(t, int64(13), size)

		exists, err := s.ObjectExists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteObject(ctx, key))
		_, _, err := s.Download(ctx, key)
		assert.ErrorIs(t, err, ErrObjectNotFound)
		assert.Equal(t, 0, s.Len())
		assert.NoError(t, s.DeleteObject(ctx, key), "deleting a missing key succeeds")
	})

	t.Run("empty key", func(t *testing.T) {
		assert.Error(t, s.Upload(ctx, "", nil, ""))
		assert.Error(t, s.DeleteObject(ctx, ""))
		_, err := s.ObjectExists(ctx, "")
		assert.Error(t, err)
	})
}
