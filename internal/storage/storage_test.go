package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/slotx-reports/internal/config"
)

func TestNew(t *testing.T) {
	store, err := New(config.StorageConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = New(config.StorageConfig{Driver: "ftp"})
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = New(config.StorageConfig{Driver: "minio", Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "minio credentials must be provided")

	_, err = New(config.StorageConfig{Driver: "sevalla", Endpoint: "s3.example.com", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "sevalla bucket must be provided")
}

func TestNewMinioClient(t *testing.T) {
	store, err := New(config.StorageConfig{
		Driver:    "MinIO",
		Endpoint:  "http://localhost:9000/",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "reports",
	})
	require.NoError(t, err)
	assert.IsType(t, &MinioClient{}, store)
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("EET", 2*3600))
	assert.Equal(t, "reports/2026-03-01/abc/SlotX_Reports_Merged_Cycle 1.zip",
		ArchiveKey("/reports/", "abc", "SlotX_Reports_Merged_Cycle 1.zip", at))
	assert.Equal(t, "2026-03-01/abc/a.zip", ArchiveKey("", "abc", "a.zip", at))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	require.NoError(t, m.UploadObject(ctx, "reports/b.zip", []byte("bb")))
	require.NoError(t, m.UploadObject(ctx, "reports/a.zip", []byte("a")))
	require.NoError(t, m.UploadObject(ctx, "other/c.zip", []byte("c")))

	list, err := m.ListObjects(ctx, "reports/")
	require.NoError(t, err)
	assert.Equal(t, []ObjectInfo{{Key: "reports/a.zip", Size: 1}, {Key: "reports/b.zip", Size: 2}}, list)

	data, err := m.DownloadObject(ctx, "reports/b.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("bb"), data)

	_, err = m.DownloadObject(ctx, "missing.zip")
	assert.Error(t, err)
}
