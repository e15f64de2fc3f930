package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/andresuchdata/slotx-reports/internal/config"
)

// ObjectInfo describes a stored report archive.
type ObjectInfo struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ObjectStorage abstracts the bucket generated archives are published to.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string) ([]byte, error)
	UploadObject(ctx context.Context, key string, data []byte) error
}

const (
	DriverNone    = "none"
	DriverSevalla = "sevalla"
	DriverMinio   = "minio"
)

// New builds the ObjectStorage selected by cfg.Driver. The none driver
// returns a nil store and no error; callers treat that as publishing off.
func New(cfg config.StorageConfig) (ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverNone:
		return nil, nil
	case DriverSevalla:
		client, err := NewSevallaClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case DriverMinio:
		client, err := NewMinioClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ArchiveKey places an archive under prefix/YYYY-MM-DD/id/fileName.
func ArchiveKey(prefix, id, fileName string, at time.Time) string {
	return path.Join(strings.Trim(prefix, "/"), at.UTC().Format("2006-01-02"), id, fileName)
}
