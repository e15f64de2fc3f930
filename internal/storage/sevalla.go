package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chartmuseum/storage"

	"github.com/andresuchdata/slotx-reports/internal/config"
)

// SevallaClient implements ObjectStorage for Sevalla / S3-compatible services.
type SevallaClient struct {
	backend storage.Backend
}

// NewSevallaClient builds a new SevallaClient backed by chartmuseum's Amazon storage backend.
func NewSevallaClient(cfg config.StorageConfig) (*SevallaClient, error) {
	if err := validate("sevalla", cfg); err != nil {
		return nil, err
	}

	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		scheme := "https"
		if !cfg.UseSSL {
			scheme = "http"
		}
		endpoint = fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(cfg.Endpoint, "//"))
	}

	region := regionOrDefault(cfg.Region)

	os.Setenv("AWS_ACCESS_KEY_ID", cfg.AccessKey)
	os.Setenv("AWS_SECRET_ACCESS_KEY", cfg.SecretKey)
	os.Setenv("AWS_REGION", region)
	os.Setenv("AWS_DEFAULT_REGION", region)

	backend := storage.NewAmazonS3BackendWithOptions(
		cfg.Bucket,
		"", // keys carry their own prefix
		region,
		endpoint,
		"",
		&storage.AmazonS3Options{
			S3ForcePathStyle: awsBool(true),
		},
	)

	return &SevallaClient{backend: backend}, nil
}

// ListObjects lists all archives under a prefix.
func (c *SevallaClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	files, err := c.backend.ListObjects(prefix)
	if err != nil {
		return nil, fmt.Errorf("sevalla list failed: %w", err)
	}
	results := make([]ObjectInfo, 0, len(files))
	for _, object := range files {
		results = append(results, ObjectInfo{
			Key:  object.Path,
			Size: int64(len(object.Content)),
		})
	}
	return results, nil
}

func (c *SevallaClient) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	object, err := c.backend.GetObject(key)
	if err != nil {
		return nil, fmt.Errorf("sevalla get %s failed: %w", key, err)
	}
	return object.Content, nil
}

func (c *SevallaClient) UploadObject(ctx context.Context, key string, data []byte) error {
	if err := c.backend.PutObject(key, data); err != nil {
		return fmt.Errorf("sevalla put %s failed: %w", key, err)
	}
	return nil
}

var _ ObjectStorage = (*SevallaClient)(nil)

func validate(driver string, cfg config.StorageConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("%s endpoint must be provided", driver)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("%s credentials must be provided", driver)
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("%s bucket must be provided", driver)
	}
	return nil
}

func regionOrDefault(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		return "us-east-1"
	}
	return region
}

func awsBool(v bool) *bool {
	return &v
}
