package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/slotx-reports/internal/config"
)

const (
	archiveKeyPrefix = "reports:archive"
	scanBatchSize    = 100
)

// ArchiveEntry is a generated archive held for later download.
type ArchiveEntry struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	Archive     []byte    `json:"archive"`
	Entries     []string  `json:"entries"`
	StorageKey  string    `json:"storage_key,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ArchiveCache interface {
	Enabled() bool
	Get(ctx context.Context, id string) (*ArchiveEntry, bool, error)
	Set(ctx context.Context, entry *ArchiveEntry) error
	// InvalidateAll drops every cached archive and reports how many were removed.
	InvalidateAll(ctx context.Context) (int, error)
}

type redisArchiveCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopArchiveCache struct{}

func NewArchiveCache(cfg config.CacheConfig) (ArchiveCache, error) {
	if !cfg.Enabled {
		return &noopArchiveCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisArchiveCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopArchiveCache() ArchiveCache {
	return &noopArchiveCache{}
}

func (c *redisArchiveCache) Enabled() bool { return true }

func (c *redisArchiveCache) Get(ctx context.Context, id string) (*ArchiveEntry, bool, error) {
	payload, err := c.client.Get(ctx, archiveKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry ArchiveEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false, fmt.Errorf("decode archive cache: %w", err)
	}
	return &entry, true, nil
}

func (c *redisArchiveCache) Set(ctx context.Context, entry *ArchiveEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode archive cache: %w", err)
	}

	if err := c.client.Set(ctx, archiveKey(entry.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisArchiveCache) InvalidateAll(ctx context.Context) (int, error) {
	return deleteKeysWithPrefix(ctx, c.client, archiveKeyPrefix+":", scanBatchSize)
}

func (n *noopArchiveCache) Enabled() bool { return false }

func (n *noopArchiveCache) Get(ctx context.Context, id string) (*ArchiveEntry, bool, error) {
	return nil, false, nil
}

func (n *noopArchiveCache) Set(ctx context.Context, entry *ArchiveEntry) error {
	return nil
}

func (n *noopArchiveCache) InvalidateAll(ctx context.Context) (int, error) {
	return 0, nil
}

func archiveKey(id string) string {
	return fmt.Sprintf("%s:%s", archiveKeyPrefix, id)
}
