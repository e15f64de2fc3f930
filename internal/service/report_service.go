package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/slotx-reports/internal/cache"
	"github.com/andresuchdata/slotx-reports/internal/pipeline"
	"github.com/andresuchdata/slotx-reports/internal/storage"
)

// ErrReportNotFound is returned for ids neither cached nor published.
var ErrReportNotFound = errors.New("report not found")

// Report is one generated archive as the service hands it out.
type Report struct {
	ID          string
	FileName    string
	Archive     []byte
	Entries     []string
	StorageKey  string
	Diagnostics pipeline.Diagnostics
}

type GenerateOptions struct {
	Publish bool
}

type ReportService struct {
	generator *pipeline.Generator
	cache     cache.ArchiveCache
	store     storage.ObjectStorage
	prefix    string
	newID     func() string
}

// NewReportService wires the generator to optional cache and storage. Either
// may be nil.
func NewReportService(generator *pipeline.Generator, archives cache.ArchiveCache, store storage.ObjectStorage, prefix string) *ReportService {
	if archives == nil {
		archives = cache.NewNoopArchiveCache()
	}
	return &ReportService{
		generator: generator,
		cache:     archives,
		store:     store,
		prefix:    prefix,
		newID:     uuid.NewString,
	}
}

// CacheEnabled reports whether generated archives can be fetched later by id.
func (s *ReportService) CacheEnabled() bool {
	return s.cache.Enabled()
}

// Generate builds the archive, publishes it when asked and caches it for
// download. Publish and generation failures are returned; a cache failure is
// logged and the report still returned.
func (s *ReportService) Generate(ctx context.Context, req pipeline.Request, opts GenerateOptions) (*Report, error) {
	res, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	r := &Report{
		ID:          s.newID(),
		FileName:    res.FileName,
		Archive:     res.Archive,
		Entries:     res.Entries,
		Diagnostics: res.Diagnostics,
	}

	if opts.Publish {
		if s.store == nil {
			return nil, fmt.Errorf("publishing requested but no storage driver is configured")
		}
		key := storage.ArchiveKey(s.prefix, r.ID, r.FileName, res.GeneratedAt)
		if err := s.store.UploadObject(ctx, key, r.Archive); err != nil {
			return nil, fmt.Errorf("failed to publish report: %w", err)
		}
		r.StorageKey = key
		log.Info().Str("id", r.ID).Str("key", key).Int("bytes", len(r.Archive)).Msg("Published report archive")
	}

	if s.cache.Enabled() {
		err := s.cache.Set(ctx, &cache.ArchiveEntry{
			ID:          r.ID,
			FileName:    r.FileName,
			Archive:     r.Archive,
			Entries:     r.Entries,
			StorageKey:  r.StorageKey,
			GeneratedAt: res.GeneratedAt,
		})
		if err != nil {
			log.Warn().Err(err).Str("id", r.ID).Msg("Failed to cache report archive")
		}
	}

	return r, nil
}

// Get returns a report by id from the cache, then from published storage.
func (s *ReportService) Get(ctx context.Context, id string) (*Report, error) {
	entry, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Archive cache lookup failed")
	}
	if ok {
		return &Report{
			ID:         entry.ID,
			FileName:   entry.FileName,
			Archive:    entry.Archive,
			Entries:    entry.Entries,
			StorageKey: entry.StorageKey,
		}, nil
	}

	if s.store == nil {
		return nil, ErrReportNotFound
	}

	objects, err := s.store.ListObjects(ctx, strings.Trim(s.prefix, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to list published reports: %w", err)
	}
	for _, obj := range objects {
		parts := strings.Split(obj.Key, "/")
		if len(parts) < 2 || parts[len(parts)-2] != id {
			continue
		}
		data, err := s.store.DownloadObject(ctx, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to download report: %w", err)
		}
		return &Report{
			ID:         id,
			FileName:   parts[len(parts)-1],
			Archive:    data,
			StorageKey: obj.Key,
		}, nil
	}
	return nil, ErrReportNotFound
}

// Published lists archives in storage. Without storage the list is empty.
func (s *ReportService) Published(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.store == nil {
		return []storage.ObjectInfo{}, nil
	}
	return s.store.ListObjects(ctx, strings.Trim(s.prefix, "/"))
}

// Purge drops every cached archive. Published archives stay in storage and
// remain downloadable by id.
func (s *ReportService) Purge(ctx context.Context) (int, error) {
	n, err := s.cache.InvalidateAll(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to purge report cache: %w", err)
	}
	log.Info().Int("purged", n).Msg("Purged report archive cache")
	return n, nil
}
