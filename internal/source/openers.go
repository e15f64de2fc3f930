package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/andresuchdata/slotx-reports/internal/drive"
)

// LocalOpener reads uploads from disk. Relative names resolve against Dir.
type LocalOpener struct {
	Dir string
}

func (l LocalOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path := name
	if !filepath.IsAbs(path) && l.Dir != "" {
		path = filepath.Join(l.Dir, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// DriveOpener resolves names inside one Google Drive folder.
type DriveOpener struct {
	Service  *drive.Service
	FolderID string
}

func (d DriveOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := d.Service.FindFile(ctx, d.FolderID, name)
	if err != nil {
		return nil, err
	}
	data, err := d.Service.Download(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// MultipartOpener serves the files of a multipart form by field name.
type MultipartOpener map[string]*multipart.FileHeader

func (m MultipartOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	fh, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("no file uploaded for %s", name)
	}
	return fh.Open()
}

// MemoryOpener serves uploads already held in memory.
type MemoryOpener map[string][]byte

func (m MemoryOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("no file named %s", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
