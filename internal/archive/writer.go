package archive

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

// Writer builds the output zip in memory. Entries are written in call order,
// all stamped with the same modification time, so identical inputs produce
// identical bytes.
type Writer struct {
	buf        bytes.Buffer
	zw         *zip.Writer
	modified   time.Time
	names      map[string]struct{}
	collisions int
	closed     bool
}

func NewWriter(modified time.Time) *Writer {
	w := &Writer{modified: modified, names: make(map[string]struct{})}
	w.zw = zip.NewWriter(&w.buf)
	w.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	return w
}

// Add stores data under name. When name is already taken the entry is stored
// as "name (2).xlsx", "name (3).xlsx" and so on, and the path it was written
// to is returned.
func (w *Writer) Add(name string, data []byte) (string, error) {
	if w.closed {
		return "", fmt.Errorf("archive already closed")
	}

	final := w.unique(name)
	if final != name {
		w.collisions++
		log.Warn().
			Str("path", name).
			Str("stored_as", final).
			Msg("Archive path already used, renaming entry")
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     final,
		Method:   zip.Deflate,
		Modified: w.modified,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create archive entry %s: %w", final, err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("failed to write archive entry %s: %w", final, err)
	}
	w.names[final] = struct{}{}
	return final, nil
}

func (w *Writer) unique(name string) string {
	if _, taken := w.names[name]; !taken {
		return name
	}
	ext := ""
	base := name
	if i := strings.LastIndex(name, "."); i > strings.LastIndex(name, "/") {
		base, ext = name[:i], name[i:]
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, taken := w.names[candidate]; !taken {
			return candidate
		}
	}
}

// Collisions counts entries that had to be renamed.
func (w *Writer) Collisions() int {
	return w.collisions
}

// Len is the number of entries written so far.
func (w *Writer) Len() int {
	return len(w.names)
}

// Bytes finalizes the archive and returns its contents.
func (w *Writer) Bytes() ([]byte, error) {
	if !w.closed {
		w.closed = true
		if err := w.zw.Close(); err != nil {
			return nil, fmt.Errorf("failed to finalize archive: %w", err)
		}
	}
	return w.buf.Bytes(), nil
}
