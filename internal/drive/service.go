package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

type Service struct {
	srv *drive.Service
}

// NewService authenticates with a service account JSON key and read-only scope.
func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	return NewServiceWithOptions(ctx, option.WithHTTPClient(config.Client(ctx)))
}

// NewServiceWithOptions builds a Service from raw client options.
func NewServiceWithOptions(ctx context.Context, opts ...option.ClientOption) (*Service, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}
	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

func (s *Service) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	var files []*File

	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	for _, f := range result.Files {
		files = append(files, &File{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		})
	}

	return files, nil
}

// FindFile returns the newest non-folder file whose name matches, ignoring
// case and surrounding spaces.
func (s *Service) FindFile(ctx context.Context, folderID, name string) (*File, error) {
	files, err := s.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSpace(name))
	var found *File
	for _, f := range files {
		if f.MimeType == folderMimeType || strings.ToLower(strings.TrimSpace(f.Name)) != want {
			continue
		}
		if found == nil || f.ModifiedTime > found.ModifiedTime {
			found = f
		}
	}
	if found == nil {
		return nil, fmt.Errorf("file not found in drive folder: %s", name)
	}
	return found, nil
}

func (s *Service) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("unable to download file: %w", err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// Download reads a whole file into memory.
func (s *Service) Download(ctx context.Context, fileID string) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.DownloadFile(ctx, fileID, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "root", nil
	}

	folders := strings.Split(path, "/")
	currentID := "root"

	for _, folder := range folders {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				currentID, escapeQuery(folder), folderMimeType)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("folder not found: %s", folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}

func escapeQuery(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}
