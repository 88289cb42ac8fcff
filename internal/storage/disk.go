package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
)

// DiskStore writes attachments below a local directory served at baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes file as folder/<uuid><ext>. The extension follows the sniffed type.
func (s *DiskStore) Put(ctx context.Context, folder string, file attachment.Staged) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	ext := ""
	if mt := mimetype.Lookup(file.ContentType); mt != nil {
		ext = mt.Extension()
	}
	key := filepath.ToSlash(filepath.Join(folder, uuid.New().String()+ext))
	path := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create folder %s: %w", folder, err)
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return Object{}, fmt.Errorf("failed to write %s: %w", file.Filename, err)
	}
	return Object{Key: key, URL: s.baseURL + "/" + key}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
