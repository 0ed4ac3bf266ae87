package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/noah-isme/edumanage-api/pkg/config"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("file exceeds maximum upload size")
	// ErrUnsupportedType is returned when the detected MIME type is not allowed.
	ErrUnsupportedType = errors.New("file type is not allowed")
)

// LocalStorage persists uploaded files on disk under a base directory and
// hands out the public path they are served from.
type LocalStorage struct {
	baseDir    string
	publicPath string
	maxSize    int64
	allowed    map[string]struct{}
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(cfg config.UploadsConfig) (*LocalStorage, error) {
	baseDir := cfg.Dir
	if baseDir == "" {
		baseDir = "./uploads"
	}
	publicPath := cfg.PublicPath
	if publicPath == "" {
		publicPath = "/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(m)] = struct{}{}
	}
	return &LocalStorage{
		baseDir:    baseDir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
		maxSize:    cfg.MaxFileSizeBytes,
		allowed:    allowed,
	}, nil
}

// Dir returns the directory served under PublicPath.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// PublicPath returns the URL prefix stored files are served from.
func (s *LocalStorage) PublicPath() string {
	return s.publicPath
}

// Save validates and writes an upload into the folder, returning its public path.
// The MIME type is sniffed from content, never taken from the client.
func (s *LocalStorage) Save(folder string, r io.Reader) (string, error) {
	limit := s.maxSize
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}

	mime := mimetype.Detect(data)
	if len(s.allowed) > 0 && !s.isAllowed(mime) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}

	name := uuid.NewString() + mime.Extension()
	dir := filepath.Join(s.baseDir, filepath.Clean("/"+folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	if err := writeFile(filepath.Join(dir, name), data); err != nil {
		return "", err
	}
	return path.Join(s.publicPath, path.Clean("/"+folder), name), nil
}

// Delete removes a file previously returned by Save. Unknown paths are ignored.
func (s *LocalStorage) Delete(publicPath string) error {
	rel := strings.TrimPrefix(publicPath, s.publicPath)
	if rel == publicPath || rel == "" {
		return nil
	}
	target := filepath.Join(s.baseDir, filepath.Clean("/"+rel))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

func (s *LocalStorage) isAllowed(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if _, ok := s.allowed[strings.ToLower(strings.SplitN(m.String(), ";", 2)[0])]; ok {
			return true
		}
	}
	return false
}

func writeFile(target string, data []byte) error {
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}
