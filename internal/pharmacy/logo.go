package pharmacy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// LogoStore persists uploaded logo images.
type LogoStore interface {
	// Save stores the image and returns its public URL path.
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// DiskLogoStore writes logos under dir and exposes them below urlPrefix.
type DiskLogoStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

// NewDiskLogoStore creates dir/logos if needed.
func NewDiskLogoStore(dir, urlPrefix string, maxBytes int64) (*DiskLogoStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "logos"), 0o750); err != nil {
		return nil, fmt.Errorf("create logo dir: %w", err)
	}
	return &DiskLogoStore{dir: dir, urlPrefix: urlPrefix, maxBytes: maxBytes}, nil
}

// Save sniffs the content type from the first bytes rather than trusting the client header.
func (s *DiskLogoStore) Save(_ context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read logo: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrLogoTooLarge
	}

	ext, ok := logoExtensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedLogoType
	}

	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(s.dir, "logos", name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create logo file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write logo file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close logo file: %w", err)
	}

	return path.Join(s.urlPrefix, "logos", name), nil
}

// Delete removes a logo previously returned by Save. Missing files are ignored.
func (s *DiskLogoStore) Delete(_ context.Context, url string) error {
	name := path.Base(url)
	if name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, "logos", name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete logo file: %w", err)
	}
	return nil
}
