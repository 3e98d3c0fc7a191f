// Package storage keeps uploaded profile pictures on the local filesystem
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the upload limit for pictures
const MaxImageSize = 5 << 20

var (
	ErrTooLarge        = errors.New("file exceeds the 5MB limit")
	ErrUnsupportedType = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
	ErrForeignURL      = errors.New("url does not belong to this store")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs data and returns the file extension for an allowed image type
func DetectImage(data []byte) (string, error) {
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	for mime, ext := range allowedTypes {
		if mt.Is(mime) {
			return ext, nil
		}
	}
	return "", ErrUnsupportedType
}

type ImageStore interface {
	// Save stores data under name and returns its public URL
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Delete removes the image behind a URL returned by Save
	Delete(ctx context.Context, url string) error
}

// Local writes images to dir and serves them under urlPrefix
type Local struct {
	dir       string
	urlPrefix string
}

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (l *Local) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path.Join(l.urlPrefix, name), nil
}

func (l *Local) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(url, l.urlPrefix+"/") {
		return ErrForeignURL
	}
	name := path.Base(url)
	return os.Remove(filepath.Join(l.dir, name))
}

var _ ImageStore = (*Local)(nil)
