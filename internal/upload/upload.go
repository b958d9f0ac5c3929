// Package upload stores images attached to posts: cover images and pictures
// inserted into a post body.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"highrise/internal/config"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// extensions maps every accepted content type to the file extension used
// when storing it.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image describes a stored upload.
type Image struct {
	URL         string
	PublicID    string
	ContentType string
	Size        int64
	Width       int
	Height      int
}

// Object is what a backend is asked to keep.
type Object struct {
	Name        string
	ContentType string
	Ext         string
	Data        []byte
}

type Backend interface {
	Put(ctx context.Context, obj Object) (*Image, error)
	Delete(ctx context.Context, publicID string) error
}

type Service struct {
	backend  Backend
	maxBytes int64
}

func NewService(backend Backend, maxBytes int64) *Service {
	return &Service{backend: backend, maxBytes: maxBytes}
}

// Open builds the service selected by cfg.Driver.
func Open(cfg config.Uploads) (*Service, error) {
	var b Backend
	switch cfg.Driver {
	case config.UploadsMock:
		b = NewMock(cfg.Latency)
	case config.UploadsDisk:
		d, err := NewDisk(cfg.Dir, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		b = d
	default:
		return nil, fmt.Errorf("unknown uploads driver %q", cfg.Driver)
	}
	return NewService(b, cfg.MaxBytes), nil
}

// Upload checks the file read from r and hands it to the backend. The
// content type is sniffed from the data; the name only labels the upload.
func (s *Service) Upload(ctx context.Context, name string, r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, s.maxBytes>>20)
	}

	ct := http.DetectContentType(data)
	ext, ok := extensions[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %s (use JPEG, PNG, GIF or WebP)", ErrUnsupportedType, ct)
	}

	img, err := s.backend.Put(ctx, Object{Name: cleanName(name, ext), ContentType: ct, Ext: ext, Data: data})
	if err != nil {
		return nil, err
	}
	img.ContentType = ct
	img.Size = int64(len(data))
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, nil
}

func (s *Service) Delete(ctx context.Context, publicID string) error {
	return s.backend.Delete(ctx, publicID)
}

// cleanName strips directories and anything outside [A-Za-z0-9._-] from a
// client-supplied file name.
func cleanName(name, ext string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		out = "image" + ext
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FileServer serves stored images when the backend keeps them locally. It
// returns nil for remote backends.
func (s *Service) FileServer() http.Handler {
	if d, ok := s.backend.(*Disk); ok {
		return http.FileServer(http.Dir(d.Dir()))
	}
	return nil
}
