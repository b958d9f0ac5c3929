package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("upload not found")

// Disk writes images into a directory that the web server exposes under
// baseURL.
type Disk struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("uploads dir: %w", err)
	}
	return &Disk{dir: dir, baseURL: baseURL}, nil
}

func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Put(ctx context.Context, obj Object) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := uuid.NewString() + obj.Ext
	if err := os.WriteFile(filepath.Join(d.dir, name), obj.Data, 0644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &Image{URL: d.baseURL + name, PublicID: name}, nil
}

func (d *Disk) Delete(ctx context.Context, publicID string) error {
	if publicID == "" || filepath.Base(publicID) != publicID {
		return fmt.Errorf("%w: %q", ErrNotFound, publicID)
	}
	err := os.Remove(filepath.Join(d.dir, publicID))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrNotFound, publicID)
	}
	return err
}
