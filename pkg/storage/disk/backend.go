package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	p "path/filepath"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/google/uuid"
)

type Backend struct {
	BaseDir string
}

func New(connectionString string) (*Backend, error) {
	if _, err := os.Stat(connectionString); os.IsNotExist(err) {
		return nil, errors.New("path does not exist")
	}

	// Enable uuid rand pool for better performance
	uuid.EnableRandPool()

	backend := Backend{BaseDir: p.Clean(connectionString)}
	return &backend, nil
}

func (b *Backend) Setup() error {
	return os.MkdirAll(p.Join(b.BaseDir, ".tmp"), 0o755)
}

func (b *Backend) Type() string {
	return "disk"
}

// objectPath shards objects by the first two characters of the key so no
// single directory grows unbounded.
func (b *Backend) objectPath(key string) (string, error) {
	if !cachekey.Valid(key) {
		return "", e.ErrMalformedKey
	}
	return p.Join(b.BaseDir, key[:2], key), nil
}

// Write streams r into a temp file and renames it into place, so the object
// only exists under its key once it is complete.
func (b *Backend) Write(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	filePath, err := b.objectPath(key)
	if err != nil {
		return 0, err
	}

	tmpPath := p.Join(b.BaseDir, ".tmp", uuid.New().String())
	fp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}

	writtenBytes, err := io.Copy(fp, r)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = fp.Sync()
	}
	if closeErr := fp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.MkdirAll(p.Dir(filePath), 0o755)
	}
	if err == nil {
		err = os.Rename(tmpPath, filePath)
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	return writtenBytes, nil
}

type sectionReadCloser struct {
	io.Reader
	io.Closer
}

func (b *Backend) Read(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	filePath, err := b.objectPath(key)
	if err != nil {
		return nil, err
	}

	fp, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, e.ErrNotFound
		}
		return nil, err
	}

	info, err := fp.Stat()
	if err != nil {
		_ = fp.Close()
		return nil, err
	}
	if offset < 0 || length < 0 || offset+length > info.Size() {
		_ = fp.Close()
		return nil, fmt.Errorf("window %d+%d outside object of %d bytes", offset, length, info.Size())
	}

	return sectionReadCloser{Reader: io.NewSectionReader(fp, offset, length), Closer: fp}, nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath, err := b.objectPath(key)
	if err != nil {
		return err
	}
	if err = os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
