package storage

import (
	"context"
	"errors"
	"io"

	s3 "github.com/cnonsohenry/telegram-video-app-sub000/pkg/storage/aws-s3"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/storage/azureblob"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/storage/disk"
)

// Backend holds the bytes of cached objects, addressed by cache key.
//
// Write must only make an object visible once every byte has been stored, so
// a reader never observes a partial object. Read returns e.ErrNotFound for a
// key that has never been written.
type Backend interface {
	Setup() error
	Type() string
	Write(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	Read(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func GetStorageBackend(backend, connectionString string) (Backend, error) {
	var b Backend
	var err error

	switch backend {
	case "disk":
		b, err = disk.New(connectionString)
	case "s3":
		b, err = s3.New(connectionString)
	case "azureblob":
		b, err = azureblob.New(connectionString)
	default:
		return nil, errors.New("invalid storage backend")
	}

	if err != nil {
		return nil, err
	}

	if err := b.Setup(); err != nil {
		return nil, err
	}

	return b, nil
}
