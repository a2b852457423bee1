package database

import (
	"context"
	"errors"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/database/postgres"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/database/sqlite"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/s"
)

// Backend is the catalog of completed cache objects. A row is only written
// after the object's bytes are stored, so the catalog decides what is readable.
type Backend interface {
	Type() string
	// GetObject returns e.ErrNotFound when the key has no completed object.
	GetObject(ctx context.Context, key string) (s.ObjectMeta, error)
	// PutObject upserts, a second write for a key replaces the first.
	PutObject(ctx context.Context, meta s.ObjectMeta) error
	Close() error
}

func GetBackend(backend, connectionString string) (Backend, error) {
	switch backend {
	case "sqlite":
		return sqlite.NewSQLiteBackend(connectionString)
	case "postgres":
		return postgres.NewPostgresBackend(connectionString)
	default:
		return nil, errors.New("invalid database backend")
	}
}
