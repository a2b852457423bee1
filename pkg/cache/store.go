// Package cache is the gateway's object cache: bytes live in a storage
// backend, and an object only becomes readable once the catalog records it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/database"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/s"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/storage"
	"github.com/rs/zerolog/log"
)

type Store struct {
	Storage  storage.Backend
	Database database.Backend
	Now      func() time.Time
}

func NewStore(storageBackend storage.Backend, databaseBackend database.Backend) *Store {
	return &Store{
		Storage:  storageBackend,
		Database: databaseBackend,
		Now:      time.Now,
	}
}

// Stat returns the metadata of a completed object, e.ErrNotFound on a miss, or
// a *e.StoreError when the store itself failed.
func (st *Store) Stat(ctx context.Context, key string) (s.ObjectMeta, error) {
	if !cachekey.Valid(key) {
		return s.ObjectMeta{}, e.NewStoreError("stat", e.ErrMalformedKey)
	}

	meta, err := st.Database.GetObject(ctx, key)
	if errors.Is(err, e.ErrNotFound) {
		return s.ObjectMeta{}, e.ErrNotFound
	} else if err != nil {
		return s.ObjectMeta{}, e.NewStoreError("stat", err)
	}

	// Catalogued on another storage backend, the bytes aren't reachable from here
	if meta.StorageBackend != st.Storage.Type() {
		log.Debug().Str("key", key).Str("backend", meta.StorageBackend).Msg("Object catalogued on a different storage backend")
		return s.ObjectMeta{}, e.ErrNotFound
	}

	return meta, nil
}

// Get returns a window of the object under key, the whole object when rng is
// nil. The slice always reports the full object size.
func (st *Store) Get(ctx context.Context, key string, rng *s.ByteRange) (*s.ObjectSlice, error) {
	meta, err := st.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	return st.Read(ctx, meta, rng)
}

// Read opens a window of an object already returned by Stat.
func (st *Store) Read(ctx context.Context, meta s.ObjectMeta, rng *s.ByteRange) (*s.ObjectSlice, error) {
	window := s.ByteRange{Offset: 0, Length: meta.Size}
	if rng != nil {
		window = *rng
	}
	if window.Offset < 0 || window.Length < 0 || window.Offset+window.Length > meta.Size {
		return nil, e.NewStoreError("read", fmt.Errorf("window %d+%d outside object of %d bytes", window.Offset, window.Length, meta.Size))
	}

	body, err := st.Storage.Read(ctx, meta.Key, window.Offset, window.Length)
	if errors.Is(err, e.ErrNotFound) {
		// Bytes evicted underneath the catalog, refetching repairs the entry
		log.Warn().Str("key", meta.Key).Msg("Catalogued object missing from storage")
		return nil, e.ErrNotFound
	} else if err != nil {
		return nil, e.NewStoreError("read", err)
	}

	return &s.ObjectSlice{
		Meta:   meta,
		Offset: window.Offset,
		Length: window.Length,
		Body:   body,
	}, nil
}

// Put stores r under key and catalogues it. A second Put for the same key
// overwrites the first; origin objects are immutable so either copy is valid.
// meta supplies SourcePath and ContentType, the size is measured.
func (st *Store) Put(ctx context.Context, key string, r io.Reader, meta s.ObjectMeta) (s.ObjectMeta, error) {
	if !cachekey.Valid(key) {
		return s.ObjectMeta{}, e.NewStoreError("put", e.ErrMalformedKey)
	}

	written, err := st.Storage.Write(ctx, key, r, meta.ContentType)
	if err != nil {
		return s.ObjectMeta{}, e.NewStoreError("put", err)
	}

	meta.Key = key
	meta.Size = written
	meta.CreatedAt = st.Now().UTC().Truncate(time.Second)
	meta.StorageBackend = st.Storage.Type()

	if err = st.Database.PutObject(ctx, meta); err != nil {
		_ = st.Storage.Delete(ctx, key) // Attempt to clean up file as we've failed to save it to db
		return s.ObjectMeta{}, e.NewStoreError("put", err)
	}

	return meta, nil
}
