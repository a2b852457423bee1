// Package fill populates the object cache on a miss. Concurrent misses for one
// key share a single origin fetch within the process, and optionally across
// instances through a Locker.
package fill

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/metrics"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/origin"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/s"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const DefaultTimeout = 60 * time.Second

type ObjectStore interface {
	Stat(ctx context.Context, key string) (s.ObjectMeta, error)
	Put(ctx context.Context, key string, r io.Reader, meta s.ObjectMeta) (s.ObjectMeta, error)
}

// Locker serialises population of a key across gateway instances. The
// returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Coordinator struct {
	Store   ObjectStore
	Fetcher origin.Fetcher
	Locker  Locker
	Timeout time.Duration
	// Dedupe shares one fill between concurrent misses for the same key.
	Dedupe bool

	group singleflight.Group
}

func NewCoordinator(store ObjectStore, fetcher origin.Fetcher, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{
		Store:   store,
		Fetcher: fetcher,
		Timeout: timeout,
		Dedupe:  true,
	}
}

// Open returns the catalogued object for filePath, fetching it from the origin
// on a miss.
func (c *Coordinator) Open(ctx context.Context, filePath string) (s.ObjectMeta, error) {
	key, err := cachekey.FromPath(filePath)
	if err != nil {
		return s.ObjectMeta{}, err
	}

	meta, err := c.Store.Stat(ctx, key)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return meta, nil
	case errors.Is(err, e.ErrNotFound):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return s.ObjectMeta{}, err
	}

	return c.Fill(ctx, key, filePath)
}

// Fill fetches filePath from the origin and stores it under key. The fill is
// detached from ctx so a departing client does not abort it; ctx only bounds
// how long this caller waits.
func (c *Coordinator) Fill(ctx context.Context, key, filePath string) (s.ObjectMeta, error) {
	if !c.Dedupe {
		return c.fill(ctx, key, filePath)
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.fill(ctx, key, filePath)
	})
	select {
	case res := <-ch:
		if res.Shared {
			metrics.CacheFills.WithLabelValues("shared").Inc()
		}
		meta, _ := res.Val.(s.ObjectMeta)
		return meta, res.Err
	case <-ctx.Done():
		return s.ObjectMeta{}, ctx.Err()
	}
}

func (c *Coordinator) fill(parent context.Context, key, filePath string) (s.ObjectMeta, error) {
	detached := context.WithoutCancel(parent)

	if c.Locker != nil {
		lockCtx, cancelLock := context.WithTimeout(detached, c.Timeout)
		unlock, err := c.Locker.Lock(lockCtx, key)
		cancelLock()
		if err != nil {
			// Duplicate fills are harmless, carry on without the lock
			log.Warn().Err(err).Str("key", key).Msg("Failed to acquire fill lock")
		} else {
			defer unlock()
		}
	}

	// The fetch gets its own budget, however long the lock wait took
	ctx, cancel := context.WithTimeout(detached, c.Timeout)
	defer cancel()

	if c.Locker != nil {
		meta, err := c.Store.Stat(ctx, key)
		if err == nil {
			log.Debug().Str("key", key).Msg("Object filled by another instance")
			return meta, nil
		} else if !errors.Is(err, e.ErrNotFound) {
			metrics.CacheFills.WithLabelValues("store_error").Inc()
			return s.ObjectMeta{}, err
		}
	}

	start := time.Now()
	obj, err := c.Fetcher.Fetch(ctx, filePath)
	if err != nil {
		code := 0
		var originErr *e.OriginError
		if errors.As(err, &originErr) {
			code = originErr.StatusCode
		}
		metrics.ObserveOriginFetch("file", code, start)
		metrics.CacheFills.WithLabelValues("origin_error").Inc()
		return s.ObjectMeta{}, err
	}
	defer obj.Body.Close()

	body := &originReader{r: obj.Body}
	meta, err := c.Store.Put(ctx, key, body, s.ObjectMeta{SourcePath: filePath, ContentType: obj.ContentType})
	metrics.ObserveOriginFetch("file", http.StatusOK, start)
	if err != nil {
		if body.err != nil {
			// The origin broke off mid-body, the store only saw the symptom
			metrics.CacheFills.WithLabelValues("origin_error").Inc()
			log.Warn().Err(body.err).Str("key", key).Msg("Origin body ended early")
			return s.ObjectMeta{}, origin.RequestError(body.err)
		}
		metrics.CacheFills.WithLabelValues("store_error").Inc()
		return s.ObjectMeta{}, err
	}

	if obj.ContentLength >= 0 && obj.ContentLength != meta.Size {
		log.Warn().Str("key", key).Int64("declared", obj.ContentLength).Int64("stored", meta.Size).
			Msg("Stored size differs from origin Content-Length")
	}

	metrics.CacheFills.WithLabelValues("stored").Inc()
	log.Info().Str("key", key).Int64("size", meta.Size).Dur("elapsed", time.Since(start)).Msg("Cached object from origin")
	return meta, nil
}

// originReader remembers the first read error from the origin body.
type originReader struct {
	r   io.Reader
	err error
}

func (o *originReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && o.err == nil {
		o.err = err
	}
	return n, err
}
