package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cache"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/fill"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/httprange"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/metrics"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/s"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/signing"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/transform"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Verifier   *signing.Verifier
	Cache      *cache.Store
	Filler     *fill.Coordinator
	Thumbnails *transform.Gateway
	// VideoCacheControl overrides VideoCacheControl when set.
	VideoCacheControl string
}

func (h *Handlers) videoCacheControl() string {
	if h.VideoCacheControl != "" {
		return h.VideoCacheControl
	}
	return VideoCacheControl
}

func HealthCheckEndpoint(c *gin.Context) {
	c.Data(http.StatusNoContent, gin.MIMEJSON, nil)
}

func (h *Handlers) GetVideo(c *gin.Context) {
	filePath := c.GetString("file_path")
	ctx := c.Request.Context()

	meta, err := h.Filler.Open(ctx, filePath)
	if err != nil {
		h.videoError(c, filePath, err)
		return
	}

	slice, window, err := h.openWindow(ctx, meta, filePath, c.GetHeader("Range"))
	if errors.Is(err, httprange.ErrUnsatisfiable) {
		c.Header("Content-Range", httprange.FormatUnsatisfied(meta.Size))
		abortWithError(c, http.StatusRequestedRangeNotSatisfiable, "requested range not satisfiable")
		return
	} else if err != nil {
		h.videoError(c, filePath, err)
		return
	}
	defer slice.Body.Close()

	headers := map[string]string{
		"Accept-Ranges": "bytes",
		"Cache-Control": h.videoCacheControl(),
		"Last-Modified": slice.Meta.CreatedAt.UTC().Format(http.TimeFormat),
	}
	if window.Partial() {
		headers["Content-Range"] = window.ContentRange
	}

	c.DataFromReader(window.Status, window.Length, slice.Meta.ContentType, slice.Body, headers)
}

// openWindow translates the Range header against the object and opens that
// window. Bytes that went missing underneath the catalog are refetched once.
func (h *Handlers) openWindow(ctx context.Context, meta s.ObjectMeta, filePath, rangeHeader string) (*s.ObjectSlice, httprange.Window, error) {
	for attempt := 0; ; attempt++ {
		window, err := httprange.Translate(rangeHeader, meta.Size)
		if err != nil {
			return nil, window, err
		}

		slice, err := h.Cache.Read(ctx, meta, &s.ByteRange{Offset: window.Offset, Length: window.Length})
		if errors.Is(err, e.ErrNotFound) && attempt == 0 {
			log.Warn().Str("file_path", filePath).Msg("Refetching object missing from storage")
			if meta, err = h.Filler.Fill(ctx, meta.Key, filePath); err != nil {
				return nil, window, err
			}
			continue
		}
		return slice, window, err
	}
}

func (h *Handlers) videoError(c *gin.Context, filePath string, err error) {
	var storeErr *e.StoreError
	var originErr *e.OriginError

	switch {
	case errors.As(err, &storeErr):
		log.Error().Err(err).Str("file_path", filePath).Msg("Cache store failure")
		abortWithError(c, http.StatusInternalServerError, "failed to read cache")
	case errors.Is(err, e.ErrMalformedKey):
		abortWithError(c, http.StatusBadRequest, "invalid file_path")
	case errors.As(err, &originErr):
		status, msg := originStatus(originErr)
		abortWithError(c, status, msg)
	case errors.Is(err, e.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "file not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Debug().Err(err).Str("file_path", filePath).Msg("Client stopped waiting for origin")
		abortWithError(c, http.StatusGatewayTimeout, "origin timed out")
	default:
		log.Error().Err(err).Str("file_path", filePath).Msg("Failed to serve video")
		abortWithError(c, http.StatusInternalServerError, "internal error")
	}
}

// originStatus maps a file origin failure onto the client response. Only 404
// and 429 are passed through, anything else is a bad gateway.
func originStatus(err *e.OriginError) (int, string) {
	switch {
	case errors.Is(err, e.ErrOriginTimeout):
		return http.StatusGatewayTimeout, "origin timed out"
	case err.StatusCode == http.StatusNotFound:
		return http.StatusNotFound, "file not found"
	case err.StatusCode == http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "origin rate limited"
	default:
		return http.StatusBadGateway, "origin unavailable"
	}
}

func (h *Handlers) GetThumbnail(c *gin.Context) {
	req := transform.Request{
		ChatID:    c.GetString("chat_id"),
		MessageID: c.GetString("message_id"),
		Width:     transform.ParseWidth(c.Query("w")),
	}

	start := time.Now()
	obj, err := h.Thumbnails.Fetch(c.Request.Context(), req)
	if err != nil {
		var originErr *e.OriginError
		if !errors.As(err, &originErr) {
			log.Error().Err(err).Str("chat_id", req.ChatID).Str("message_id", req.MessageID).Msg("Failed to fetch thumbnail")
			abortWithError(c, http.StatusInternalServerError, "internal error")
			return
		}
		metrics.ObserveOriginFetch("image", originErr.StatusCode, start)

		status := originErr.StatusCode
		if status == 0 {
			status, _ = originStatus(originErr)
		}
		abortWithError(c, status, fmt.Sprintf("Origin Error: %d", status))
		return
	}
	defer obj.Body.Close()
	metrics.ObserveOriginFetch("image", http.StatusOK, start)

	c.DataFromReader(http.StatusOK, obj.ContentLength, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control": ThumbnailCacheControl,
	})
}
