// Package origin retrieves source objects from the upstream file origin.
package origin

import (
	"context"
	"io"
	"mime"
	"net/url"
	p "path"
	"strings"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

const DefaultContentType = "video/mp4"

type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

type Fetcher interface {
	// Fetch returns the full object at filePath. Failures are *e.OriginError.
	Fetch(ctx context.Context, filePath string) (*Object, error)
}

// FileFetcher reads from a bot style file API, <base>/file/bot<token>/<path>.
type FileFetcher struct {
	client  *resty.Client
	baseURL string
	token   string
}

func NewFileFetcher(baseURL, token string, timeout time.Duration) *FileFetcher {
	return &FileFetcher{
		client:  NewClient("file-origin", timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (f *FileFetcher) fileURL(filePath string) string {
	segments := strings.Split(strings.TrimLeft(filePath, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return f.baseURL + "/file/bot" + f.token + "/" + strings.Join(segments, "/")
}

func (f *FileFetcher) Fetch(ctx context.Context, filePath string) (*Object, error) {
	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(f.fileURL(filePath))
	if err != nil {
		log.Warn().Str("file_path", filePath).Dur("elapsed", time.Since(start)).Msg("Origin request failed")
		return nil, RequestError(err)
	}

	body, contentLength := ResponseBody(resp)
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		_, _ = io.CopyN(io.Discard, body, 4096)
		_ = body.Close()
		log.Warn().Str("file_path", filePath).Int("status", resp.StatusCode()).Msg("Origin returned an error")
		return nil, &e.OriginError{StatusCode: resp.StatusCode()}
	}

	log.Debug().Str("file_path", filePath).Int64("content_length", contentLength).
		Dur("elapsed", time.Since(start)).Msg("Origin responded")

	return &Object{
		Body:          body,
		ContentType:   ContentType(resp.RawResponse.Header.Get("Content-Type"), filePath),
		ContentLength: contentLength,
	}, nil
}

// ContentType picks the type to serve an object with. File APIs commonly
// answer with a generic octet-stream, in which case the extension decides.
func ContentType(header, filePath string) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err == nil && mediaType != "" && mediaType != "application/octet-stream" {
		return header
	}
	if byExt := mime.TypeByExtension(strings.ToLower(p.Ext(filePath))); byExt != "" {
		return byExt
	}
	return DefaultContentType
}
