package origin

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"resty.dev/v3"
)

const userAgent = "media-gateway/1.0"

// NewClient builds the resty client shared by the origin fetchers. Timeout
// covers the whole exchange, including reading the body.
func NewClient(name string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent+" ("+name+")")
	return client
}

// RequestError converts a transport failure into an *e.OriginError. The
// request URL is dropped as it can carry credentials.
func RequestError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &e.OriginError{Err: e.ErrOriginTimeout}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &e.OriginError{Err: err}
}

// ResponseBody returns the decoded body of a response read with
// SetDoNotParseResponse, and its length. The length is -1 when the body was
// content-encoded on the wire.
func ResponseBody(resp *resty.Response) (io.ReadCloser, int64) {
	length := resp.RawResponse.ContentLength
	if resp.RawResponse.Uncompressed || resp.RawResponse.Header.Get("Content-Encoding") != "" {
		length = -1
	}
	return resp.Body, length
}
