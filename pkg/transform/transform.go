// Package transform fetches resized thumbnail variants from the public image
// origin through an on-the-fly image resizing endpoint.
package transform

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/origin"
	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

const (
	DefaultWidth = 400
	MaxWidth     = 1920
	Quality      = 80
	Format       = "webp"
	ContentType  = "image/webp"
)

type Request struct {
	ChatID    string
	MessageID string
	Width     int
}

type Gateway struct {
	client         *resty.Client
	sourceTemplate string
	transformBase  string
}

// New takes the source image template, containing {chat_id} and {message_id}
// placeholders, and the base URL of the resizing endpoint. An empty
// transformBase resizes on the source image's own host.
func New(sourceTemplate, transformBase string, timeout time.Duration) (*Gateway, error) {
	if !strings.Contains(sourceTemplate, "{chat_id}") || !strings.Contains(sourceTemplate, "{message_id}") {
		return nil, fmt.Errorf("image origin template must contain {chat_id} and {message_id}")
	}
	if transformBase == "" {
		parsed, err := url.Parse(sourceTemplate)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("image origin template is not an absolute URL")
		}
		transformBase = parsed.Scheme + "://" + parsed.Host
	}

	return &Gateway{
		client:         origin.NewClient("image-origin", timeout),
		sourceTemplate: sourceTemplate,
		transformBase:  strings.TrimRight(transformBase, "/"),
	}, nil
}

// ParseWidth reads the client supplied width, falling back to DefaultWidth for
// anything missing, malformed or non-positive and capping at MaxWidth.
func ParseWidth(raw string) int {
	width, err := strconv.Atoi(raw)
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	if width > MaxWidth {
		return MaxWidth
	}
	return width
}

// Height derives the 9:16 portrait height for a width, rounded to nearest.
func Height(width int) int {
	return (width*16 + 4) / 9
}

func (g *Gateway) SourceURL(chatID, messageID string) string {
	return strings.NewReplacer(
		"{chat_id}", url.PathEscape(chatID),
		"{message_id}", url.PathEscape(messageID),
	).Replace(g.sourceTemplate)
}

func (g *Gateway) VariantURL(req Request) string {
	options := fmt.Sprintf("width=%d,height=%d,fit=cover,format=%s,quality=%d", req.Width, Height(req.Width), Format, Quality)
	return g.transformBase + "/cdn-cgi/image/" + options + "/" + g.SourceURL(req.ChatID, req.MessageID)
}

// Fetch requests the resized variant. Non-2xx answers come back as
// *e.OriginError carrying the image origin's status.
func (g *Gateway) Fetch(ctx context.Context, req Request) (*origin.Object, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Accept", ContentType+",image/*;q=0.8").
		SetDoNotParseResponse(true).
		Get(g.VariantURL(req))
	if err != nil {
		return nil, origin.RequestError(err)
	}

	body, contentLength := origin.ResponseBody(resp)
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		_, _ = io.CopyN(io.Discard, body, 4096)
		_ = body.Close()
		log.Warn().Str("chat_id", req.ChatID).Str("message_id", req.MessageID).Int("status", resp.StatusCode()).
			Msg("Image origin returned an error")
		return nil, &e.OriginError{StatusCode: resp.StatusCode()}
	}

	contentType := resp.RawResponse.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentType
	}

	return &origin.Object{
		Body:          body,
		ContentType:   contentType,
		ContentLength: contentLength,
	}, nil
}
