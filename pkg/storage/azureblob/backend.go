package azureblob

import (
	"bytes"
	"context"
	"errors"
	"io"
	p "path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
)

type Backend struct {
	Client    *azblob.Client
	container string
	prefix    string
}

// ParsePartsFromConnectionString pulls the gateway specific Container (and
// optional Prefix) parts out of an Azure storage connection string, returning
// them alongside the connection string the SDK understands.
func ParsePartsFromConnectionString(connStr string) (string, string, string, bool) {
	container := ""
	prefix := ""
	account := false
	remaining := make([]string, 0)

	parts := strings.Split(connStr, ";")
	for _, part := range parts {
		if part == "" {
			continue
		}
		subParts := strings.SplitN(part, "=", 2)
		if len(subParts) < 2 {
			return "", "", "", false
		}

		switch subParts[0] {
		case "Container":
			container = subParts[1]
		case "Prefix":
			prefix = strings.Trim(subParts[1], "/")
		default:
			if subParts[0] == "AccountName" || subParts[0] == "BlobEndpoint" {
				account = true
			}
			remaining = append(remaining, part)
		}
	}

	if container == "" || !account {
		return "", "", "", false
	}

	return container, prefix, strings.Join(remaining, ";"), true
}

func New(connectionString string) (*Backend, error) {
	container, prefix, sdkConnStr, found := ParsePartsFromConnectionString(connectionString)
	if !found {
		return &Backend{}, errors.New("container or account missing from connection string")
	}

	client, err := azblob.NewClientFromConnectionString(sdkConnStr, nil)
	if err != nil {
		return &Backend{}, err
	}

	backend := Backend{
		Client:    client,
		container: container,
		prefix:    prefix,
	}
	return &backend, nil
}

func (b *Backend) Setup() error {
	_, err := b.Client.CreateContainer(context.Background(), b.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}
	return nil
}

func (b *Backend) Type() string {
	return "azureblob"
}

func (b *Backend) blobName(key string) (string, error) {
	if !cachekey.Valid(key) {
		return "", e.ErrMalformedKey
	}
	return p.Join(b.prefix, key[:2], key), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(buf []byte) (int, error) {
	n, err := c.r.Read(buf)
	c.n += int64(n)
	return n, err
}

// Write stages the stream as blocks and commits the block list at the end;
// uncommitted blocks are never readable.
func (b *Backend) Write(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	name, err := b.blobName(key)
	if err != nil {
		return 0, err
	}

	counter := &countingReader{r: r}
	opts := &azblob.UploadStreamOptions{
		Metadata: map[string]*string{"ownedBy": to("media-gateway")},
	}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to(contentType)}
	}

	if _, err = b.Client.UploadStream(ctx, b.container, name, counter, opts); err != nil {
		return 0, err
	}

	return counter.n, nil
}

func (b *Backend) Read(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	name, err := b.blobName(key)
	if err != nil {
		return nil, err
	}
	// A zero Count means "to the end" to the SDK.
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	resp, err := b.Client.DownloadStream(ctx, b.container, name, &azblob.DownloadStreamOptions{
		Range: blob.HTTPRange{Offset: offset, Count: length},
	})
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, err
	}

	return resp.Body, nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	name, err := b.blobName(key)
	if err != nil {
		return err
	}
	_, err = b.Client.DeleteBlob(ctx, b.container, name, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return err
	}
	return nil
}

func to[T any](v T) *T {
	return &v
}
