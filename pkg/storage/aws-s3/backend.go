package awss3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	p "path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/httprange"
)

type Backend struct {
	BucketURL string
	Session   *session.Session
	Client    *s3.S3

	bucket   string
	prefix   string
	region   string
	endpoint string
}

// New takes a URL in the form s3://bucket/prefix. An endpoint query parameter
// points the client at an S3 compatible service, e.g.
// s3://bucket/prefix?endpoint=http://localhost:4566
func New(connectionString string) (*Backend, error) {
	parsedURL, err := url.Parse(connectionString)
	if err != nil {
		return &Backend{}, err
	}
	if parsedURL.Scheme != "s3" {
		//goland:noinspection GoErrorStringFormat
		return &Backend{}, errors.New("S3 url should be in the format of s3://bucket/prefix")
	}

	config := &aws.Config{Region: aws.String("us-east-1")}
	endpoint := parsedURL.Query().Get("endpoint")
	if endpoint != "" {
		config.Endpoint = aws.String(endpoint)
		config.DisableSSL = aws.Bool(strings.HasPrefix(endpoint, "http://"))
		config.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return &Backend{}, err
	}

	backend := Backend{
		BucketURL: connectionString,
		Session:   sess,
		bucket:    parsedURL.Host,
		prefix:    strings.TrimPrefix(parsedURL.Path, "/"),
		region:    "us-east-1", // Region is calculated in Setup()
		endpoint:  endpoint,
	}
	return &backend, nil
}

func (b *Backend) Setup() error {
	b.Client = s3.New(b.Session, &aws.Config{Region: aws.String(b.region)})
	resp, err := b.Client.GetBucketLocation(&s3.GetBucketLocationInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		return err
	}

	if resp.LocationConstraint != nil && *resp.LocationConstraint != "" {
		b.region = *resp.LocationConstraint
		b.Session.Config.Region = resp.LocationConstraint
		b.Client = s3.New(b.Session, &aws.Config{Region: resp.LocationConstraint})
	}

	return nil
}

func (b *Backend) Type() string {
	return "s3"
}

func (b *Backend) objectKey(key string) (string, error) {
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

// Write uploads the object. S3 only exposes an object once the upload (or the
// multipart completion) succeeds, so partial objects are never readable.
func (b *Backend) Write(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	filePath, err := b.objectKey(key)
	if err != nil {
		return 0, err
	}

	counter := &countingReader{r: r}
	input := &s3manager.UploadInput{
		Bucket: aws.String(b.bucket),
		Body:   counter,
		Key:    aws.String(filePath),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	uploader := s3manager.NewUploaderWithClient(b.Client)
	if _, err = uploader.UploadWithContext(ctx, input); err != nil {
		return 0, err
	}

	return counter.n, nil
}

func (b *Backend) Read(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	filePath, err := b.objectKey(key)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	resp, err := b.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(filePath),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, e.ErrNotFound
		}
		return nil, err
	}

	if resp.ContentRange != nil {
		contentRange, err := httprange.ParseContentRange(*resp.ContentRange)
		if err != nil || contentRange.Start != offset || contentRange.End != offset+length-1 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("s3 returned range %q for window %d+%d", *resp.ContentRange, offset, length)
		}
	}

	return resp.Body, nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath, err := b.objectKey(key)
	if err != nil {
		return err
	}

	_, err = b.Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(filePath),
	})

	return err
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}
