package awss3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestNewParsesConnectionString(t *testing.T) {
	tables := []struct {
		name        string
		conn        string
		bucket      string
		prefix      string
		endpoint    string
		expectError bool
	}{
		{"bucket only", "s3://media", "media", "", "", false},
		{"bucket and prefix", "s3://media/cache/videos", "media", "cache/videos", "", false},
		{"custom endpoint", "s3://media/cache?endpoint=http://localhost:4566", "media", "cache", "http://localhost:4566", false},
		{"wrong scheme", "https://media/cache", "", "", "", true},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			backend, err := New(table.conn)
			if table.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := []string{backend.bucket, backend.prefix, backend.endpoint}
			if diff := cmp.Diff([]string{table.bucket, table.prefix, table.endpoint}, got); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(awserr.New(s3.ErrCodeNoSuchKey, "gone", nil)) {
		t.Error("NoSuchKey should be not found")
	}
	if !isNotFound(awserr.New("NotFound", "gone", nil)) {
		t.Error("NotFound should be not found")
	}
	if isNotFound(awserr.New("AccessDenied", "nope", nil)) {
		t.Error("AccessDenied must not be treated as a miss")
	}
	if isNotFound(errors.New("dial tcp: refused")) {
		t.Error("network errors must not be treated as a miss")
	}
}

// TestS3Backend runs against localstack or MinIO when STORAGE_S3 is set to its endpoint.
func TestS3Backend(t *testing.T) {
	endpoint := os.Getenv("STORAGE_S3")
	if endpoint == "" {
		t.Skip("Skipped s3 as no env var")
	}
	_ = os.Setenv("AWS_ACCESS_KEY_ID", "test")
	_ = os.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	bucket := uuid.NewString()
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(endpoint),
		DisableSSL:       aws.Bool(strings.HasPrefix(endpoint, "http://")),
		Credentials:      credentials.NewStaticCredentials("test", "test", ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s3.New(sess).CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatal(err)
	}

	query := url.Values{}
	query.Add("endpoint", endpoint)
	URL := url.URL{Scheme: "s3", Host: bucket, Path: "someprefix", RawQuery: query.Encode()}

	backend, err := New(URL.String())
	if err != nil {
		t.Fatal(err)
	}
	if err = backend.Setup(); err != nil {
		t.Fatal(err)
	}

	key, _ := cachekey.FromPath("videos/" + uuid.NewString() + ".mp4")
	data := make([]byte, 6*1024*1024)
	if _, err = rand.Read(data); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err = backend.Read(ctx, key, 0, 1); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before write, got %#v", err)
	}

	written, err := backend.Write(ctx, key, bytes.NewReader(data), "video/mp4")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(int64(len(data)), written); diff != "" {
		t.Fatal(diff)
	}

	rc, err := backend.Read(ctx, key, 1024, 2048)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[1024:3072], got) {
		t.Fatal("ranged read returned the wrong bytes")
	}

	if err = backend.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
}
