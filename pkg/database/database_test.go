package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/s"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if _, exists := os.LookupEnv("DEBUG"); exists {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	os.Exit(m.Run())
}

func TestGetBackendInvalid(t *testing.T) {
	if _, err := GetBackend("mysql", ""); err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

func TestDatabaseBackends(t *testing.T) {
	// List of basic tests to cover database backend logic
	runTests := func(backend Backend, t *testing.T) {
		t.Run("type-string", testDBBackendTypeString(backend))
		t.Run("get-missing", testGetMissing(backend))
		t.Run("put-get", testPutGet(backend))
		t.Run("put-overwrites", testPutOverwrites(backend))
	}

	// SQLite backend
	t.Run("sqlite", func(t *testing.T) {
		backend, err := GetBackend("sqlite", "file::memory:")
		if err != nil {
			t.Fatal(err)
		}
		defer backend.Close()

		runTests(backend, t)
	})

	// Postgres backend
	t.Run("postgres", func(t *testing.T) {
		pgURL := os.Getenv("DB_POSTGRES")
		if pgURL == "" {
			t.Skip("Skipped postgres as no env var")
		}
		backend, err := GetBackend("postgres", pgURL)
		if err != nil {
			t.Fatal(err)
		}
		defer backend.Close()

		runTests(backend, t)
	})
}

func newMeta(t *testing.T) s.ObjectMeta {
	t.Helper()
	path := "videos/" + uuid.NewString() + ".mp4"
	key, err := cachekey.FromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	return s.ObjectMeta{
		Key:            key,
		SourcePath:     path,
		Size:           1234,
		ContentType:    "video/mp4",
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		StorageBackend: "disk",
	}
}

func testDBBackendTypeString(backend Backend) func(t *testing.T) {
	return func(t *testing.T) {
		if len(backend.Type()) == 0 {
			t.Fatal("Backend needs a type string set")
		}
	}
}

func testGetMissing(backend Backend) func(t *testing.T) {
	return func(t *testing.T) {
		meta := newMeta(t)
		if _, err := backend.GetObject(context.Background(), meta.Key); !errors.Is(err, e.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %#v", err)
		}
	}
}

func testPutGet(backend Backend) func(t *testing.T) {
	return func(t *testing.T) {
		meta := newMeta(t)
		if err := backend.PutObject(context.Background(), meta); err != nil {
			t.Fatalf("Failed to put object: %s", err.Error())
		}

		result, err := backend.GetObject(context.Background(), meta.Key)
		if err != nil {
			t.Fatalf("Failed to get object: %s", err.Error())
		}
		if diff := cmp.Diff(meta, result); diff != "" {
			t.Fatalf("GetObject() mismatch (-want +got):\n%s", diff)
		}
	}
}

func testPutOverwrites(backend Backend) func(t *testing.T) {
	return func(t *testing.T) {
		meta := newMeta(t)
		if err := backend.PutObject(context.Background(), meta); err != nil {
			t.Fatal(err)
		}

		meta.Size = 4321
		meta.StorageBackend = "s3"
		if err := backend.PutObject(context.Background(), meta); err != nil {
			t.Fatalf("Second put should overwrite, got: %s", err.Error())
		}

		result, err := backend.GetObject(context.Background(), meta.Key)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(meta, result); diff != "" {
			t.Fatalf("GetObject() mismatch (-want +got):\n%s", diff)
		}
	}
}
