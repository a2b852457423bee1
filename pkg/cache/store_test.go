package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cachekey"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/database"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/mocks"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/s"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/storage"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if _, exists := os.LookupEnv("DEBUG"); exists {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	os.Exit(m.Run())
}

func newDiskStore(t *testing.T) *Store {
	t.Helper()
	storageBackend, err := storage.GetStorageBackend("disk", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dbBackend, err := database.GetBackend("sqlite", "file::memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = dbBackend.Close() })

	store := NewStore(storageBackend, dbBackend)
	store.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return store
}

func mustKey(t *testing.T, path string) string {
	t.Helper()
	key, err := cachekey.FromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestPutGet(t *testing.T) {
	store := newDiskStore(t)
	key := mustKey(t, "videos/42.mp4")
	data := bytes.Repeat([]byte("abcdefghij"), 10)

	meta, err := store.Put(context.Background(), key, bytes.NewReader(data), s.ObjectMeta{SourcePath: "videos/42.mp4", ContentType: "video/mp4"})
	if err != nil {
		t.Fatal(err)
	}

	expected := s.ObjectMeta{
		Key:            key,
		SourcePath:     "videos/42.mp4",
		Size:           100,
		ContentType:    "video/mp4",
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		StorageBackend: "disk",
	}
	if diff := cmp.Diff(expected, meta); diff != "" {
		t.Fatal(diff)
	}

	stat, err := store.Stat(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expected, stat); diff != "" {
		t.Fatal(diff)
	}

	tests := []struct {
		name     string
		rng      *s.ByteRange
		expected []byte
	}{
		{"whole", nil, data},
		{"window", &s.ByteRange{Offset: 10, Length: 10}, data[10:20]},
		{"tail", &s.ByteRange{Offset: 95, Length: 5}, data[95:]},
		{"empty", &s.ByteRange{Offset: 0, Length: 0}, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slice, err := store.Get(context.Background(), key, tt.rng)
			if err != nil {
				t.Fatal(err)
			}
			defer slice.Body.Close()

			body, err := io.ReadAll(slice.Body)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, body); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(int64(100), slice.Meta.Size); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestGetOutOfBoundsWindow(t *testing.T) {
	store := newDiskStore(t)
	key := mustKey(t, "videos/short.mp4")
	if _, err := store.Put(context.Background(), key, bytes.NewReader([]byte("short")), s.ObjectMeta{}); err != nil {
		t.Fatal(err)
	}

	_, err := store.Get(context.Background(), key, &s.ByteRange{Offset: 3, Length: 10})
	var storeErr *e.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected store error, got %v", err)
	}
}

func TestStatMissing(t *testing.T) {
	store := newDiskStore(t)
	if _, err := store.Stat(context.Background(), mustKey(t, "videos/missing.mp4")); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestMalformedKey(t *testing.T) {
	store := newDiskStore(t)

	_, err := store.Stat(context.Background(), "../../etc/passwd")
	if !errors.Is(err, e.ErrMalformedKey) {
		t.Fatalf("Expected malformed key, got %v", err)
	}
	if errors.Is(err, e.ErrNotFound) {
		t.Fatal("Malformed key must not read as a miss")
	}

	if _, err = store.Put(context.Background(), "UPPER", bytes.NewReader(nil), s.ObjectMeta{}); !errors.Is(err, e.ErrMalformedKey) {
		t.Fatalf("Expected malformed key, got %v", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := newDiskStore(t)
	key := mustKey(t, "videos/7.mp4")

	if _, err := store.Put(context.Background(), key, bytes.NewReader([]byte("first")), s.ObjectMeta{ContentType: "video/mp4"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Put(context.Background(), key, bytes.NewReader([]byte("second copy")), s.ObjectMeta{ContentType: "video/mp4"}); err != nil {
		t.Fatal(err)
	}

	slice, err := store.Get(context.Background(), key, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer slice.Body.Close()
	body, _ := io.ReadAll(slice.Body)
	if diff := cmp.Diff("second copy", string(body)); diff != "" {
		t.Fatal(diff)
	}
}

func TestMockedBackends(t *testing.T) {
	key := mustKey(t, "videos/42.mp4")
	dbFailure := errors.New("connection refused")

	t.Run("catalog-failure-is-not-a-miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		storageBackend := mocks.NewMockStorageBackend(ctrl)
		dbBackend := mocks.NewMockDatabaseBackend(ctrl)
		dbBackend.EXPECT().GetObject(gomock.Any(), key).Times(1).Return(s.ObjectMeta{}, dbFailure)

		_, err := NewStore(storageBackend, dbBackend).Stat(context.Background(), key)
		var storeErr *e.StoreError
		if !errors.As(err, &storeErr) || !errors.Is(err, dbFailure) {
			t.Fatalf("Expected wrapped store error, got %v", err)
		}
		if errors.Is(err, e.ErrNotFound) {
			t.Fatal("Catalog failure must not read as a miss")
		}
	})

	t.Run("other-backend-is-a-miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		storageBackend := mocks.NewMockStorageBackend(ctrl)
		storageBackend.EXPECT().Type().Return("disk").AnyTimes()
		dbBackend := mocks.NewMockDatabaseBackend(ctrl)
		dbBackend.EXPECT().GetObject(gomock.Any(), key).Times(1).
			Return(s.ObjectMeta{Key: key, Size: 10, StorageBackend: "s3"}, nil)

		if _, err := NewStore(storageBackend, dbBackend).Stat(context.Background(), key); !errors.Is(err, e.ErrNotFound) {
			t.Fatalf("Expected not found, got %v", err)
		}
	})

	t.Run("evicted-bytes-are-a-miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		storageBackend := mocks.NewMockStorageBackend(ctrl)
		storageBackend.EXPECT().Type().Return("disk").AnyTimes()
		storageBackend.EXPECT().Read(gomock.Any(), key, int64(0), int64(10)).Times(1).Return(nil, e.ErrNotFound)
		dbBackend := mocks.NewMockDatabaseBackend(ctrl)
		dbBackend.EXPECT().GetObject(gomock.Any(), key).Times(1).
			Return(s.ObjectMeta{Key: key, Size: 10, StorageBackend: "disk"}, nil)

		if _, err := NewStore(storageBackend, dbBackend).Get(context.Background(), key, nil); !errors.Is(err, e.ErrNotFound) {
			t.Fatalf("Expected not found, got %v", err)
		}
	})

	t.Run("catalog-write-failure-removes-bytes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		storageBackend := mocks.NewMockStorageBackend(ctrl)
		storageBackend.EXPECT().Type().Return("disk").AnyTimes()
		storageBackend.EXPECT().Write(gomock.Any(), key, gomock.Any(), "video/mp4").Times(1).Return(int64(5), nil)
		storageBackend.EXPECT().Delete(gomock.Any(), key).Times(1).Return(nil)
		dbBackend := mocks.NewMockDatabaseBackend(ctrl)
		dbBackend.EXPECT().PutObject(gomock.Any(), gomock.Any()).Times(1).Return(dbFailure)

		_, err := NewStore(storageBackend, dbBackend).Put(context.Background(), key, bytes.NewReader([]byte("bytes")), s.ObjectMeta{ContentType: "video/mp4"})
		if !errors.Is(err, dbFailure) {
			t.Fatalf("Expected catalog failure, got %v", err)
		}
	})
}
