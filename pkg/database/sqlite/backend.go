package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/s"
	"github.com/golang-migrate/migrate/v4"
	gomigratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // initialises sqlite3
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var fs embed.FS

type Backend struct {
	db *sql.DB
}

func NewSQLiteBackend(connectionString string) (*Backend, error) {
	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return &Backend{}, err
	}
	// SQLite serialises writers anyway, and an in-memory database only exists
	// on the connection that created it.
	db.SetMaxOpenConns(1)

	backend := Backend{
		db: db,
	}

	if err = backend.Migrate(); err != nil {
		_ = db.Close()
		return &Backend{}, err
	}

	return &backend, nil
}

func (b *Backend) Type() string { return "sqlite" }

func (b *Backend) Migrate() error {
	driver, err := gomigratesqlite.WithInstance(b.db, &gomigratesqlite.Config{})
	if err != nil {
		return err
	}

	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return err
	}

	log.Info().Msg("Starting database migrations")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Info().Msg("Finished database migrations")

	return nil
}

func (b *Backend) GetObject(ctx context.Context, key string) (s.ObjectMeta, error) {
	r := s.ObjectMeta{}
	var created string

	err := b.db.QueryRowContext(ctx, GetObject, key).Scan(&r.Key, &r.SourcePath, &r.Size, &r.ContentType, &created, &r.StorageBackend)
	if errors.Is(err, sql.ErrNoRows) {
		return s.ObjectMeta{}, e.ErrNotFound
	} else if err != nil {
		return s.ObjectMeta{}, err
	}

	if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return s.ObjectMeta{}, err
	}

	return r, nil
}

func (b *Backend) PutObject(ctx context.Context, meta s.ObjectMeta) error {
	created := meta.CreatedAt.UTC().Format(time.RFC3339)
	result, err := b.db.ExecContext(ctx, PutObject, meta.Key, meta.SourcePath, meta.Size, meta.ContentType, created, meta.StorageBackend)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	log.Debug().Str("key", meta.Key).Int64("rows", rowsAffected).Msg("Catalogued object")

	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
