package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/cache"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/database"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/fill"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/metrics"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/origin"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/signing"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/storage"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/transform"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/utils/logging"
	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/web"
	"github.com/rs/zerolog/log"
)

var cli struct {
	// Database backends
	DBSqlite   string `env:"DB_SQLITE" required:"" xor:"db" help:"SQLite filepath e.g. /tmp/db.sqlite"`
	DBPostgres string `env:"DB_POSTGRES" required:"" xor:"db" help:"Postgres URI e.g. postgresql://blah"`

	// Storage backends
	StorageDisk  string `env:"STORAGE_DISK" required:"" xor:"storage" help:"Use disk storage for cached media e.g. /tmp/cache"`
	StorageS3    string `env:"STORAGE_S3" required:"" xor:"storage" name:"storage-s3" help:"Use S3 storage for cached media e.g. s3://bucket/prefix"`
	StorageAzure string `env:"STORAGE_AZUREBLOB" required:"" xor:"storage" name:"storage-azureblob" help:"Use Azure blob storage for cached media e.g. DefaultEndpointsProtocol=https;...;Container=media"`

	// Capability tokens
	SigningSecret          string `env:"SIGNING_SECRET" required:"" help:"HMAC secret for video and thumbnail tokens"`
	ThumbnailSigningSecret string `env:"THUMBNAIL_SIGNING_SECRET" help:"Separate HMAC secret for thumbnail tokens"`

	// Origins
	BotToken            string        `env:"BOT_TOKEN" required:"" help:"Bot token used to address the file origin"`
	FileOriginURL       string        `env:"FILE_ORIGIN_URL" default:"https://api.telegram.org" help:"Base URL of the file origin"`
	ImageOriginTemplate string        `env:"IMAGE_ORIGIN_TEMPLATE" required:"" help:"Source image URL with {chat_id} and {message_id} placeholders"`
	ImageTransformURL   string        `env:"IMAGE_TRANSFORM_URL" help:"Base URL of the image resizing endpoint, defaults to the image origin host"`
	OriginTimeout       time.Duration `env:"ORIGIN_TIMEOUT" default:"60s" help:"Timeout for filling the cache from the file origin"`
	ThumbnailTimeout    time.Duration `env:"THUMBNAIL_TIMEOUT" default:"15s" help:"Timeout for thumbnail requests to the image origin"`

	// Fill de-duplication
	RedisURL      string `env:"REDIS_URL" help:"Redis URI for cross instance fill locking e.g. redis://localhost:6379/0"`
	DisableDedupe bool   `env:"DISABLE_DEDUPE" help:"Let concurrent misses for the same object each fetch from the origin"`

	// Misc
	VideoMaxAge          time.Duration `env:"VIDEO_MAX_AGE" default:"24h" help:"Cache-Control max-age for video responses"`
	LogLevel             string        `env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error"`
	LogPretty            bool          `env:"LOG_PRETTY" help:"Human readable console logs"`
	ListenAddress        string        `env:"LISTEN_ADDR" default:"0.0.0.0:8080" help:"Listen address e.g. 0.0.0.0:8080"`
	MetricsListenAddress string        `env:"METRICS_LISTEN_ADDR" default:"0.0.0.0:9102" help:"Listen address for prometheus metrics e.g. 0.0.0.0:9102"`
	DisableMetrics       bool          `env:"DISABLE_METRICS" help:"Disable the prometheus metrics listener"`
}

func main() {
	kong.Parse(&cli)

	logging.SetupLogging(cli.LogLevel, cli.LogPretty)

	var databaseBackendName, dbConnectionString string
	if cli.DBSqlite != "" {
		databaseBackendName = "sqlite"
		dbConnectionString = cli.DBSqlite
	}
	if cli.DBPostgres != "" {
		databaseBackendName = "postgres"
		dbConnectionString = cli.DBPostgres
	}

	var storageBackendName, storageConnectionString string
	if cli.StorageDisk != "" {
		storageBackendName = "disk"
		storageConnectionString = cli.StorageDisk
	}
	if cli.StorageS3 != "" {
		storageBackendName = "s3"
		storageConnectionString = cli.StorageS3
	}
	if cli.StorageAzure != "" {
		storageBackendName = "azureblob"
		storageConnectionString = cli.StorageAzure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbBackend, err := database.GetBackend(databaseBackendName, dbConnectionString)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initiate database backend")
	}
	defer dbBackend.Close()

	storageBackend, err := storage.GetStorageBackend(storageBackendName, storageConnectionString)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initiate storage backend")
	}

	thumbnails, err := transform.New(cli.ImageOriginTemplate, cli.ImageTransformURL, cli.ThumbnailTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initiate thumbnail gateway")
	}

	store := cache.NewStore(storageBackend, dbBackend)
	filler := fill.NewCoordinator(store, origin.NewFileFetcher(cli.FileOriginURL, cli.BotToken, cli.OriginTimeout), cli.OriginTimeout)
	filler.Dedupe = !cli.DisableDedupe

	if cli.RedisURL != "" {
		redisClient, err := fill.NewRedisClient(ctx, cli.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initiate redis")
		}
		defer redisClient.Close()
		// Outlast the longest fill so a slow origin doesn't lose the lock
		filler.Locker = fill.NewRedisLocker(redisClient, cli.OriginTimeout+10*time.Second)
		log.Info().Msg("Using redis for cross instance fill locking")
	}

	handlers := &web.Handlers{
		Verifier:          signing.NewVerifier(cli.SigningSecret, cli.ThumbnailSigningSecret),
		Cache:             store,
		Filler:            filler,
		Thumbnails:        thumbnails,
		VideoCacheControl: "public, max-age=" + strconv.Itoa(int(cli.VideoMaxAge.Seconds())),
	}

	router := web.GetRouter(handlers, !cli.DisableMetrics)
	if !cli.DisableMetrics {
		go metrics.Server(cli.MetricsListenAddress)
	}

	srv := &http.Server{
		Addr:              cli.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("Listening on %s", cli.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed HTTP server loop")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down cleanly")
	}
}
