package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"video_importer/internal/api"
	"video_importer/internal/config"
	"video_importer/internal/lock"
	"video_importer/internal/media"
	"video_importer/internal/publisher"
	"video_importer/internal/scheduler"
	"video_importer/internal/service"
	"video_importer/internal/source/youtube"
	"video_importer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("video importer stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := postgres.Migrate(db, logger); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	articleStore := postgres.NewArticleStore(db)
	categoryStore := postgres.NewCategoryStore(db)
	mediaStore := postgres.NewMediaAssetStore(db)
	settingsStore := postgres.NewSettingsStore(db)
	runStore := postgres.NewRunStore(db)
	txManager := postgres.NewTransactionManager(db)

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	var runLock service.Locker = lock.NewLocal()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		runLock = lock.NewRedis(client, cfg.Redis.LockKey, cfg.Redis.LockTTL)
		logger.Info("using redis run lock", "addr", cfg.Redis.Addr, "key", cfg.Redis.LockKey)
	}

	storage, err := newMediaStorage(ctx, cfg.Media)
	if err != nil {
		return fmt.Errorf("init media storage: %w", err)
	}

	importer := media.NewImporter(
		media.NewDownloader(cfg.Media.Timeout),
		storage,
		mediaStore,
		articleStore,
		logger,
	)

	source := youtube.New(youtube.Config{
		BaseURL:    cfg.YouTube.BaseURL,
		MaxResults: cfg.YouTube.MaxResults,
		Timeout:    cfg.YouTube.Timeout,
	}, logger)

	credentials := service.NewCredentialsLoader(cfg.YouTube, settingsStore)

	syncService := service.NewSyncService(
		source,
		credentials,
		articleStore,
		categoryStore,
		importer,
		txManager,
		pub,
		runStore,
		runLock,
		logger,
		cfg.Sync,
	)

	router := api.NewRouter(api.Deps{
		Syncer:      syncService,
		Settings:    settingsStore,
		Credentials: credentials,
		Runs:        runStore,
	}, logger)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("admin server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)
	schedDone := make(chan error, 1)
	go func() {
		schedDone <- sched.Start(ctx)
	}()

	logger.Info("starting video importer",
		"source", source.Name(),
		"interval", cfg.Sync.Interval,
		"cutoff", cfg.Sync.Cutoff,
		"media_driver", cfg.Media.Driver,
	)

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-serverErr:
		cancel()
		return fmt.Errorf("admin server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown", "error", err)
	}

	if err := <-schedDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newMediaStorage(ctx context.Context, cfg config.MediaConfig) (media.Storage, error) {
	if cfg.Driver == "s3" {
		return media.NewS3Storage(ctx, media.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Prefix:       cfg.S3.Prefix,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	}
	return media.NewLocalStorage(cfg.UploadDir), nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
