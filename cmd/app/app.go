package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/docstore"
	handlers "blogapi/internal/handler"
	"blogapi/internal/middleware"
	"blogapi/internal/repository"
	"blogapi/internal/service"
	"blogapi/internal/storage"
)

type App struct {
	Store    docstore.Store
	Services *service.Service
	Handler  http.Handler
	logger   *slog.Logger
}

// NewLogger builds the process logger: tinted text for consoles, JSON otherwise.
func NewLogger(cfg config.Log, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.DateTime}))
}

// New wires the store, blob storage, services and HTTP stack from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		store.Close()
		return nil, err
	}

	users := repository.NewUserRepository(store)
	posts := repository.NewPostRepository(store)

	var slugIndex, emailIndex repository.UniqueIndex
	switch cfg.UniqueIndex {
	case config.UniqueIndexScan:
		slugIndex = repository.NewScanIndex(posts.Table(), "slug")
		emailIndex = repository.NewScanIndex(store.Table(repository.UsersCollection, "id"), "email")
	default:
		slugIndex = repository.NewReservationIndex(store, "slug")
		emailIndex = repository.NewReservationIndex(store, "email")
	}

	services := service.NewService(service.Dependencies{
		Users:      users,
		Posts:      posts,
		SlugIndex:  slugIndex,
		EmailIndex: emailIndex,
		Uploader:   storage.NewImageUploader(blobs),
	}, cfg, logger)

	h := handlers.NewHandlers(services, store, logger)
	handler := middleware.Chain(
		h.Routes(),
		middleware.Default(logger, cfg.CORSAllowedOrigins, cfg.MaxUploadSize)...,
	)

	logger.Info("application wired",
		"store", cfg.StoreDriver,
		"storage", cfg.Storage.Driver,
		"unique_index", cfg.UniqueIndex,
		"enforce_ownership", cfg.EnforceOwnership,
	)

	return &App{
		Store:    store,
		Services: services,
		Handler:  handler,
		logger:   logger,
	}, nil
}

func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		a.logger.Error("close store", "error", err)
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store, data will not survive a restart")
		return docstore.NewMemoryStore(), nil

	case config.StoreDriverDynamoDB:
		client, err := docstore.NewDynamoClient(ctx, docstore.DynamoOptions{
			Region:      cfg.DynamoDB.Region,
			Endpoint:    cfg.DynamoDB.Endpoint,
			TablePrefix: cfg.DynamoDB.TablePrefix,
			AccessKey:   cfg.DynamoDB.AccessKey,
			SecretKey:   cfg.DynamoDB.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		store := docstore.NewDynamoStore(client, cfg.DynamoDB.TablePrefix)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("dynamodb unreachable: %w", err)
		}
		return store, nil

	case config.StoreDriverPostgres:
		db, err := database.ConnectDB(ctx, cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		store := docstore.NewPostgresStore(db.DB)
		err = store.EnsureTables(ctx,
			repository.UsersCollection,
			repository.PostsCollection,
			repository.UniqueKeysCollection,
		)
		if err != nil {
			db.CloseDB()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.StorageDriverMinIO:
		return storage.NewMinIOClient(ctx, cfg)
	case config.StorageDriverS3:
		return storage.NewS3Client(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
