package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/blogwrite/blog/application"
	"github.com/dfryer1193/blogwrite/blog/persistence"
	"github.com/dfryer1193/blogwrite/internal/config"
	"github.com/dfryer1193/blogwrite/internal/logger"
	"github.com/dfryer1193/blogwrite/internal/middleware"
	"github.com/dfryer1193/blogwrite/internal/rest"
	"github.com/dfryer1193/blogwrite/shared/db"
	"github.com/dfryer1193/blogwrite/shared/db/postgres"
	"github.com/dfryer1193/blogwrite/shared/db/sqlite"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/dfryer1193/blogwrite/shared/store/miniostore"
	"github.com/dfryer1193/blogwrite/shared/store/sqlstore"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout = 5 * time.Second
	startupTimeout  = 10 * time.Second
)

// fileBackend is a file store that can also render previews.
type fileBackend interface {
	store.Files
	store.Previewer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	database := newDatabase(cfg)
	if err := database.Connect(); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to connect to database")
	}
	defer database.Close()

	files, err := newFiles(cfg, database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to set up file storage")
	}

	docs := sqlstore.NewDocuments(database.DB())
	postRepo := persistence.NewPostRepository(docs, store.Collection{
		DatabaseID:   cfg.DatabaseID,
		CollectionID: cfg.CollectionID,
	})
	media := persistence.NewMediaResolver(files, cfg.BucketID, cfg.PlaceholderImageURL)

	sessions := application.NewFormSessions(postRepo, media, application.FormConfig{RedirectDelay: cfg.RedirectDelay})
	postService := application.NewPostService(postRepo, media)
	defer func() {
		if err := postService.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close post service")
		}
	}()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes + 1<<20
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(r, rest.Deps{
		Pages:     application.NewPages(postRepo, media, sessions),
		Sessions:  sessions,
		Posts:     postService,
		Repo:      postRepo,
		Renderer:  application.NewMarkdownRenderer(cfg.PublicURL),
		Files:     files,
		Previewer: files,
		JWTSecret: cfg.JWTSecret,
		Ping:      database.DB().PingContext,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}

func newDatabase(cfg *config.Config) db.Database {
	if cfg.DBDriver == config.DriverPostgres {
		return postgres.NewPostgresDB(cfg.Postgres)
	}
	return sqlite.NewSQLiteDB(cfg.SQLite)
}

func newFiles(cfg *config.Config, database db.Database) (fileBackend, error) {
	limits := store.Limits{
		MaxSize:          cfg.MaxUploadBytes,
		AllowedMimeTypes: store.DefaultImageLimits.AllowedMimeTypes,
	}
	urls := store.URLBuilder{BaseURL: cfg.PublicURL}

	if cfg.StorageDriver != config.StorageMinio {
		return sqlstore.NewLocalFiles(database.DB(), sqlstore.LocalFilesConfig{
			Dir:               cfg.StoragePath,
			Limits:            limits,
			URLs:              urls,
			TransformsEnabled: cfg.ImageTransformationsEnabled,
		}), nil
	}

	files, err := miniostore.New(miniostore.Config{
		Endpoint:          cfg.Minio.Endpoint,
		AccessKey:         cfg.Minio.AccessKey,
		SecretKey:         cfg.Minio.SecretKey,
		UseSSL:            cfg.Minio.UseSSL,
		PresignExpiry:     cfg.Minio.PresignExpiry,
		Limits:            limits,
		URLs:              urls,
		TransformsEnabled: cfg.ImageTransformationsEnabled,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := files.EnsureBuckets(ctx, cfg.BucketID); err != nil {
		return nil, err
	}
	return files, nil
}
