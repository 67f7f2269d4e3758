package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/basel-ax/museframe/internal/config"
	"github.com/basel-ax/museframe/internal/display"
	"github.com/basel-ax/museframe/internal/infrastructure/muses"
	"github.com/basel-ax/museframe/internal/logger"
	"github.com/basel-ax/museframe/internal/repository"
	"github.com/basel-ax/museframe/internal/service"
	"github.com/basel-ax/museframe/internal/storage"
	"github.com/basel-ax/museframe/internal/widget"
)

// app holds the wired components shared by all commands
type app struct {
	widget    *widget.Widget
	refresher *service.RefreshService
	db        *sql.DB
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Sugar()

	client := muses.NewClient(muses.Options{
		EntryURL: cfg.EntryURL,
		Timeout:  cfg.HTTPTimeout,
		RetryMax: cfg.HTTPRetryMax,
		Logger:   logger.Named("muses"),
	})

	store, err := storage.NewImageStore(cfg.ImageDir, cfg.ImageCacheSize, cfg.ImageCacheTTL)
	if err != nil {
		return nil, err
	}

	a := &app{
		widget: widget.New(client, logger.Named("widget")),
	}

	var repo repository.EntryRepository = repository.NoopEntryRepository{}
	if cfg.DB.Enabled() {
		log.Info("Initializing database connection...")
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.db = db

		pgRepo := repository.NewPostgresEntryRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		repo = pgRepo
		log.Info("Database connection established")
	} else {
		log.Info("DB_HOST not set, entry history disabled")
	}

	a.refresher = service.NewRefreshService(service.RefreshOptions{
		Widget:     a.widget,
		Downloader: client,
		Store:      store,
		Repo:       repo,
		Display:    display.NewFrameDisplay(cfg.FramePath, cfg.DisplayWidth, cfg.DisplayHeight, logger.Named("display")),
		Logger:     logger.Named("refresh"),
	})

	return a, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
