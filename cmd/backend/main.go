package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-drop/internal/db"
	"pdf-drop/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	logger := server.OpenLogger(cfg.Log)
	defer func() { _ = logger.Close() }()

	// Database
	dbConn, err := server.OpenDB(cfg.DSN())
	if err != nil {
		logger.Error("db_connect_failed", map[string]any{"host": cfg.DBHost, "db": cfg.DBName}, err)
		return err
	}
	defer func() { _ = dbConn.Close() }()

	if cfg.AutoMigrate {
		logger.Info("running_migrations", nil)
		if err := db.RunMigrations(dbConn); err != nil {
			logger.Error("migration_failed", nil, err)
			return err
		}
		logger.Info("migrations_complete", nil)
	}

	storage, cleanup, err := openStorage(cfg)
	if err != nil {
		logger.Error("storage_init_failed", map[string]any{"backend": cfg.Storage}, err)
		return err
	}
	defer cleanup()

	srv := server.New(cfg, server.NewPgStore(dbConn), storage, logger)

	// Start the HTTP server in a background goroutine so we can wait for signals.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting", map[string]any{
			"addr":       cfg.Addr,
			"storage":    cfg.Storage,
			"upload_dir": cfg.UploadDir,
		})
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting_down", map[string]any{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown_error", nil, err)
			return err
		}
		logger.Info("shutdown_complete", nil)
		return nil
	case err := <-errCh:
		if err != nil {
			logger.Error("server_error", nil, err)
		}
		return err
	}
}

// openStorage builds the configured storage backend and its cleanup func.
func openStorage(cfg server.Config) (server.Storage, func(), error) {
	switch cfg.Storage {
	case server.StorageMinio:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ms, err := server.NewMinioStorage(ctx, cfg.Minio)
		if err != nil {
			return nil, nil, err
		}
		return ms, func() {}, nil
	default:
		ds, err := server.NewDiskStorage(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		return ds, func() { _ = ds.Close() }, nil
	}
}
