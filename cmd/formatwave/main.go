package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ah-its-andy/formatwave/internal/api"
	"github.com/ah-its-andy/formatwave/internal/archive"
	"github.com/ah-its-andy/formatwave/internal/cleanup"
	"github.com/ah-its-andy/formatwave/internal/config"
	"github.com/ah-its-andy/formatwave/internal/convert"
	"github.com/ah-its-andy/formatwave/internal/pipeline"
	"github.com/ah-its-andy/formatwave/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	baseLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer baseLogger.Sync()
	logger := baseLogger.Sugar()

	logger.Infow("starting formatwave",
		"addr", cfg.HTTPAddr(),
		"upload_dir", cfg.UploadDir,
		"converted_dir", cfg.ConvertedDir,
		"max_file_size", cfg.MaxFileSize,
		"max_files_per_batch", cfg.MaxFilesPerBatch,
		"render_dpi", cfg.RenderDPI)

	store, err := session.NewStore(cfg.UploadDir, cfg.ConvertedDir)
	if err != nil {
		logger.Fatalw("failed to init session store", "error", err)
	}

	registry := convert.NewRegistry(convert.Options{
		RenderDPI:   cfg.RenderDPI,
		JPEGQuality: cfg.JPEGQuality,
		WebPQuality: cfg.WebPQuality,
	})

	pipe := pipeline.New(registry, store, cfg.MaxFileSize, cfg.MaxFilesPerBatch, cfg.MaxWorkers, logger)
	archiver := archive.NewBuilder(store)
	server := api.NewServer(cfg, registry, pipe, store, archiver, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := cleanup.NewSweeper(
		[]string{cfg.UploadDir, cfg.ConvertedDir},
		cfg.CleanupAge, cfg.SweepInterval, logger)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: server.Router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http server failed", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("shutdown incomplete", "error", err)
	}
}
