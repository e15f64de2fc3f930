// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/slotx-reports/internal/api"
	"github.com/andresuchdata/slotx-reports/internal/cache"
	"github.com/andresuchdata/slotx-reports/internal/config"
	"github.com/andresuchdata/slotx-reports/internal/pipeline"
	"github.com/andresuchdata/slotx-reports/internal/service"
	"github.com/andresuchdata/slotx-reports/internal/storage"
	"github.com/andresuchdata/slotx-reports/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger.UseJSON(os.Stdout)
	}

	archives, err := cache.NewArchiveCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize archive cache")
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize archive storage")
	}

	generator := pipeline.NewGenerator(pipeline.Config{
		WorkerCount: cfg.Report.WorkerCount,
		PoweredBy:   cfg.Report.PoweredBy,
		Version:     cfg.Report.Version,
	})
	reportService := service.NewReportService(generator, archives, store, cfg.Storage.Prefix)

	router := api.NewRouter(&api.Services{ReportService: reportService}, cfg.Server.AllowedOrigins)
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Bool("cache", cfg.Cache.Enabled).
			Str("storage", cfg.Storage.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
