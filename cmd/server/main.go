package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/api"
	"github.com/ericwooz/yt-fetch-go/api/handlers"
	"github.com/ericwooz/yt-fetch-go/internal/app"
	"github.com/ericwooz/yt-fetch-go/internal/infrastructure"
	"github.com/ericwooz/yt-fetch-go/pkg/logger"
)

const version = "1.0.0"

var configPath = flag.String("config", "", "path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting yt-fetch server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_dir", config.Download.Dir))

	if err := app.PrepareDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	history, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize history repository", zap.Error(err))
	}
	defer history.Close()

	engine := infrastructure.NewYTDLPClient(config.Download.YTDLPBinary, log)
	progress := infrastructure.NewProgressStore(config.Download.ProgressDir)

	catalog := app.NewCatalogService(engine, &config.Download, log)
	jobs := app.NewJobService(engine, progress, history, &config.Download, log)

	router := api.SetupRouter(
		handlers.NewInfoHandler(catalog, log),
		handlers.NewDownloadHandler(jobs, &config.Download, log),
		handlers.NewHistoryHandler(history, log),
		handlers.NewHealthHandler(version),
		log,
	)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
