package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clasharena/esp-manager/config"
	"github.com/clasharena/esp-manager/db"
	"github.com/clasharena/esp-manager/handlers"
	"github.com/clasharena/esp-manager/live"
	"github.com/clasharena/esp-manager/repositories"
	api "github.com/clasharena/esp-manager/routes"
	"github.com/clasharena/esp-manager/scoring"
	"github.com/clasharena/esp-manager/services"
	"github.com/clasharena/esp-manager/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	snapshotRepo, err := repositories.NewPostgresSnapshotRepository(context.Background(), dbConn)
	if err != nil {
		logger.Error("failed to initialize snapshot repository", slog.Any("error", err))
		os.Exit(1)
	}

	// Загрузчик файлов (Cloudflare R2) — опционален.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 credentials not set, results publishing disabled")
	}

	// WebSocket hub для live-обновлений таблицы результатов
	wsHub := live.NewHub(logger)

	// Сервисы
	lobbyService := services.NewLobbyService(scoring.DefaultRules, snapshotRepo, wsHub, logger)
	lobbyService.Restore(context.Background())
	exportService := services.NewExportService(lobbyService, uploader, logger)
	logger.Info("services initialized")

	// HTTP-обработчики и маршруты
	lobbyHandler := handlers.NewLobbyHandler(lobbyService)
	exportHandler := handlers.NewExportHandler(exportService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, lobbyService)

	router := chi.NewRouter()
	api.SetupRoutes(router, lobbyHandler, exportHandler, webSocketHandler)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
