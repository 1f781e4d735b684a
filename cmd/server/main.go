package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/bootstrap"
	"github.com/boardkit/boardflow/internal/application/dispatcher"
	"github.com/boardkit/boardflow/internal/application/executor"
	"github.com/boardkit/boardflow/internal/application/ledger"
	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/application/registry"
	"github.com/boardkit/boardflow/internal/config"
	"github.com/boardkit/boardflow/internal/domain/event"
	"github.com/boardkit/boardflow/internal/infrastructure/notify"
	"github.com/boardkit/boardflow/internal/infrastructure/permission"
	"github.com/boardkit/boardflow/internal/infrastructure/persistence/repository"
	"github.com/boardkit/boardflow/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/boardkit/boardflow/internal/interfaces/http"
	"github.com/boardkit/boardflow/pkg/database"
	"github.com/boardkit/boardflow/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("BOARDFLOW_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting boardflow workflow engine",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_path", cfg.Database.Path))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create database directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Persistence
	txManager := sqlite.NewDB(db.DB, logger)
	statusRepo := repository.NewStatusRepository(db.DB, logger)
	transitionRepo := repository.NewTransitionRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	taskRepo := repository.NewTaskRepository(db.DB, logger)

	// Notification fan-out
	var notifier port.Notifier
	switch cfg.Notifier.Mode {
	case "webhook":
		notifier = notify.NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.WebhookTimeout)
	default:
		notifier = notify.NewLogNotifier(logger)
	}

	disp := dispatcher.New(dispatcher.WithLogger(logger))
	disp.SubscribeNamed(event.TypeTransitionCommitted, "assignee-notifier", notify.TransitionHandler(notifier))

	// Application services
	reg := registry.NewService(statusRepo, transitionRepo, logger,
		registry.WithCacheTTL(cfg.Workflow.CacheTTL))
	bootstrapper := bootstrap.New(statusRepo, transitionRepo, txManager, reg, logger)
	exec := executor.New(reg, taskRepo, auditRepo, txManager, permission.NewAllowAll(), logger,
		executor.WithDispatcher(disp))
	led := ledger.New(auditRepo, logger)

	handlers := httpiface.NewHandlers(reg, bootstrapper, exec, led, taskRepo, logger)
	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server cleanly", zap.Error(err))
	}
	if err := disp.Close(); err != nil {
		logger.Error("Failed to drain dispatcher", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
