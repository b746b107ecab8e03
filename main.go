package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docchat/config"
	"docchat/qaclient"
	"docchat/web"
	"docchat/web/services"
	"docchat/workspace"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load(tempLogger)
	if err := cfg.Validate(); err != nil {
		tempLogger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Re-initialize logger with configured level and optional log file
	logger, err := config.InitFileLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	client, err := qaclient.New(cfg.APIBaseURL, cfg.RequestTimeout(), logger)
	if err != nil {
		logger.Fatal("Failed to create question-answering client", zap.Error(err))
	}

	workspaces, err := services.NewWorkspaceService(client, workspace.OptionsFromConfig(cfg), cfg.MaxWorkspaces, logger)
	if err != nil {
		logger.Fatal("Failed to create workspace store", zap.Error(err))
	}
	defer workspaces.Close()

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cleanupService := web.NewCleanupService(workspaces, logger)
	go web.StartWorkspaceCleanup(ctx, cfg, cleanupService, logger)

	webServer := web.NewServer(workspaces, logger, cfg)

	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting document chat web server",
		zap.String("port", port),
		zap.String("backend", client.BaseURL()))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
