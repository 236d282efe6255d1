package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"oversite-cms/internal/config"
	"oversite-cms/internal/data"
	"oversite-cms/internal/handler"
	"oversite-cms/internal/logger"
	"oversite-cms/internal/middleware"
	"oversite-cms/internal/publish"
	"oversite-cms/internal/service"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oversite-cms",
	Short: "Content API server for the marketing-site admin panel",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		return err
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stdout)

	// --- Pre-flight Checks ---
	if err := os.MkdirAll(cfg.Content.Root, 0o755); err != nil {
		log.Fatal(err, "Failed to create content root directory")
	}

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	contentRepository := data.NewFileContentRepository(cfg.Content.Root, cfg.Content.MedialessTypes)
	mediaStore := data.NewMediaStore(cfg.Content.Root)
	contentService := service.NewContentService(contentRepository, mediaStore, log)

	runner := publish.NewExecRunner(cfg.Git.Bin, cfg.Git.RepoRoot)
	gateway := publish.NewGateway(runner, contentPathspec(cfg), cfg.Git.Remote, cfg.Git.Branch, cfg.Git.DefaultCommitMessage, log)

	contentHandler := handler.NewContentHandler(contentService, cfg.Upload.MaxBytes, log)
	publishHandler := handler.NewPublishHandler(gateway, log)
	errorMiddleware := middleware.Error(log)

	// --- Router Setup ---
	// The router is the central hub that directs incoming requests to the correct handlers.
	router := handler.NewRouter(contentHandler, publishHandler, errorMiddleware, cfg.Server.CORSOrigin)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Could not start HTTP server")
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
	return nil
}

// contentPathspec resolves the content root to a pathspec relative to the
// git working-tree root, since the gateway's subprocesses run from there.
func contentPathspec(cfg *config.Config) string {
	rel, err := filepath.Rel(cfg.Git.RepoRoot, cfg.Content.Root)
	if err != nil {
		return cfg.Content.Root
	}
	return rel
}
