package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/llm-phish-detector/internal/api"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/mikey/llm-phish-detector/internal/di"
	"github.com/mikey/llm-phish-detector/internal/factory"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	server *api.Server,
	emailFilter ports.EmailFilter,
	completer core.TextCompleter,
	cacheRepo factory.StoppableCache,
) error {
	defer logger.Sync()

	if emailFilter == nil && !cfg.GetHTTP().Enabled {
		return fmt.Errorf("nothing to run: HTTP API disabled and filter type is %q", cfg.GetFilter().Type)
	}

	if cfg.GetHTTP().Enabled {
		if err := server.Start(); err != nil {
			return err
		}
	}

	if emailFilter != nil {
		if err := emailFilter.Start(); err != nil {
			return fmt.Errorf("failed to start filter: %w", err)
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if cfg.GetHTTP().Enabled {
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Failed to stop HTTP API", zap.Error(err))
		}
	}

	if emailFilter != nil {
		if err := emailFilter.Stop(); err != nil {
			logger.Error("Failed to stop filter", zap.Error(err))
		}
	}

	// Close any resources that need closing
	if closer, ok := completer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	if cacheRepo != nil {
		cacheRepo.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
