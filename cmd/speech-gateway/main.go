// main package for the speech-gateway service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/audio"
	"github.com/book-expert/speech-gateway/internal/config"
	"github.com/book-expert/speech-gateway/internal/dispatch"
	"github.com/book-expert/speech-gateway/internal/engine"
	"github.com/book-expert/speech-gateway/internal/modelcache"
	"github.com/book-expert/speech-gateway/internal/objectstore"
	"github.com/book-expert/speech-gateway/internal/resources"
	"github.com/book-expert/speech-gateway/internal/respond"
	"github.com/book-expert/speech-gateway/internal/router"
	"github.com/book-expert/speech-gateway/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "speech-gateway.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

// serve wires the gateway together and blocks until shutdown.
func serve(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		log.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	artifactStore, err := objectstore.New(jetstreamContext, cfg.NATS.ModelObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to open model artifact store: %w", err)
	}

	device := engine.DetectDevice(cfg.Gateway.Device, log)
	log.System("Speech gateway targeting device: %s", device)

	loader := engine.NewLoader(cfg.Engine, cfg.Models, artifactStore, "", log)
	cache := modelcache.New(loader, cfg.Gateway.LoadRetryCooldown(), log)

	scratchDir := cfg.Gateway.ScratchDir
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}

	scopes := resources.New(scratchDir, log)
	jobRouter := router.New(device)
	encoder := respond.New(audio.NewWAVEncoder())
	dispatcher := dispatch.New(jobRouter, cache, encoder, scopes, log)

	jobWorker, err := worker.New(
		natsConnection,
		cfg.NATS.SpeechJobsSubject,
		dispatcher,
		cfg.Gateway.JobTimeout(),
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.System(
		"Speech gateway initialized. Listening for jobs on subject: %s",
		cfg.NATS.SpeechJobsSubject,
	)

	runErr := jobWorker.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("worker stopped: %w", runErr)
	}

	log.System("Speech gateway shut down.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
