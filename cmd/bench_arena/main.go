package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bench-arena/bench-arena/cmd/bench_arena/server"
	"github.com/bench-arena/bench-arena/internal/admission"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/datasets"
	"github.com/bench-arena/bench-arena/internal/engine/orchestrator"
	"github.com/bench-arena/bench-arena/internal/engine/promotion"
	"github.com/bench-arena/bench-arena/internal/engine/scheduler"
	"github.com/bench-arena/bench-arena/internal/engine/scoring"
	"github.com/bench-arena/bench-arena/internal/evaluation"
	"github.com/bench-arena/bench-arena/internal/imagebuilder"
	"github.com/bench-arena/bench-arena/internal/logging"
	"github.com/bench-arena/bench-arena/internal/metrics"
	"github.com/bench-arena/bench-arena/internal/registration"
	"github.com/bench-arena/bench-arena/internal/sandbox"
	"github.com/bench-arena/bench-arena/internal/storage"
	"github.com/bench-arena/bench-arena/internal/taskrunner"
	"github.com/bench-arena/bench-arena/internal/validation"
)

var (
	// Version can be set during the compilation
	Version string = "0.0.1"
	// Build is set during the compilation
	Build string
	// BuildDate is set during the compilation
	BuildDate string
)

const defaultRunTimeout = 30 * time.Minute

func main() {
	logger, logShutdown, err := logging.NewLogger()
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(nil, err, "Failed to create service logger", logging.FallbackLogger())
	}

	serviceConfig, err := config.LoadConfig(logger, Version, Build, BuildDate)
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(nil, err, "Failed to create service config", logger)
	}

	// set up the validator
	validate, err := validation.New()
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(serviceConfig, err, "Failed to create validator", logger)
	}

	// set up the storage
	store, err := storage.NewStorage(serviceConfig.Database, logger)
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(serviceConfig, err, "Failed to create storage", logger)
	}

	// set up the sandbox substrate
	sb, err := sandbox.NewSandbox(logger, serviceConfig)
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(serviceConfig, err, "Failed to create sandbox", logger)
	}
	logger.Info("Sandbox created", "substrate", sb.Name())

	// set up dataset staging
	datasetProvider, err := datasets.NewProvider(logger, serviceConfig.Datasets)
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(serviceConfig, err, "Failed to create dataset provider", logger)
	}

	// set up baseline image building
	builder, err := imagebuilder.NewBuilder(logger, serviceConfig.Baselines)
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(serviceConfig, err, "Failed to create image builder", logger)
	}

	outputValidator := evaluation.NewValidator(logger)
	artifactScanner := admission.NewScanner(logger)
	m := metrics.NewDefault()

	runTimeout := defaultRunTimeout
	if serviceConfig.Tournament != nil && serviceConfig.Tournament.RunTimeout > 0 {
		runTimeout = serviceConfig.Tournament.RunTimeout
	}

	// assemble the tournament engine
	daySched := scheduler.New(store, sb, datasetProvider, outputValidator, logger, m, runTimeout)
	scoringEngine := scoring.New(store, logger, runTimeout)
	promotionWorkflow := promotion.New(store, builder, logger, m)
	orch := orchestrator.New(store, daySched, scoringEngine, promotionWorkflow, logger, m)
	registrationService := registration.New(store, artifactScanner, logger)

	srv, err := server.NewServer(logger, serviceConfig, store, validate, registrationService, orch, m)
	if err != nil {
		// we do this as no point trying to continue
		startUpFailed(serviceConfig, err, "Failed to create server", logger)
	}

	// log the start up details
	logger.Info("Server starting",
		"server_port", srv.GetPort(),
		"version", serviceConfig.Service.Version,
		"build", serviceConfig.Service.Build,
		"build_date", serviceConfig.Service.BuildDate,
		"validator", validate != nil,
		"local", serviceConfig.Service.LocalMode,
		"sandbox", sb.Name(),
		"run_timeout", runTimeout,
	)

	// Start the background task runner driving the tournaments
	runnerCtx, stopRunner := context.WithCancel(context.Background())
	runner := taskrunner.New(orch, logger, serviceConfig.Scheduler)
	go runner.Start(runnerCtx)

	// Start server in a goroutine
	go func() {
		if err := srv.Start(); err != nil {
			// we do this as no point trying to continue
			if errors.Is(err, http.ErrServerClosed) {
				logger.Info("Server closed gracefully")
				return
			}
			startUpFailed(serviceConfig, err, "Server failed to start", logger)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// stop the task runner first so no new runs start mid-shutdown
	stopRunner()

	// shutdown the storage
	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage", "error", err.Error())
	}

	// Create a context with timeout for graceful shutdown
	waitForShutdown := 30 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), waitForShutdown)
	defer cancel()

	// shutdown the logger
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err.Error(), "timeout", waitForShutdown)
		_ = logShutdown() // ignore the error
	} else {
		logger.Info("Server shutdown gracefully")
		_ = logShutdown() // ignore the error
	}
}

func startUpFailed(conf *config.Config, err error, msg string, logger *slog.Logger) {
	termErr := server.SetTerminationMessage(server.GetTerminationFile(conf, logger), fmt.Sprintf("%s: %s", msg, err.Error()), logger)
	if termErr != nil {
		logger.Error("Failed to set termination message", "message", msg, "error", termErr.Error())
		log.Println(termErr.Error())
	}
	log.Fatal(err)
}
