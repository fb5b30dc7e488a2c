package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "net/http/pprof"

	"github.com/varlaud/dexa-extract/config"
	"github.com/varlaud/dexa-extract/data"
	"github.com/varlaud/dexa-extract/handlers"
	"github.com/varlaud/dexa-extract/health"
	"github.com/varlaud/dexa-extract/logging"
	"github.com/varlaud/dexa-extract/metrics"
	"github.com/varlaud/dexa-extract/reportparser"
	"github.com/varlaud/dexa-extract/scheduler"
	"github.com/varlaud/dexa-extract/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	// Wire the pipeline: decoder -> parser -> container, driven by the
	// scheduler, served by the handlers.
	container := data.NewBatchContainer()
	container.SetServerStartTime(time.Now())

	parser := reportparser.NewReportParser()
	decoder := reportparser.NewPDFDecoder()
	validator := validation.NewRecordValidator()
	healthChecker := health.NewHealthChecker(container,
		time.Duration(cfg.ScanIntervalMins)*time.Minute)

	batchScheduler := scheduler.NewScheduler(container, parser, decoder, cfg)
	if err := batchScheduler.Start(); err != nil {
		logging.Error("Failed to start batch scheduler", "error", err)
		os.Exit(1)
	}
	defer batchScheduler.Stop()

	handler := handlers.NewHTTPHandler(container, validator, parser, decoder,
		healthChecker, cfg.MaxRequestBody)

	router := chi.NewRouter()

	router.Use(middleware.RedirectSlashes)
	router.Use(middleware.RequestID)
	router.Use(realIPMiddleware)
	router.Use(slogMiddleware)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Metrics)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Use(rateLimitHandler)
	router.Use(requestSizeMiddleware(cfg))

	server := &http.Server{
		Handler:      router,
		Addr:         cfg.Address + ":" + cfg.Port,
		ReadTimeout:  60 * time.Second, // uploads of scanned PDFs are slow
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// API routes
	router.Get("/rows", handler.ServeRows)
	router.Get("/rows/{patientID}", handler.ServeRowsByPatient)
	router.Get("/export", handler.ExportWorkbook)
	router.Post("/extract", handler.ExtractSingle)
	router.Get("/health", handler.HealthCheck)
	router.Handle("/metrics", promhttp.Handler())

	// Profiling endpoint (accessible at /debug/pprof/) - only for local dev
	if cfg.Env == "dev" {
		go func() {
			logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				logging.Error("Profiling server failed", "error", err)
			}
		}()
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting server at %s:%s\n", cfg.Address, cfg.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit
	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
		}
	} else {
		logging.Info("Server exited gracefully")
	}

	logging.Info("Server shutdown complete")
}
