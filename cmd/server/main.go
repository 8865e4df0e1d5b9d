package main

import (
	"alcyxob/runplan/internal/api"
	"alcyxob/runplan/internal/auth"
	"alcyxob/runplan/internal/config"
	"alcyxob/runplan/internal/logger"
	"alcyxob/runplan/internal/metrics"
	"alcyxob/runplan/internal/provider"
	"alcyxob/runplan/internal/repository/mongo"
	"alcyxob/runplan/internal/service"
	"alcyxob/runplan/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @title Running Plan API
// @version 1.0
// @description Generates four-week running plans from a runner's profile.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Mode, logger.WithRedaction(cfg.Log.Redaction))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log.Info("Starting running plan server", "address", cfg.Server.Address, "fallback_policy", cfg.Generation.FallbackPolicy)

	ctx := context.Background()

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("Failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureProfileIndexes(ctx, appDB.Collection(cfg.Database.Collection)); err != nil {
			log.Warn("Could not create profile indexes", "error", err)
		}
	}()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- Generation Providers ---
	chain, err := provider.BuildChain(ctx, cfg.Generation.Providers)
	if err != nil {
		return fmt.Errorf("build provider chain: %w", err)
	}
	router, err := provider.NewRouter(chain,
		provider.WithPolicy(cfg.Generation.FallbackPolicy),
		provider.WithAttemptTimeout(cfg.Generation.ProviderTimeout),
		provider.WithLogger(log),
		provider.WithObserver(m),
	)
	if err != nil {
		return err
	}
	log.Info("Provider chain ready", "candidates", router.Candidates())

	// --- Raw Reply Archive ---
	archive := storage.NewNoopArchive()
	if cfg.Archive.Enabled {
		archive, err = storage.NewS3Archive(ctx, cfg.S3, cfg.Archive.Prefix)
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		log.Info("Archiving raw replies", "bucket", cfg.S3.BucketName, "prefix", cfg.Archive.Prefix)
	}

	// --- Services ---
	verifier, err := auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return err
	}
	planService := service.NewPlanService(
		verifier,
		router,
		mongo.NewMongoProfileRepository(appDB, cfg.Database.Collection),
		service.WithArchive(archive),
		service.WithRecorder(m),
		service.WithLogger(log),
		service.WithRequestTimeout(cfg.Generation.RequestTimeout),
		service.WithPersistTimeout(cfg.Database.WriteTimeout),
	)

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	engine := api.NewRouter(api.RouterConfig{
		PlanService:    planService,
		Logger:         log,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     engine,
		ReadTimeout: 10 * time.Second,
		// A generation can take up to the request timeout, then the record write
		WriteTimeout: cfg.Generation.RequestTimeout + cfg.Database.WriteTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-quit:
	}
	log.Info("Shutting down server...")

	// In-flight generations get the full request timeout to finish and persist
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Generation.RequestTimeout+cfg.Database.WriteTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exiting.")
	return nil
}
