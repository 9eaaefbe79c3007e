package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-vend-gateway/config"
	httpHandler "solana-vend-gateway/internal/adapter/http/handler"
	"solana-vend-gateway/internal/adapter/ledger"
	"solana-vend-gateway/internal/adapter/qr"
	redisStorage "solana-vend-gateway/internal/adapter/storage/redis"
	"solana-vend-gateway/internal/core/ports"
	"solana-vend-gateway/internal/service"
	"solana-vend-gateway/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Solana Vend Gateway")

	ctx := context.Background()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	recordStore := redisStorage.NewRecordStore(rdb, encSvc)

	// Initialize ledger client
	ledgerClient := ledger.NewSolanaClient(
		cfg.Ledger.RPCURL,
		cfg.Ledger.Commitment,
		&http.Client{Timeout: cfg.Ledger.Timeout},
		log,
	)

	// Initialize QR renderer
	qrRenderer, err := qr.NewFileRenderer(cfg.Payment.QRCodeDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize QR renderer")
	}

	// Initialize business services
	issuerSvc := service.NewIssuerService(recordStore, qrRenderer, cfg.Payment.Label, cfg.Payment.RecordTTL, log)
	verifierSvc := service.NewVerifierService(recordStore, ledgerClient, cfg.Ledger.SignatureLimit, cfg.Ledger.Timeout, log)

	// Initialize error tracking
	var reporter ports.ErrorReporter = service.NopReporter{}
	if cfg.ErrTrack.Endpoint != "" {
		reporter = service.NewHTTPErrorReporter(cfg.ErrTrack.Endpoint, &http.Client{Timeout: 10 * time.Second}, log)
		log.Info().Str("endpoint", cfg.ErrTrack.Endpoint).Msg("Error tracking enabled")
	}

	// Start expiry sweeper
	sweeper := service.NewExpirySweeper(recordStore, cfg.Sweeper.Interval, cfg.Sweeper.RetryInterval, log)
	sweeper.Start()
	defer sweeper.Stop()

	// Admission limiter shared by all authenticated routes
	limiter := rate.NewLimiter(rate.Limit(cfg.Limiter.Rate), cfg.Limiter.Burst)

	// Prometheus registry with process and Go runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Health checkers
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Issuer:         issuerSvc,
		Verifier:       verifierSvc,
		Reporter:       reporter,
		APIKey:         cfg.Auth.APIKey,
		Limiter:        limiter,
		HealthCheckers: []ports.HealthChecker{redisHealth},
		Registry:       registry,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		var err error
		if cfg.Server.TLSEnabled() {
			log.Info().Str("addr", addr).Msg("HTTPS server listening")
			err = srv.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			log.Info().Str("addr", addr).Msg("HTTP server listening")
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
