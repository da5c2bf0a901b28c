// cmd/notesd/main.go
// notesd runs the topper notes marketplace service: eligibility review,
// document publication, the cached public read surfaces, purchases, and
// reviews.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Kb28022004/toperNoteBackend/internal/access"
	"github.com/Kb28022004/toperNoteBackend/internal/auth"
	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/config"
	"github.com/Kb28022004/toperNoteBackend/internal/event"
	"github.com/Kb28022004/toperNoteBackend/internal/media"
	"github.com/Kb28022004/toperNoteBackend/internal/metrics"
	"github.com/Kb28022004/toperNoteBackend/internal/payment"
	"github.com/Kb28022004/toperNoteBackend/internal/raster"
	"github.com/Kb28022004/toperNoteBackend/internal/schema"
	"github.com/Kb28022004/toperNoteBackend/internal/server"
	"github.com/Kb28022004/toperNoteBackend/internal/service"
	"github.com/Kb28022004/toperNoteBackend/internal/storage"
	"github.com/Kb28022004/toperNoteBackend/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.TracingEnabled)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var store storage.Store
	if cfg.DatabaseURL != "" {
		store, err = storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("using postgres store")
	} else {
		store = storage.NewMemory()
		logger.Warn("MKT_DATABASE_URL not set, using in-memory store")
	}

	var kv cache.KV
	if cfg.RedisURL != "" {
		kv, err = cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			// Cache unavailability is not fatal; serving degrades to
			// always-miss until the backend comes back.
			logger.Warn("redis unavailable, starting with in-process cache", "error", err)
			kv = cache.NewMemory()
		} else {
			logger.Info("using redis cache")
		}
	} else {
		kv = cache.NewMemory()
		logger.Warn("MKT_REDIS_URL not set, using in-process cache")
	}
	coordinator := cache.NewCoordinator(kv, logger, m, cfg.CacheOpTimeout)

	var gateway payment.Gateway
	if cfg.GatewayBaseURL != "" {
		gateway = payment.NewHTTP(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewaySecret)
		logger.Info("using payment gateway", "url", cfg.GatewayBaseURL)
	} else {
		gateway = payment.NewMock(cfg.GatewayKeyID)
		logger.Warn("MKT_GATEWAY_BASE_URL not set, using mock gateway")
	}

	var events event.Publisher
	if cfg.NATSURL != "" {
		events, err = event.NewNATS(cfg.NATSURL)
		if err != nil {
			logger.Warn("nats unavailable, events disabled", "error", err)
			events = event.NewNoop()
		} else {
			logger.Info("publishing events to nats")
		}
	} else {
		events = event.NewNoop()
		logger.Warn("MKT_NATS_URL not set, events disabled")
	}
	defer events.Close()

	var resolver media.URLResolver
	if cfg.S3Bucket != "" {
		resolver, err = media.NewS3(ctx, cfg.S3Bucket, cfg.S3Region, 15*time.Minute)
		if err != nil {
			return err
		}
		logger.Info("resolving media via s3", "bucket", cfg.S3Bucket)
	} else {
		resolver = media.NewLocal(cfg.MediaBaseURL)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}

	svc := service.New(store, coordinator, raster.NewPDF(), resolver, gateway,
		events, validator, m, logger, service.Options{
			TTLs: service.TTLs{
				Listing:     cfg.ListingTTL,
				Marketplace: cfg.MarketplaceTTL,
				Detail:      cfg.DetailTTL,
				Profile:     cfg.ProfileTTL,
				Directory:   cfg.DirectoryTTL,
			},
			Fractions: access.Fractions{
				Listing: cfg.ListingFraction,
				Detail:  cfg.DetailFraction,
			},
			GatewaySecret: cfg.GatewaySecret,
			UploadDir:     cfg.UploadDir,
		})

	srv := server.New(svc, auth.NewVerifier(cfg.JWTSecret), coordinator, m, registry, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
