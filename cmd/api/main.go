package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flarehq/flarepp/internal/auth"
	"github.com/flarehq/flarepp/internal/config"
	"github.com/flarehq/flarepp/internal/db"
	httpx "github.com/flarehq/flarepp/internal/http"
	"github.com/flarehq/flarepp/internal/observability"
	"github.com/flarehq/flarepp/internal/queue/redisclient"
	"github.com/flarehq/flarepp/internal/storage"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer bootCancel()

	// tracing is optional; without an endpoint spans go nowhere
	shutdownTracer, err := observability.InitTracer(bootCtx, "flarepp-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracer init failed, continuing without traces", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.EnsureSeedUsers(bootCtx, pool, cfg); err != nil {
		log.Error("seeding dev users failed", "err", err)
		os.Exit(1)
	}

	redisClient := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer redisClient.Close()

	media, err := storage.NewS3Client(cfg)

	if err != nil {
		log.Error("object storage init failed", "err", err)
		os.Exit(1)
	}

	google, err := auth.NewGoogleVerifier(bootCtx, cfg.GoogleClientID)

	if err != nil {
		// google sign-in stays disabled but password auth still works
		log.Warn("google verifier init failed", "err", err)
		google = nil
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	deps := httpx.RouterDeps{
		Cfg:      cfg,
		Log:      log,
		Pool:     pool,
		Redis:    redisClient,
		JWT:      jwtManager,
		Media:    media,
		Registry: registry,
		Prom:     prom,
	}

	if google != nil {
		deps.Google = google
	}

	router := httpx.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Minute, // uploads are slow
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	ctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	if err := shutdownTracer(ctx); err != nil {
		log.Warn("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}
