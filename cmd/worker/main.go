package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/flarehq/flarepp/internal/config"
	"github.com/flarehq/flarepp/internal/db"
	"github.com/flarehq/flarepp/internal/jobs"
	"github.com/flarehq/flarepp/internal/notifications"
	"github.com/flarehq/flarepp/internal/observability"
	"github.com/flarehq/flarepp/internal/queue/redisclient"
	"github.com/flarehq/flarepp/internal/queue/worker"
	"github.com/flarehq/flarepp/internal/repo/postgres"
	"github.com/flarehq/flarepp/internal/storage"
	"github.com/flarehq/flarepp/internal/youtube"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

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

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)
	videosRepo := postgres.NewVideosRepo(pool, prom)

	uploader := buildUploader(cfg)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(),
		notifications.ProtectedNotifierConfig{},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:     workerID,
		PollInterval: 2 * time.Second,
		ExecTimeout:  15 * time.Minute, // youtube uploads are slow
	}, jobsRepo, redisClient, prom, log)

	w.Register(string(jobs.JobYouTubePublish),
		jobs.NewPublishExecutor(videosRepo, usersRepo, media, uploader, cfg.S3Bucket, log))
	w.Register(string(jobs.JobAssignmentNotification),
		jobs.NewNotifyExecutor(videosRepo, usersRepo, notifier))

	// health endpoint for the orchestrator; own port so it can share a
	// host with the api
	healthPort := os.Getenv("WORKER_PORT")

	if healthPort == "" {
		healthPort = "8081"
	}

	healthSrv := &http.Server{
		Addr:              ":" + healthPort,
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := healthSrv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("health listener failed", "err", err)
		}
	}()

	log.Info("worker starting", "worker_id", workerID)

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}

// buildUploader wires the YouTube client from the configured OAuth
// credentials. Without them publish jobs fail with a clear error instead
// of the whole worker refusing to start.
func buildUploader(cfg config.Config) youtube.Uploader {
	if cfg.YouTubeClientID == "" || cfg.YouTubeRefreshToken == "" {
		return youtube.NewClient(nil)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.YouTubeClientID,
		ClientSecret: cfg.YouTubeClientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube.upload"},
	}

	tokens := oauthCfg.TokenSource(context.Background(), &oauth2.Token{
		RefreshToken: cfg.YouTubeRefreshToken,
	})

	return youtube.NewClient(tokens)
}
