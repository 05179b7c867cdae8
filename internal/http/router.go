package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/flarehq/flarepp/internal/cache"
	"github.com/flarehq/flarepp/internal/config"
	"github.com/flarehq/flarepp/internal/http/handlers"
	"github.com/flarehq/flarepp/internal/http/middlewares"
	"github.com/flarehq/flarepp/internal/observability"
	"github.com/flarehq/flarepp/internal/queue/redisclient"
	"github.com/flarehq/flarepp/internal/repo/postgres"
	"github.com/flarehq/flarepp/internal/storage"

	"github.com/flarehq/flarepp/internal/auth"
	"github.com/flarehq/flarepp/internal/domain/user"
)

// RouterDeps collects everything the router wires together so main stays
// a thin bootstrap.
type RouterDeps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *redisclient.Client
	JWT      *auth.Manager
	Google   handlers.GoogleVerifier
	Media    storage.MediaStore
	Registry *prometheus.Registry
	Prom     *observability.Prom
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("flarepp-api"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// ops surface

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	health := handlers.NewHealthHandler(deps.Pool, deps.Redis)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(deps.Pool, deps.Prom)
	videosRepo := postgres.NewVideosRepo(deps.Pool, deps.Prom)
	refreshRepo := postgres.NewRefreshTokensRepo(deps.Pool)
	jobsRepo := postgres.NewJobsRepo(deps.Pool, deps.Prom)

	// wire up handlers

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, deps.JWT, deps.Google, refreshRepo, deps.Cfg)
	videosHandler := handlers.NewVideosHandler(videosRepo, usersRepo, deps.Media, jobsRepo, deps.Redis, cache.New[[]user.User](30*time.Second), deps.Prom, deps.Cfg.MaxUploadBytes)
	editorsHandler := handlers.NewEditorsHandler(videosRepo, usersRepo)

	// auth endpoints get a tight per-IP limit; everything else is per-user
	authLimiter := middlewares.NewRateLimiter(20, time.Minute)
	apiLimiter := middlewares.NewRateLimiter(300, time.Minute)

	authMW := middlewares.NewAuthMiddleware(deps.JWT)
	requireSession := authMW.RequireSession()

	authGroup := r.Group("/api/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		jsonOnly := middlewares.RequireJSON()

		authGroup.POST("/signup", jsonOnly, authHandler.SignUp)
		authGroup.POST("/login", jsonOnly, authHandler.Login)
		authGroup.POST("/google", jsonOnly, authHandler.LoginWithGoogle)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.GET("/logout", authHandler.Logout)
		authGroup.GET("/me", requireSession, authHandler.Me)
	}

	creator := r.Group("/api/creator")
	creator.Use(
		requireSession,
		authMW.RequireRole(user.RoleCreator),
		apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
	)
	{
		// multipart, so no RequireJSON; the body cap leaves headroom above
		// the per-file limit for the thumbnail and form framing, and the
		// handler enforces the friendlier per-file check
		uploadBodyCap := deps.Cfg.MaxUploadBytes + 16<<20

		creator.POST("/upload-video", middlewares.MaxBodyBytes(uploadBodyCap), videosHandler.Upload)

		creator.GET("/videos", videosHandler.List)
		creator.GET("/videos/search", videosHandler.Search)
		creator.GET("/editors", videosHandler.GetEditors)

		jsonOnly := middlewares.RequireJSON()

		creator.POST("/videos/:id/assign-editor", jsonOnly, videosHandler.AssignEditor)
		creator.POST("/videos/:id/publish", videosHandler.PublishToYouTube)
		creator.PUT("/channel", jsonOnly, videosHandler.LinkYouTubeChannel)
	}

	editor := r.Group("/api/editor")
	editor.Use(
		requireSession,
		authMW.RequireRole(user.RoleEditor),
		apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
	)
	{
		jsonOnly := middlewares.RequireJSON()

		editor.GET("/videos", editorsHandler.ListAssigned)
		editor.PUT("/videos/:id/status", jsonOnly, editorsHandler.MarkEdited)
		editor.PUT("/profile", jsonOnly, editorsHandler.UpdateProfile)
	}

	return r
}
