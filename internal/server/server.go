// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "srefhub/docs" // swagger docs
	"srefhub/internal/auth"
	"srefhub/internal/config"
	"srefhub/internal/featureflags"
	"srefhub/internal/markdown"
	"srefhub/internal/middleware"
	"srefhub/internal/models"
	"srefhub/internal/notifications"
	"srefhub/internal/promptparse"
	"srefhub/internal/repository"
	"srefhub/internal/service"
	"srefhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.ObjectStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	authn        *middleware.Authenticator
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService        *service.AuthService
	userService        *service.UserService
	styleService       *service.StyleService
	commentService     *service.CommentService
	collectionService  *service.CollectionService
	leaderboardService *service.LeaderboardService
	promptService      *service.PromptService
	imageService       *service.ImageService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; revocation, notifications and Redis rate limits are
// then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	styleRepo := repository.NewStyleRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	imageRepo := repository.NewImageRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	var revocations auth.RevocationStore
	if redisClient != nil {
		revocations = auth.NewRedisRevocationStore(redisClient)
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(redisClient)
	extractor := promptparse.NewGeminiExtractor(promptparse.GeminiConfig{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
		Timeout:  time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
	})

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("srefhub-api"),
		notifier:       notifier,
		hub:            notifications.NewHub(),
		featureFlags:   flags,

		authService:        service.NewAuthService(userRepo, tokens, revocations),
		userService:        service.NewUserService(userRepo, followRepo, styleRepo, collectionRepo, notifier),
		styleService:       service.NewStyleService(styleRepo, markdown.NewRenderer(), notifier),
		commentService:     service.NewCommentService(commentRepo, styleRepo, userRepo, notifier),
		collectionService:  service.NewCollectionService(collectionRepo, styleRepo),
		leaderboardService: service.NewLeaderboardService(leaderboardRepo),
		promptService: service.NewPromptService(promptparse.NewParser(extractor, flags,
			time.Duration(cfg.LLMTimeoutSeconds)*time.Second)),
		imageService: service.NewImageService(imageRepo, store, cfg.UploadLimitBytes),
		authn:        middleware.NewAuthenticator(tokens, revocations),
	}

	return server, nil
}

// jsonBodyLimit caps every request body except multipart uploads.
const jsonBodyLimit = 1 << 20

var uploadRoutes = []string{"/api/uploads/images", "/api/users/me/avatar"}

// uploadBodyLimit fits MaxUploadFiles premium-sized files plus form overhead.
func (s *Server) uploadBodyLimit() int {
	return service.MaxUploadFiles*int(s.config.UploadLimitBytes(string(models.TierPremium))) + 1<<20
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.RequestTracing())
	}
	app.Use(middleware.RequestContext())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded media is embedded by the frontend on another origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.AccessLog())
	app.Use(middleware.BodyLimit(jsonBodyLimit, uploadRoutes...))

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per 15 minutes per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error:      "Too many requests, please try again later.",
				StatusCode: fiber.StatusTooManyRequests,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.store.(*storage.LocalStore); ok {
		app.Static(s.mediaPrefix(), local.Root(), fiber.Static{MaxAge: 31536000})
	}

	api := app.Group("/api")
	api.Get("/", s.HealthCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "srefhub Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	required := s.authn.Required()
	optional := s.authn.Optional()
	authLimit := middleware.RateLimit(s.redis, 5, 15*time.Minute, "auth")
	// Prompt parsing may call the paid LLM, so it stops when limits cannot be enforced.
	promptLimit := middleware.RateLimitWithPolicy(s.redis, 10, time.Minute, "prompt_parse", middleware.FailClosed)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authLimit, s.Register)
	authGroup.Post("/signup", authLimit, s.Register)
	authGroup.Post("/login", authLimit, s.Login)
	authGroup.Get("/me", required, s.Me)
	authGroup.Post("/logout", required, s.Logout)

	api.Get("/feature-flags", optional, s.GetFeatureFlags)

	// Static /styles/* routes before /:slug
	styles := api.Group("/styles")
	styles.Get("/", optional, s.ListStyles)
	styles.Post("/", required, s.CreateStyle)
	styles.Get("/most-viewed", s.MostViewedStyles)
	styles.Get("/most-liked", s.MostLikedStyles)
	styles.Post("/:id/like", required, s.ToggleLike)
	styles.Get("/:id/comments", s.ListComments)
	styles.Post("/:id/comments", required, s.CreateComment)
	styles.Get("/:slug", optional, s.GetStyleBySlug)

	collections := api.Group("/collections")
	collections.Get("/", required, s.ListMyCollections)
	collections.Post("/", required, s.CreateCollection)
	collections.Post("/:id/styles/:styleId/toggle", required, s.ToggleCollectionStyle)
	collections.Post("/:id/styles/:styleId", required, s.AddCollectionStyle)
	collections.Delete("/:id/styles/:styleId", required, s.RemoveCollectionStyle)
	collections.Get("/:id", optional, s.GetCollection)
	collections.Put("/:id", required, s.UpdateCollection)
	collections.Delete("/:id", required, s.DeleteCollection)

	// Static /users/* routes before /:id
	users := api.Group("/users")
	users.Get("/leaderboard", s.Contributors)
	users.Put("/me", required, s.UpdateMyProfile)
	users.Post("/me/avatar", required, s.UploadAvatar)
	users.Get("/:id/styles", optional, s.ListUserStyles)
	users.Get("/:id/followers", s.ListFollowers)
	users.Get("/:id/following", s.ListFollowing)
	users.Get("/:id/collections", s.ListUserCollections)
	users.Post("/:id/follow", required, s.ToggleFollow)
	users.Get("/:id", optional, s.GetUserProfile)
	users.Put("/:id", required, s.UpdateUserProfile)

	leaderboard := api.Group("/leaderboard")
	leaderboard.Get("/contributors", s.Contributors)
	leaderboard.Get("/styles", s.TopStyles)

	uploads := api.Group("/uploads", required)
	uploads.Post("/images", s.UploadImages)
	uploads.Get("/images", s.ListMyImages)

	api.Post("/prompts/parse", required, promptLimit, s.ParsePrompt)
	api.Post("/gemini/parse-prompt", required, promptLimit, s.ParsePrompt)

	api.Get("/ws", required, s.WebsocketHandler())
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "srefhub",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber app with middleware and routes. Start and tests share it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "srefhub API",
		BodyLimit: s.uploadBodyLimit(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			return models.RespondWithError(c, models.StatusFor(err), err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down notification hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func (s *Server) mediaPrefix() string {
	if s.config.PublicMediaURL == "" || s.config.PublicMediaURL[0] != '/' {
		return "/media"
	}
	return s.config.PublicMediaURL
}
