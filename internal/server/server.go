// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"underground/internal/cache"
	"underground/internal/config"
	"underground/internal/database"
	"underground/internal/middleware"
	"underground/internal/models"
	"underground/internal/notifications"
	"underground/internal/repository"
	"underground/internal/service"
	"underground/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	store          *storage.Store
	notifier       *notifications.Notifier

	userService      *service.UserService
	socialService    *service.SocialService
	trackService     *service.TrackService
	feedService      *service.FeedService
	communityService *service.CommunityService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	store, err := storage.NewStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload storage init failed: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	socialRepo := repository.NewSocialRepository(db)
	rankingRepo := repository.NewRankingRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	collabRepo := repository.NewCollaborationRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("underground-api"),
		store:          store,
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}
	emitter := notifications.NewStoreEmitter(notificationRepo, server.notifier)

	server.userService = service.NewUserService(userRepo, socialRepo)
	server.socialService = service.NewSocialService(socialRepo, userRepo, emitter)
	server.trackService = service.NewTrackService(trackRepo, commentRepo, userRepo, emitter)
	server.feedService = service.NewFeedService(rankingRepo, socialRepo)
	server.communityService = service.NewCommunityService(
		collabRepo, messageRepo, notificationRepo, statsRepo, userRepo, emitter)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Distributed tracing
	app.Use(middleware.TracingMiddleware())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Range",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they belong to CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Underground Backend Metrics Dashboard",
	}))

	// Stored uploads (cover art); audio goes through the ranged stream route.
	app.Static("/uploads", s.store.Dir())

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", middleware.AuthRequired, s.GetMyProfile)
	auth.Put("/me", middleware.AuthRequired, s.UpdateMyProfile)
	auth.Put("/me/avatar", middleware.AuthRequired, s.UpdateMyAvatar)

	// Track browse routes; the viewer annotation is filled when a token is
	// present, so these take OptionalAuth rather than AuthRequired.
	tracks := api.Group("/tracks")
	tracks.Get("/", middleware.OptionalAuth, s.GetTracks)
	tracks.Get("/:id/stream", s.StreamTrack)
	tracks.Get("/:id/comments", s.GetComments)
	tracks.Get("/:id/collaborators", s.GetTrackCollaborators)
	tracks.Get("/:id", middleware.OptionalAuth, s.GetTrack)

	// Track mutation routes
	tracks.Post("/", middleware.AuthRequired, middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "upload_track"), s.CreateTrack)
	tracks.Post("/:id/like", middleware.AuthRequired, s.LikeTrack)
	tracks.Delete("/:id/like", middleware.AuthRequired, s.UnlikeTrack)
	tracks.Post("/:id/comments", middleware.AuthRequired, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	tracks.Put("/:id", middleware.AuthRequired, s.UpdateTrack)
	tracks.Delete("/:id", middleware.AuthRequired, s.DeleteTrack)

	// Feed routes
	feed := api.Group("/feed")
	feed.Get("/", middleware.AuthRequired, s.GetFeed)
	feed.Get("/recent", middleware.OptionalAuth, s.GetRecentFeed)
	feed.Get("/popular", middleware.OptionalAuth, s.GetPopularFeed)
	feed.Get("/trending", middleware.OptionalAuth, s.GetTrendingFeed)
	feed.Get("/suggestions", middleware.OptionalAuth, s.GetSuggestions)

	// User routes; specific paths before the generic /:id
	users := api.Group("/users")
	users.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "user_search"), s.SearchUsers)
	users.Get("/top", s.GetTopArtists)
	users.Get("/:id/tracks", middleware.OptionalAuth, s.GetUserTracks)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/follow", middleware.AuthRequired, s.FollowUser)
	users.Delete("/:id/follow", middleware.AuthRequired, s.UnfollowUser)
	users.Get("/:id", middleware.OptionalAuth, s.GetUserProfile)

	// Community routes
	community := api.Group("/community")
	community.Get("/stats", s.GetCommunityStats)

	collabs := community.Group("/collaborations")
	collabs.Get("/", s.GetCollaborations)
	collabs.Post("/", middleware.AuthRequired, s.CreateCollaboration)
	collabs.Put("/:id", middleware.AuthRequired, s.UpdateCollaboration)
	collabs.Delete("/:id", middleware.AuthRequired, s.DeleteCollaboration)
	collabs.Get("/:id", s.GetCollaboration)

	messages := community.Group("/messages", middleware.AuthRequired)
	messages.Post("/", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_message"), s.SendMessage)
	messages.Get("/:userId", s.GetThread)

	community.Get("/conversations", middleware.AuthRequired, s.GetConversations)

	notifs := community.Group("/notifications", middleware.AuthRequired)
	notifs.Get("/", s.GetNotifications)
	notifs.Put("/read", s.MarkNotificationsRead)
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
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
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
		// The API keeps serving without Redis; readiness reports it so
		// operators notice missing cache and notification delivery.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "Underground API",
		BodyLimit: storage.MaxAudioSize + storage.MaxImageSize,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Delivery log for notification fan-out. A realtime gateway can
	// subscribe to the same channels later.
	if s.notifier != nil {
		if err := s.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
			middleware.Logger.Debug("notification published",
				slog.String("channel", channel),
				slog.String("payload", payload))
		}); err != nil {
			log.Printf("notification subscriber failed to start: %v", err)
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
