// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	_ "devgram/docs" // swagger docs
	"devgram/internal/cache"
	"devgram/internal/config"
	"devgram/internal/featureflags"
	"devgram/internal/middleware"
	"devgram/internal/models"
	"devgram/internal/notifications"
	"devgram/internal/repository"
	"devgram/internal/service"

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
)

// Deps are the already-connected backends a Server runs on. Only Repos is
// required; a nil Redis client switches realtime delivery to the in-process
// hub and disables tickets and revocation.
type Deps struct {
	Repos    repository.Set
	Redis    *redis.Client
	Memcache cache.MemcacheClient
	Relay    *notifications.Relay
	// Ping checks the primary store for readiness probes.
	Ping func(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	deps           Deps
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	auth         *middleware.Authenticator
	featureFlags *featureflags.Manager
	directory    *cache.UserDirectory
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	dispatcher   *notifications.Dispatcher

	notificationService *service.NotificationService
	followService       *service.FollowService
	postService         *service.PostService
	commentService      *service.CommentService
	messageService      *service.MessageService
	searchService       *service.SearchService
	userService         *service.UserService
	mediaService        *service.MediaService
}

// New builds a Server on deps and mounts its middleware and routes.
func New(cfg *config.Config, deps Deps) *Server {
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	s := &Server{
		config:         cfg,
		deps:           deps,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("devgram-api"),
		auth:           middleware.NewAuthenticator(cfg.JWTSecret, ttl, deps.Redis),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		directory:      cache.NewUserDirectory(deps.Memcache, deps.Repos.Users.ListByUsernames),
		notifier:       notifications.NewNotifier(deps.Redis),
		hub:            notifications.NewHub(),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	s.dispatcher = notifications.NewDispatcher(s.notifier, s.hub)
	if deps.Relay != nil {
		s.dispatcher.UseBroker(deps.Relay)
	}

	repos := deps.Repos
	s.notificationService = service.NewNotificationService(repos.Notifications, s.directory, s.dispatcher)
	s.followService = service.NewFollowService(repos.Follows, repos.Users, s.notificationService)
	s.commentService = service.NewCommentService(repos.Posts, s.notificationService, s.featureFlags)
	s.postService = service.NewPostService(repos.Posts, repos.Users, s.commentService, s.notificationService, s.featureFlags)
	s.messageService = service.NewMessageService(repos.Messages, repos.Users, s.directory, s.notificationService)
	s.searchService = service.NewSearchService(repos.Users, repos.Posts)
	s.userService = service.NewUserService(repos.Users, repos.Follows, s.auth, s.directory)
	s.mediaService = service.NewMediaService(cfg)

	app := fiber.New(fiber.Config{
		AppName:      "DevGram API",
		BodyLimit:    int(s.mediaService.MaxUploadSizeBytes()) + 1024*1024,
		ErrorHandler: errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return s
}

// errorHandler renders errors that escaped a handler.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"method", c.Method(), "path", c.Path(), "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// App exposes the Fiber app, mostly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Propagates request and trace IDs into the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so 429 responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
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
	required := s.auth.Required()
	optional := s.auth.Optional()

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/health", s.HealthCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "DevGram API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	app.Static(strings.TrimSuffix(service.MediaURLPrefix, "/"), s.mediaService.Dir(), fiber.Static{
		MaxAge: 86400,
	})

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", required, s.Logout)

	// Realtime
	api.Post("/ws/ticket", required, s.IssueWSTicket)
	api.Get("/ws", requireUpgrade, s.auth.TicketRequired(), s.WebsocketHandler())

	api.Get("/features", required, s.GetFeatureFlags)

	// Follow graph
	api.Post("/follow", required, s.Follow)
	api.Get("/follow", required, s.FollowStatus)

	// Posts. Specific /:id/:resource routes come before the generic /:id.
	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetPosts)
	posts.Post("/", required, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", required, s.LikePost)
	posts.Post("/:id/save", required, s.SavePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", required, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id/similar", s.GetSimilarPosts)
	posts.Get("/:id", optional, s.GetPost)
	posts.Patch("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	// Direct messages
	messages := api.Group("/messages", required)
	messages.Get("/", s.GetConversations)
	messages.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "send_message"), s.SendMessage)
	messages.Get("/:username", s.GetThread)

	notifs := api.Group("/notifications", required)
	notifs.Get("/", s.GetNotifications)
	notifs.Patch("/", s.MarkNotificationsRead)

	api.Get("/search", required, middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.Search)

	api.Get("/profile", required, s.GetMyProfile)
	api.Patch("/profile", required, s.UpdateMyProfile)

	users := api.Group("/users")
	users.Get("/:username/posts", optional, s.GetUserPosts)
	users.Get("/:username/followers", s.GetFollowers)
	users.Get("/:username/following", s.GetFollowing)
	users.Post("/:username/follow", required, s.FollowByUsername)
	users.Get("/:username", optional, s.GetUserProfile)
	users.Patch("/:username", required, s.UpdateUserProfile)

	api.Post("/media", required, middleware.RateLimit(s.redis, 10, time.Minute, "upload_media"), s.UploadMedia)
}

// HealthCheck is an alias for ReadinessCheck under /api.
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

// ReadinessCheck reports whether the store and Redis answer within 5s.
// Redis counts only when it is configured.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if s.deps.Ping != nil {
		if err := s.deps.Ping(ctx); err != nil {
			storeStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the realtime pipeline and then blocks serving HTTP.
func (s *Server) Start() error {
	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}
	if s.deps.Relay != nil {
		if err := s.deps.Relay.Consume(s.shutdownCtx, s.dispatcher.Forward); err != nil {
			return err
		}
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops background workers, drains HTTP and closes WebSocket
// connections. Backend connections belong to the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", "error", err)
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
