package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/teamtrack/apiserver/config"
	"github.com/teamtrack/apiserver/internal/db"
	"github.com/teamtrack/apiserver/internal/events"
	"github.com/teamtrack/apiserver/internal/handlers"
	"github.com/teamtrack/apiserver/internal/logger"
	"github.com/teamtrack/apiserver/internal/services"
	"github.com/teamtrack/apiserver/internal/storage"
	"github.com/teamtrack/apiserver/internal/store"
	"github.com/teamtrack/apiserver/types"
)

// Server wraps the HTTP server, the router, and the shared resources
// that need closing on shutdown.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  events.Publisher
	log        *logger.Logger
}

// New wires the full stack: database, object storage, event publisher,
// repositories, services, and HTTP routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	log := logger.New("server")

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	if err := files.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ensure attachment bucket: %w", err)
	}

	publisher, err := events.NewPublisher(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to init event publisher: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	teamRepo := store.NewTeamRepository(dbConn)
	taskRepo := store.NewTaskRepository(dbConn)
	commentRepo := store.NewCommentRepository(dbConn)
	attachmentRepo := store.NewAttachmentRepository(dbConn)

	authService := services.NewAuthService(userRepo, cfg.Auth.ActivateOnSignup, publisher, logger.New("auth"))
	teamService := services.NewTeamService(teamRepo, userRepo, publisher, logger.New("team"))
	taskService := services.NewTaskService(taskRepo, userRepo, files, publisher, logger.New("task"))
	collabService := services.NewCollabService(
		commentRepo,
		attachmentRepo,
		taskRepo,
		files,
		cfg.Uploads.AllowedExtensions,
		publisher,
		logger.New("collab"),
	)

	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.JWTSecret, tokenTTL)
	adminHandler := handlers.NewAdminHandler(authService, teamService, taskService)
	teamHandler := handlers.NewTeamHandler(teamService, taskService)
	taskHandler := handlers.NewTaskHandler(taskService)
	collabHandler := handlers.NewCollabHandler(collabService, cfg.Uploads.MaxUploadBytes)

	requireAuth := handlers.RequireAuth(cfg.Auth.JWTSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth, handlers.RequireRole(types.RoleAdmin))
		handlers.AdminRouter(r, adminHandler)
	})
	router.Route("/teams", func(r chi.Router) {
		r.Use(requireAuth)
		handlers.TeamRouter(r, teamHandler)
	})
	router.Route("/tasks", func(r chi.Router) {
		r.Use(requireAuth)
		handlers.TaskRouter(r, taskHandler, collabHandler)
	})
	router.With(requireAuth).Get("/notifications", collabHandler.Notifications)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Infow("listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
