// Package server wires the application together: it owns the store, the
// router, and the graceful shutdown sequence. All dependency assembly
// happens here, so main.go stays a thin configuration shim.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/novanataka/registration/internal/auth"
	"github.com/novanataka/registration/internal/handler"
	"github.com/novanataka/registration/internal/mailer"
	"github.com/novanataka/registration/internal/middleware"
	"github.com/novanataka/registration/internal/repository"
	sqliteRepo "github.com/novanataka/registration/internal/repository/sqlite"
	"github.com/novanataka/registration/internal/repository/workbook"
	"github.com/novanataka/registration/internal/service"
)

// Store backends selectable via configuration. Both implement
// repository.RegistrationStore; the rest of the app cannot tell them apart.
const (
	BackendSQLite   = "sqlite"
	BackendWorkbook = "workbook"
)

// Config holds everything the server needs to start.
type Config struct {
	Port      int
	StaticDir string

	Backend      string // BackendSQLite or BackendWorkbook
	DBPath       string // used by the sqlite backend
	WorkbookPath string // used by the workbook backend

	AdminPasswordHash string // bcrypt hash of the shared admin password
	JWTSecret         string

	Mail mailer.Config
}

// Server is the HTTP server and the resources it owns.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.RegistrationStore
}

// New assembles the full dependency chain: store → service → handlers →
// routes. The store is owned by the Server and closed on shutdown.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.AdminPasswordHash == "" {
		return nil, errors.New("admin password hash is required")
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func openStore(cfg Config, logger *slog.Logger) (repository.RegistrationStore, error) {
	switch cfg.Backend {
	case BackendWorkbook:
		store, err := workbook.New(cfg.WorkbookPath)
		if err != nil {
			return nil, fmt.Errorf("opening workbook store: %w", err)
		}
		logger.Info("using workbook store", slog.String("path", cfg.WorkbookPath))
		return store, nil
	case BackendSQLite, "":
		store, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database store: %w", err)
		}
		logger.Info("using database store", slog.String("path", cfg.DBPath))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var mail mailer.Mailer
	if s.config.Mail.Configured() {
		mail = mailer.New(s.config.Mail, s.logger)
	} else {
		s.logger.Warn("email credentials not set, confirmation emails will be skipped")
		mail = mailer.NewNoop(s.logger)
	}

	svc := service.NewRegistrationService(s.store, mail, s.logger)
	reg := handler.NewRegistrationHandler(svc, s.logger)
	admin := handler.NewAdminHandler(svc, auth.NewPasswordService(), tokens, s.config.AdminPasswordHash, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/ping", reg.HandlePing)
		r.Post("/register", reg.HandleRegister)
		r.Get("/registration/{email}", reg.HandleGetByEmail)
		r.Post("/admin/login", admin.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(tokens))
			r.Get("/registrations", reg.HandleList)
			r.Delete("/admin/registration/{email}", admin.HandleDelete)
			r.Get("/admin/download", admin.HandleDownload)
		})
	})

	// The public form and admin dashboard are static pages served from
	// StaticDir; every non-API path falls through to the file server.
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/*", fileServer)

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the store so pending writes reach disk.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("backend", s.config.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
