// Package main is the entry point for the registration server. It reads
// configuration from the environment (with .env support for local
// development), builds the server config, and runs it.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/novanataka/registration/internal/auth"
	"github.com/novanataka/registration/internal/mailer"
	"github.com/novanataka/registration/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	staticDir := envOr("STATIC_DIR", "web/public")

	backend := envOr("STORE_BACKEND", server.BackendSQLite)
	dbPath := envOr("DB_PATH", "data/registrations.db")
	workbookPath := envOr("WORKBOOK_PATH", "data/registrations.xlsx")

	for _, path := range []string{dbPath, workbookPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("dir", filepath.Dir(path)),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		logger.Error("ADMIN_PASSWORD is not set, the admin dashboard cannot be secured")
		os.Exit(1)
	}

	// Hash once at startup; only the hash is held in memory after this.
	passwordHash, err := auth.NewPasswordService().Hash(adminPassword)
	if err != nil {
		logger.Error("failed to hash admin password", slog.String("error", err.Error()))
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is not set, generate one with: openssl rand -hex 32")
		os.Exit(1)
	}

	cfg := server.Config{
		Port:              port,
		StaticDir:         staticDir,
		Backend:           backend,
		DBPath:            dbPath,
		WorkbookPath:      workbookPath,
		AdminPasswordHash: passwordHash,
		JWTSecret:         jwtSecret,
		Mail: mailer.Config{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			User:     os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
		},
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
