// Package main is the entry point for the Hyperlog backend server.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperlog/hyperlog/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	cfg := server.Config{
		Port:   envInt(logger, "PORT", 8080),
		DBPath: envOr("DB_PATH", "data/hyperlog.db"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),

		SNSTopicARN:          os.Getenv("SNS_TOPIC_ARN"),
		ProfilesTable:        os.Getenv("DDB_PROFILES_TABLE"),
		ProfileAnalysisTable: os.Getenv("DDB_PROFILE_ANALYSIS_TABLE"),
		RepoAnalysisTable:    os.Getenv("DDB_REPO_ANALYSIS_TABLE"),
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create data directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if os.Getenv("LOG_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *slog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Error("invalid integer env var",
			slog.String("key", key),
			slog.String("value", v))
		os.Exit(1)
	}
	return n
}
