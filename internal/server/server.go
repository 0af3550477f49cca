// Package server wires the application together: router, middleware,
// dependency construction and graceful shutdown. It is the composition
// root; every layer below only receives the interfaces it needs.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hyperlog/hyperlog/internal/analysis"
	"github.com/hyperlog/hyperlog/internal/auth"
	"github.com/hyperlog/hyperlog/internal/handler"
	"github.com/hyperlog/hyperlog/internal/middleware"
	"github.com/hyperlog/hyperlog/internal/notify"
	sqliteRepo "github.com/hyperlog/hyperlog/internal/repository/sqlite"
	"github.com/hyperlog/hyperlog/internal/service"
)

// Config holds everything the server needs to start. The AWS-backed
// pieces are optional: with no topic ARN or table names configured the
// server runs accounts-only and the analysis trigger reports skipped.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	SNSTopicARN          string
	ProfilesTable        string
	ProfileAnalysisTable string
	RepoAnalysisTable    string
}

// analysisConfigured reports whether all three DynamoDB tables are set.
func (c Config) analysisConfigured() bool {
	return c.ProfilesTable != "" && c.ProfileAnalysisTable != "" && c.RepoAnalysisTable != ""
}

// Server owns the router and the resources that need closing on
// shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database, AWS clients,
// services, handlers, routes.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes(ctx context.Context) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// The analysis store and publisher only exist when configured. The
	// interface variables stay truly nil otherwise, which is what the
	// services and handlers check for.
	var (
		notifier service.AnalysisNotifier
		tokenSt  service.TokenStore
		reposSt  service.ReposStore
		reader   handler.AnalysisReader
	)
	if s.config.analysisConfigured() || s.config.SNSTopicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		if s.config.analysisConfigured() {
			store := analysis.NewStore(dynamodb.NewFromConfig(awsCfg), analysis.Config{
				ProfilesTable:        s.config.ProfilesTable,
				ProfileAnalysisTable: s.config.ProfileAnalysisTable,
				RepoAnalysisTable:    s.config.RepoAnalysisTable,
			}, s.logger)
			tokenSt = store
			reposSt = store
			reader = store
		}
		if s.config.SNSTopicARN != "" {
			notifier = notify.NewPublisher(sns.NewFromConfig(awsCfg), s.config.SNSTopicARN, s.logger)
		}
	} else {
		s.logger.Warn("analysis store and topic not configured, running accounts-only")
	}

	userService := service.NewUserService(s.db, s.db.DeletedUsers(), tokens, passwords, reposSt, s.logger)
	profileService := service.NewProfileService(s.db.Profiles(), s.db.EmailAddresses(), notifier, tokenSt, s.logger)

	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	accountHandler := handler.NewAccountHandler(userService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService)
	connectHandler := handler.NewConnectHandler(tokens, provider, profileService, userService, s.logger)
	readHandler := handler.NewReadHandler(userService, reader, s.logger)

	// Browser-facing connect flow.
	s.router.Get("/connect_github", connectHandler.Connect)
	s.router.Get("/profiles/auth/github", connectHandler.Authorize)
	s.router.Get("/profiles/auth/github/callback", connectHandler.Callback)

	// Public read API.
	s.router.Get("/user_info/{userID}", readHandler.UserInfo)
	s.router.Get("/user_socials/{userID}", readHandler.UserSocials)
	s.router.Get("/selected_repos/{userID}", readHandler.SelectedRepos)
	s.router.Get("/single_repo/{userID}/{repoB64}", readHandler.SingleRepo)

	// Account API.
	s.router.Post("/register", accountHandler.Register)
	s.router.Post("/login", accountHandler.Login)
	s.router.Post("/logout", accountHandler.Logout)

	s.router.Route("/me", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/", accountHandler.Me)
		r.Patch("/", accountHandler.Update)
		r.Delete("/", accountHandler.Delete)
		r.Put("/social_links", accountHandler.UpdateSocialLinks)
		r.Put("/setup_step", accountHandler.SetSetupStep)
		r.Put("/selected_repos", accountHandler.SelectRepos)
		r.Get("/profiles", profileHandler.List)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests,
// close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.Int("port", s.config.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
