package app

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

	"go-movie-catalog/internal/config"
	"go-movie-catalog/internal/database"
	"go-movie-catalog/internal/handler"
	"go-movie-catalog/internal/middleware"
	"go-movie-catalog/internal/repository"
	"go-movie-catalog/internal/router"
	"go-movie-catalog/internal/service"
	"go-movie-catalog/internal/tmdb"
)

type App struct {
	server *http.Server
	db     *database.DB
}

// New wires the application against cfg. Any failure here is a startup
// failure; the caller is expected to exit.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	movieRepo := repository.NewMovieRepository(pool)
	favoriteRepo := repository.NewFavoriteRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	tokenService, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	auditService := service.NewAuditService(auditRepo)
	accountService, err := service.NewAccountService(userRepo, tokenService, auditService, cfg.BcryptCost)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize account service: %w", err)
	}

	if err := accountService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	favoriteService := service.NewFavoriteService(favoriteRepo)
	movieService := service.NewMovieService(movieRepo, auditService)
	tmdbClient := tmdb.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey, cfg.TMDBLanguage, cfg.TMDBTimeout)
	if cfg.TMDBAPIKey == "" {
		slog.Warn("TMDB_API_KEY is not set; TMDB lookups will fail")
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(tokenService), middleware.NewMetrics(), router.Handlers{
		Health:   handler.NewHealthHandler(db),
		Auth:     handler.NewAuthHandler(accountService),
		Profile:  handler.NewProfileHandler(accountService),
		User:     handler.NewUserHandler(accountService),
		Favorite: handler.NewFavoriteHandler(favoriteService),
		Movie:    handler.NewMovieHandler(movieService),
		TMDB:     handler.NewTMDBHandler(tmdbClient),
		Audit:    handler.NewAuditHandler(auditService),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db}, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-serveErr:
		if ok {
			a.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// In-flight requests finish before the pool goes away.
	shutdownErr := a.server.Shutdown(ctx)
	a.db.Close()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
