package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-movie-catalog/internal/config"
	"go-movie-catalog/internal/handler"
	"go-movie-catalog/internal/middleware"
	"go-movie-catalog/internal/model"
)

type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Profile  *handler.ProfileHandler
	User     *handler.UserHandler
	Favorite *handler.FavoriteHandler
	Movie    *handler.MovieHandler
	TMDB     *handler.TMDBHandler
	Audit    *handler.AuditHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, metrics *middleware.Metrics, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(metrics.Handler)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Check)
	r.Handle("/metrics", metrics.Exposition())

	r.Route("/api", func(api chi.Router) {
		// Detach drops the deadline Timeout puts on the context, so Timeout
		// only answers the client with 503; store calls still run to completion.
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(middleware.Detach)

		api.Post("/register", h.Auth.Register)
		api.Post("/login", h.Auth.Login)
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
		})

		api.Get("/movies", h.Movie.List)
		api.With(authMiddleware.RequireAuth).Get("/movies/{id}", h.Movie.Get)

		api.Route("/public", func(public chi.Router) {
			public.Get("/movies/{id}", h.Movie.Get)
			public.Get("/tmdb/search", h.TMDB.Search)
			public.Get("/tmdb/movie/{tmdbId}", h.TMDB.Movie)
		})

		api.Route("/user", func(user chi.Router) {
			user.Use(authMiddleware.RequireAuth)

			user.Get("/info", h.Profile.Info)
			user.Put("/update", h.Profile.Update)
			user.Get("/favorites", h.Favorite.List)
			user.Post("/favorites", h.Favorite.Add)
			user.Delete("/favorites/{movieId}", h.Favorite.Remove)
			user.Get("/favorites/status/{movieId}", h.Favorite.Status)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin))

			admin.Get("/users", h.User.List)
			admin.Get("/users/{id}", h.User.Get)
			admin.Put("/users/{id}", h.User.UpdateRole)
			admin.Delete("/users/{id}", h.User.Delete)

			admin.Get("/movies", h.Movie.AdminList)
			admin.Post("/movies", h.Movie.Create)
			admin.Put("/movies/{id}", h.Movie.Update)
			admin.Delete("/movies/{id}", h.Movie.Delete)

			admin.Get("/audit", h.Audit.List)
		})
	})

	return r
}
