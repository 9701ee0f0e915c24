// Package httpapi exposes the soundbite service over a JSON HTTP API
// mounted under /api.
package httpapi

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hypergopher/soundbite"
)

// API holds the service and everything the handlers need.
type API struct {
	service   *soundbite.Soundbite
	jwtSecret []byte
	logger    *slog.Logger
	limiter   *RateLimiter
}

// New creates an API around the service. The secret signs bearer tokens;
// it must not be empty.
func New(service *soundbite.Soundbite, jwtSecret string, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &API{
		service:   service,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
		limiter:   NewRateLimiter(loginRateLimit, loginRateWindow),
	}
}

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Router mounts every route under /api.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", a.handleRegister)
		r.With(a.limitByIP).Post("/users/login", a.handleLogin)
		r.With(a.requireAuth).Get("/user", a.handleCurrentUser)

		r.Route("/profiles/{username}", func(r chi.Router) {
			r.With(a.optionalAuth).Get("/", a.handleGetProfile)
			r.With(a.requireAuth).Post("/follow", a.handleFollow)
			r.With(a.requireAuth).Delete("/follow", a.handleUnfollow)
		})

		r.Get("/tags", a.handleTags)

		r.Route("/posts", func(r chi.Router) {
			r.With(a.optionalAuth).Get("/", a.handleListPosts)
			r.With(a.requireAuth).Post("/", a.handleCreatePost)
			r.With(a.requireAuth).Get("/feed", a.handleFeed)

			r.Route("/{slug}", func(r chi.Router) {
				r.Use(a.loadPost)
				r.With(a.optionalAuth).Get("/", a.handleGetPost)
				r.With(a.requireAuth).Put("/", a.handleUpdatePost)
				r.With(a.requireAuth).Delete("/", a.handleDeletePost)
				r.With(a.requireAuth).Post("/favorite", a.handleFavorite)
				r.With(a.requireAuth).Delete("/favorite", a.handleUnfavorite)

				r.Route("/comments", func(r chi.Router) {
					r.With(a.optionalAuth).Get("/", a.handleListComments)
					r.With(a.requireAuth).Post("/", a.handleAddComment)
					r.With(a.requireAuth, a.loadComment).Delete("/{commentID}", a.handleDeleteComment)
				})
			})
		})
	})

	return r
}
