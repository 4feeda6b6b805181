package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/handler"
	"github.com/Mizu-20/statify/internal/httputil"
	authmw "github.com/Mizu-20/statify/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	FriendHandler   *handler.FriendHandler
	MoodPostHandler *handler.MoodPostHandler
	FeedHandler     *handler.FeedHandler
	CatalogHandler  *handler.CatalogHandler
	LiveHandler     *handler.LiveHandler
	Resolver        authmw.CallerResolver
	Logger          *zap.Logger
}

func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(authmw.Logger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(authmw.Metrics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", cfg.AuthHandler.Login)
			r.Get("/callback", cfg.AuthHandler.Callback)
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.With(authmw.RequireCaller(cfg.Resolver)).Get("/me", cfg.AuthHandler.Me)
		})

		// Authentication may also happen over the socket after the upgrade.
		r.With(authmw.OptionalCaller(cfg.Resolver)).Get("/ws", cfg.LiveHandler.Serve)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireCaller(cfg.Resolver))

			r.Route("/me", func(r chi.Router) {
				r.Get("/top/artists", cfg.CatalogHandler.TopArtists)
				r.Get("/top/tracks", cfg.CatalogHandler.TopTracks)
				r.Get("/player/recently-played", cfg.CatalogHandler.RecentlyPlayed)
				r.Get("/player/currently-playing", cfg.CatalogHandler.CurrentlyPlaying)
				r.Patch("/profile", cfg.UserHandler.UpdateProfile)
			})

			r.Get("/users/search", cfg.UserHandler.Search)
			r.Get("/users/{uniqueId}", cfg.UserHandler.GetProfile)
			r.Get("/users/{uniqueId}/mood-posts", cfg.UserHandler.GetMoodPosts)

			r.Route("/friends", func(r chi.Router) {
				r.Get("/", cfg.FriendHandler.ListFriends)
				r.Post("/requests", cfg.FriendHandler.SendRequest)
				r.Get("/requests", cfg.FriendHandler.ListRequests)
				r.Patch("/requests/{id}", cfg.FriendHandler.RespondRequest)
				r.Get("/mood-posts", cfg.FeedHandler.GetFeed)
				r.Delete("/{friendId}", cfg.FriendHandler.RemoveFriend)
			})

			r.Post("/mood-posts", cfg.MoodPostHandler.Create)
			r.Delete("/mood-posts/{id}", cfg.MoodPostHandler.Delete)
		})
	})

	return r
}
