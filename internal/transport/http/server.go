package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/config"
	"github.com/Mizu-20/statify/internal/database"
	"github.com/Mizu-20/statify/internal/handler"
	"github.com/Mizu-20/statify/internal/hub"
	"github.com/Mizu-20/statify/internal/metrics"
	"github.com/Mizu-20/statify/internal/queue"
	"github.com/Mizu-20/statify/internal/redis"
	"github.com/Mizu-20/statify/internal/repository"
	"github.com/Mizu-20/statify/internal/repository/memory"
	"github.com/Mizu-20/statify/internal/repository/postgres"
	"github.com/Mizu-20/statify/internal/secret"
	"github.com/Mizu-20/statify/internal/service"
	"github.com/Mizu-20/statify/internal/upstream/spotify"
	"github.com/Mizu-20/statify/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users       repository.UserRepository
	requests    repository.FriendRequestRepository
	friendships repository.FriendshipRepository
	posts       repository.MoodPostRepository
	sessions    repository.SessionRepository
	close       func()
}

// openStorage builds the repositories for the configured driver. Sessions
// default to the same engine for memory and to an in-process store for
// Postgres; Redis replaces either when configured.
func openStorage(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		sealer, err := secret.NewSealer(cfg.TokenSealKey)
		if err != nil {
			return nil, err
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return postgresRepositories(db, sealer), nil

	default:
		store := memory.NewStore()
		zap.L().Warn("using in-memory storage; data is lost on restart")
		return &repositories{
			users:       memory.NewUserRepository(store),
			requests:    memory.NewFriendRequestRepository(store),
			friendships: memory.NewFriendshipRepository(store),
			posts:       memory.NewMoodPostRepository(store),
			sessions:    memory.NewSessionRepository(store),
			close:       func() {},
		}, nil
	}
}

func postgresRepositories(db *sqlx.DB, sealer *secret.Sealer) *repositories {
	return &repositories{
		users:       postgres.NewUserRepository(db, sealer),
		requests:    postgres.NewFriendRequestRepository(db),
		friendships: postgres.NewFriendshipRepository(db),
		posts:       postgres.NewMoodPostRepository(db),
		sessions:    memory.NewSessionRepository(memory.NewStore()),
		close:       func() { db.Close() },
	}
}

// Run wires the application and serves until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	metrics.Init()

	repos, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer repos.close()

	liveHub := hub.New(logger)
	eventHandler := worker.NewHandler(liveHub, worker.FriendIDsFunc(repos.friendships.ListFriendIDs), logger)

	var publisher queue.Publisher
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL, cfg.WorkerCount)
		if err != nil {
			return err
		}
		defer rdb.Close()

		repos.sessions = redis.NewSessionStore(rdb.Client)
		publisher = queue.NewPublisher(rdb.Client, logger)

		mcfg := worker.DefaultManagerConfig()
		mcfg.WorkerCount = cfg.WorkerCount
		manager := worker.NewManager(queue.NewConsumer(rdb.Client, logger), eventHandler, mcfg, logger)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
		logger.Info("redis enabled for sessions and social events")
	} else {
		publisher = queue.NewInProcessPublisher(eventHandler.Dispatch())
	}

	identityService := service.NewIdentityService(repos.users, repos.friendships, repos.requests, logger)
	gate := service.NewSessionGate(repos.sessions, repos.users, cfg.SessionSecret,
		time.Duration(cfg.SessionMaxAge)*time.Second, logger)
	requestService := service.NewFriendRequestService(repos.requests, repos.users, publisher, logger)
	friendshipService := service.NewFriendshipService(repos.friendships, repos.users, publisher, logger)
	moodPostService := service.NewMoodPostService(repos.posts, repos.users, publisher, logger)
	feedService := service.NewFeedService(repos.friendships, repos.posts, repos.users, logger)

	catalog := spotify.NewClient(cfg.SpotifyAPIBase, cfg.UpstreamTimeout)
	authenticator := spotify.NewAuthenticator(spotify.OAuthConfig{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURL:  cfg.SpotifyRedirectURI,
	}, catalog)
	authService := service.NewAuthService(authenticator, identityService, gate, logger)
	catalogService := service.NewCatalogService(catalog, logger)

	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(authService, handler.CookieConfig{
			Secure:      cfg.CookieSecure,
			MaxAge:      cfg.SessionMaxAge,
			FrontendURL: cfg.FrontendURL,
		}, logger),
		UserHandler:     handler.NewUserHandler(identityService, moodPostService, logger),
		FriendHandler:   handler.NewFriendHandler(requestService, friendshipService, logger),
		MoodPostHandler: handler.NewMoodPostHandler(moodPostService, logger),
		FeedHandler:     handler.NewFeedHandler(feedService, logger),
		CatalogHandler:  handler.NewCatalogHandler(catalogService, logger),
		LiveHandler:     handler.NewLiveHandler(liveHub, gate, cfg.FrontendURL, logger),
		Resolver:        gate,
		Logger:          logger,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
