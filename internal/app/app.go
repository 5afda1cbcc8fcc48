package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/auth"
	"github.com/contestkit/quiz-contest/internal/auth/jwt"
	"github.com/contestkit/quiz-contest/internal/catalog"
	"github.com/contestkit/quiz-contest/internal/config"
	"github.com/contestkit/quiz-contest/internal/db/repository"
	"github.com/contestkit/quiz-contest/internal/leaderboard"
	"github.com/contestkit/quiz-contest/internal/logging"
	"github.com/contestkit/quiz-contest/internal/play"
	"github.com/contestkit/quiz-contest/internal/progress"
	"github.com/contestkit/quiz-contest/internal/server"
	ws "github.com/contestkit/quiz-contest/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	lbBroadcaster  *leaderboard.Broadcaster
	snapshotWorker *leaderboard.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis, the catalog and the HTTP
// server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info().Int("themes", len(cat.Themes())).Msg("theme catalog loaded")

	if cfg.Contest.EndTime.Before(time.Now()) {
		logger.Warn().Time("end_time", cfg.Contest.EndTime).Msg("contest end time is in the past; play endpoints will reject")
	}

	userRepo := repository.NewUserRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)

	tokens := jwt.NewManager(jwt.TokenConfig{
		AccessSecret:  []byte(cfg.Security.JWTSecret),
		RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
		Issuer:        cfg.Name,
	})

	defaultTheme := cat.Themes()[0].Name
	authSvc := auth.NewService(auth.ServiceOptions{
		Users:  userRepo,
		Tokens: tokens,
		ThemeKnown: func(name string) bool {
			_, ok := cat.Theme(name)
			return ok
		},
		DefaultTheme: defaultTheme,
		Logger:       logger,
	})

	googleOAuth := auth.NewGoogleOAuth(auth.GoogleOAuthOptions{
		ClientID:     cfg.OAuth.GoogleClientID,
		ClientSecret: cfg.OAuth.GoogleClientSecret,
		RedirectURL:  cfg.OAuth.GoogleRedirectURL,
	})
	if !googleOAuth.Enabled() {
		logger.Warn().Msg("google sign-in not configured")
	}
	authHandler := auth.NewHandler(authSvc, googleOAuth, logger)

	// Progress pipeline: Redis-backed document store, unlock ledger and the
	// shared deadline gate.
	store := progress.NewRedisStore(redisClient, logger, progress.RedisStoreOptions{})
	ledger := progress.NewLedger(store, logger)
	gate := progress.NewGate(cfg.Contest.EndTime, nil)

	fetcher := catalog.NewCachingFetcher(
		catalog.NewFetcher(&http.Client{Timeout: cfg.Contest.QuestionFetchTimeout}),
		catalog.NewCache(redisClient, 0),
	)

	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN: cfg.Leaderboard.SnapshotTopN,
	})

	playSvc := play.NewService(play.ServiceOptions{
		Store:              store,
		Ledger:             ledger,
		Gate:               gate,
		Catalog:            cat,
		Fetcher:            fetcher,
		Leaderboard:        leaderboardSvc,
		PerQuestionSeconds: cfg.Contest.PerQuestionSeconds,
		Logger:             logger,
	})
	playHandler := play.NewHandler(playSvc, cat, logger)

	wsHub := ws.NewHub(logger)
	progressWS := play.NewWSHandler(store, wsHub, logger)

	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, leaderboardSvc.Channel(), logger)
	lbHTTPHandler := leaderboard.NewHTTPHandler(leaderboardSvc, snapshotRepo, logger)

	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(
			leaderboardSvc,
			snapshotRepo,
			interval,
			cfg.Leaderboard.SnapshotTopN,
			logger,
		)
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		Auth:        authHandler,
		AuthService: authSvc,
		Play:        playHandler,
		ProgressWS:  progressWS,
		Leaderboard: lbHTTPHandler,
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		lbBroadcaster:  lbBroadcaster,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}

	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
		}()
	}
}
