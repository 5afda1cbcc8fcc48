package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/auth"
	"github.com/contestkit/quiz-contest/internal/config"
	"github.com/contestkit/quiz-contest/internal/leaderboard"
	"github.com/contestkit/quiz-contest/internal/play"
)

// Handlers groups the route providers wired by the app.
type Handlers struct {
	Auth        *auth.Handler
	AuthService *auth.Service
	Play        *play.Handler
	ProgressWS  *play.WSHandler
	Leaderboard *leaderboard.HTTPHandler
}

// NewHTTPServer wires all routes for the API service. Gameplay and profile
// routes run behind the auth middleware; the leaderboard additionally
// requires the admin role.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if h.Auth != nil {
		h.Auth.RegisterRoutes(mux)
	}

	if h.AuthService != nil {
		authed := http.NewServeMux()

		if h.Auth != nil {
			authed.HandleFunc("GET /v1/users/me", h.Auth.HandleMe)
		}
		if h.Play != nil {
			h.Play.RegisterRoutes(authed)
		}
		if h.ProgressWS != nil {
			authed.HandleFunc("GET /ws/progress", h.ProgressWS.Handle)
		}
		if h.Leaderboard != nil {
			// Standings updates ride the same hub as /ws/progress, so the
			// admin dashboard needs only this REST endpoint plus the feed.
			authed.Handle("GET /v1/leaderboard", auth.RequireAdmin(http.HandlerFunc(h.Leaderboard.HandleGet)))
		}

		mux.Handle("/v1/users/", auth.Middleware(h.AuthService)(authed))
		mux.Handle("/v1/catalog/", auth.Middleware(h.AuthService)(authed))
		mux.Handle("/v1/play/", auth.Middleware(h.AuthService)(authed))
		mux.Handle("/v1/leaderboard", auth.Middleware(h.AuthService)(authed))
		mux.Handle("/ws/", auth.Middleware(h.AuthService)(authed))
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
