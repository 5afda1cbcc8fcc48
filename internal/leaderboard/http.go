package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/db/repository"
	httperrors "github.com/contestkit/quiz-contest/pkg/http/errors"
	ws "github.com/contestkit/quiz-contest/pkg/http/ws"
)

// HTTPHandler exposes the standings endpoint for the admin dashboard.
type HTTPHandler struct {
	svc       *Service
	snapshots *repository.SnapshotRepository
	logger    zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, snapshots *repository.SnapshotRepository, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current standings.
// Route: GET /v1/leaderboard?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top    []ws.LeaderboardEntry
		source = "redis"
	)

	if h.svc != nil {
		entries, err := h.svc.Top(ctx, limit)
		if err != nil {
			h.logger.Warn().Err(err).Msg("redis standings fetch failed")
		} else {
			top = entries
		}
	}

	if len(top) == 0 {
		source = "snapshot"
		top = h.snapshotFallback(ctx, limit)
	}
	if top == nil {
		top = []ws.LeaderboardEntry{}
	}

	resp := map[string]interface{}{
		"top":         top,
		"source":      source,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, resp)
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, limit int) []ws.LeaderboardEntry {
	if h.snapshots == nil {
		return nil
	}
	snap, err := h.snapshots.Latest(ctx)
	if err != nil {
		if err != repository.ErrNoSnapshot {
			h.logger.Warn().Err(err).Msg("snapshot fetch failed")
		}
		return nil
	}

	var entries []ws.LeaderboardEntry
	if err := json.Unmarshal(snap.Entries, &entries); err != nil {
		h.logger.Warn().Err(err).Msg("snapshot payload decode failed")
		return nil
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		httperrors.RespondInternalError(w, "failed to encode response")
	}
}
