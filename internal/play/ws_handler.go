package play

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/auth"
	"github.com/contestkit/quiz-contest/internal/progress"
	httperrors "github.com/contestkit/quiz-contest/pkg/http/errors"
	ws "github.com/contestkit/quiz-contest/pkg/http/ws"
)

// WSHandler streams progress document snapshots to the owning user. Every
// persisted mutation arrives as a full snapshot; the client overwrites its
// local state rather than merging.
type WSHandler struct {
	store  progress.Store
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewWSHandler creates the progress feed handler.
func NewWSHandler(store progress.Store, hub *ws.Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		store:  store,
		hub:    hub,
		logger: logger.With().Str("component", "progress_ws").Logger(),
	}
}

// Handle upgrades the connection and forwards snapshots until the client
// disconnects. Runs behind the auth middleware; browser clients pass the
// token as a query parameter.
func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeNotAuthenticated, "not authenticated")
		return
	}
	key := progress.Key(claims.Email, claims.Username)

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("ws upgrade failed")
		return
	}

	wrapped := ws.NewConnection(conn, h.logger)
	h.hub.Register(key, wrapped)
	go wrapped.WritePump()

	// Seed the feed with the current document so the client does not wait
	// for the next mutation.
	if doc, err := h.store.Read(r.Context(), key); err == nil {
		h.send(key, *doc)
	}

	unsubscribe, err := h.store.Subscribe(r.Context(), key, func(doc progress.UserProgress) {
		h.send(key, doc)
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("progress subscribe failed")
		h.hub.Unregister(key)
		return
	}
	defer unsubscribe()
	defer h.hub.Unregister(key)

	// Read loop: we only care about disconnects and ping keepalives.
	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == ws.TypePing {
			wrapped.Send(ws.Message{Type: ws.TypePong})
		}
	}
}

func (h *WSHandler) send(key string, doc progress.UserProgress) {
	raw, err := json.Marshal(doc)
	if err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("marshal progress snapshot failed")
		return
	}
	msg := ws.Message{Type: ws.TypeProgressUpdate, Payload: raw}
	if err := h.hub.SendToUser(key, msg); err != nil {
		h.logger.Debug().Err(err).Str("key", key).Msg("progress snapshot dropped")
	}
}
