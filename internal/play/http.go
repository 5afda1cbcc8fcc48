package play

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/auth"
	"github.com/contestkit/quiz-contest/internal/catalog"
	"github.com/contestkit/quiz-contest/internal/progress"
	httperrors "github.com/contestkit/quiz-contest/pkg/http/errors"
)

// Handler exposes the gameplay HTTP endpoints. All routes run behind the
// auth middleware; the progress document key is derived from the token
// claims, never from the request body.
type Handler struct {
	svc     *Service
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewHandler creates a gameplay handler.
func NewHandler(svc *Service, cat *catalog.Catalog, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		catalog: cat,
		logger:  logger.With().Str("component", "play_handler").Logger(),
	}
}

// RegisterRoutes mounts the gameplay endpoints. The mux is expected to be
// wrapped in the auth middleware by the server.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/catalog/themes", h.handleThemes)
	mux.HandleFunc("GET /v1/play/progress", h.handleProgress)
	mux.HandleFunc("POST /v1/play/levels/{level}/select", h.handleSelectLevel)
	mux.HandleFunc("POST /v1/play/levels/{level}/answer", h.handleSubmitAnswer)
}

func (h *Handler) handleThemes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"themes": h.catalog.Themes(),
	})
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeNotAuthenticated, "not authenticated")
		return
	}

	key := progress.Key(claims.Email, claims.Username)
	view, err := h.svc.Progress(r.Context(), key, claims.Theme)
	if err != nil {
		h.respondPlayError(w, err, "progress read failed")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSelectLevel(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeNotAuthenticated, "not authenticated")
		return
	}
	levelID, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid level id")
		return
	}

	key := progress.Key(claims.Email, claims.Username)
	view, err := h.svc.SelectLevel(r.Context(), key, claims.Theme, levelID)
	if err != nil {
		h.respondPlayError(w, err, "level select failed")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeNotAuthenticated, "not authenticated")
		return
	}
	levelID, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid level id")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	key := progress.Key(claims.Email, claims.Username)
	result, err := h.svc.SubmitAnswer(r.Context(), key, claims.Username, claims.Theme, levelID, req)
	if err != nil {
		h.respondPlayError(w, err, "answer submit failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) respondPlayError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, progress.ErrDeadlineExpired):
		httperrors.RespondForbidden(w, httperrors.ErrCodeDeadlineExpired, progress.TimeUp)
	case errors.Is(err, progress.ErrLevelLocked):
		httperrors.RespondForbidden(w, httperrors.ErrCodeLevelLocked, "level is not enabled")
	case errors.Is(err, progress.ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeDocumentMissing, "progress document missing")
	case errors.Is(err, progress.ErrUnknownQuestion):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "question is not part of this level")
	case errors.Is(err, progress.ErrQuestionConsumed):
		httperrors.RespondConflict(w, httperrors.ErrCodeQuestionConsumed, "question already attempted")
	case errors.Is(err, progress.ErrConflict):
		httperrors.RespondConflict(w, httperrors.ErrCodeWriteConflict, "concurrent update, retry")
	case errors.Is(err, catalog.ErrUnknownTheme):
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownTheme, "unknown theme")
	case errors.Is(err, ErrUnknownLevel):
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownLevel, "unknown level")
	case errors.Is(err, catalog.ErrFetchFailure):
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeFetchFailure, "question set fetch failed, try again")
	default:
		h.logger.Error().Err(err).Msg(fallback)
		httperrors.RespondInternalError(w, fallback)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
