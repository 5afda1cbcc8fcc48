package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/contestkit/quiz-contest/pkg/http/errors"
)

const oauthStateCookie = "oauth_state"

// Handler exposes auth HTTP endpoints.
type Handler struct {
	svc    *Service
	google *GoogleOAuth
	logger zerolog.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, google *GoogleOAuth, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		google: google,
		logger: logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterRoutes mounts the auth endpoints on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", h.handleLogin)
	mux.HandleFunc("POST /v1/auth/refresh", h.handleRefresh)
	mux.HandleFunc("GET /v1/auth/google", h.handleGoogleStart)
	mux.HandleFunc("GET /v1/auth/google/callback", h.handleGoogleCallback)
}

type authResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	user, pair, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyExists, "email already registered")
		case errors.Is(err, ErrUnknownTheme):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownTheme, "unknown theme")
		case errors.Is(err, ErrPasswordTooShort):
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "password")
		case errors.Is(err, ErrInvalidCredentials):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "email and username are required")
		default:
			h.logger.Error().Err(err).Msg("registration failed")
			httperrors.RespondInternalError(w, "registration failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{User: user, Tokens: pair})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	user, pair, err := h.svc.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "invalid email or password")
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		httperrors.RespondInternalError(w, "login failed")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Tokens: pair})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "refresh_token is required")
		return
	}

	user, pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeRefreshFailed, "invalid refresh token")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Tokens: pair})
}

// HandleMe returns the authenticated user's profile. Mounted behind
// Middleware.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeNotAuthenticated, "not authenticated")
		return
	}

	user, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("profile lookup failed")
		httperrors.RespondInternalError(w, "profile lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeOAuthNotConfigured, "google sign-in not configured")
		return
	}

	state, err := NewState()
	if err != nil {
		httperrors.RespondInternalError(w, "could not start oauth flow")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/v1/auth/google",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url, err := h.google.AuthCodeURL(state)
	if err != nil {
		httperrors.RespondInternalError(w, "could not start oauth flow")
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeOAuthNotConfigured, "google sign-in not configured")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthInvalidState, "oauth state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthMissingCode, "missing authorization code")
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("google exchange failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeOAuthCallbackFailed, "google sign-in failed")
		return
	}
	if !profile.VerifiedEmail {
		httperrors.RespondForbidden(w, httperrors.ErrCodeOAuthCallbackFailed, "google account email not verified")
		return
	}

	user, pair, err := h.svc.loginWithProvider(r.Context(), profile.Email, profile.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("oauth login failed")
		httperrors.RespondInternalError(w, "google sign-in failed")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Tokens: pair})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
