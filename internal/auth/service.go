package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contestkit/quiz-contest/internal/auth/jwt"
	"github.com/contestkit/quiz-contest/internal/db/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownTheme       = errors.New("unknown theme")
)

// userStore is the subset of the user repository auth needs.
type userStore interface {
	Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	UpdateLogin(ctx context.Context, userID uuid.UUID) error
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	Users  userStore
	Tokens *jwt.Manager
	// ThemeKnown reports whether a theme name exists in the catalog.
	ThemeKnown func(name string) bool
	// DefaultTheme is assigned to OAuth signups that never picked one.
	DefaultTheme string
	Logger       zerolog.Logger
}

// Service handles registration, login and token refresh.
type Service struct {
	users        userStore
	tokens       *jwt.Manager
	themeKnown   func(string) bool
	defaultTheme string
	logger       zerolog.Logger
}

// NewService creates an auth service.
func NewService(opts ServiceOptions) *Service {
	if opts.ThemeKnown == nil {
		opts.ThemeKnown = func(string) bool { return true }
	}
	return &Service{
		users:        opts.Users,
		tokens:       opts.Tokens,
		themeKnown:   opts.ThemeKnown,
		defaultTheme: opts.DefaultTheme,
		logger:       opts.Logger.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a new account and returns the user with a token pair.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" {
		return User{}, TokenPair{}, ErrInvalidCredentials
	}
	if !s.themeKnown(req.Theme) {
		return User{}, TokenPair{}, ErrUnknownTheme
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return User{}, TokenPair{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return User{}, TokenPair{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	row, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         RoleUser,
		Theme:        req.Theme,
	})
	if err != nil {
		return User{}, TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("email", email).Str("username", username).Msg("user registered")
	return s.issue(row)
}

// Login authenticates email/password credentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return User{}, TokenPair{}, ErrInvalidCredentials
		}
		return User{}, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if row.PasswordHash == "" {
		// OAuth-only account
		return User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(row.PasswordHash, req.Password); err != nil {
		return User{}, TokenPair{}, ErrInvalidCredentials
	}

	if err := s.users.UpdateLogin(ctx, row.ID); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("update last login failed")
	}
	return s.issue(row)
}

// Refresh validates a refresh token and issues a new pair with the user's
// current role and theme.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (User, TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	row, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return User{}, TokenPair{}, jwt.ErrInvalidToken
		}
		return User{}, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	return s.issue(row)
}

// Me fetches the current user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (User, error) {
	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return toUser(row), nil
}

// ValidateAccessToken exposes token validation to middleware.
func (s *Service) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.tokens.ValidateAccessToken(token)
}

func (s *Service) issue(row repository.User) (User, TokenPair, error) {
	ident := jwt.Identity{
		ID:       row.ID,
		Email:    row.Email,
		Username: row.Username,
		Role:     row.Role,
		Theme:    row.Theme,
	}

	access, err := s.tokens.GenerateAccessToken(ident)
	if err != nil {
		return User{}, TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(ident)
	if err != nil {
		return User{}, TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	pair := TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}
	return toUser(row), pair, nil
}

// loginWithProvider finds or creates an account from an OAuth profile.
func (s *Service) loginWithProvider(ctx context.Context, email, name string) (User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, TokenPair{}, ErrInvalidCredentials
	}

	row, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if err := s.users.UpdateLogin(ctx, row.ID); err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("update last login failed")
		}
		return s.issue(row)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return User{}, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	username := strings.TrimSpace(name)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	row, err = s.users.Create(ctx, repository.CreateUserParams{
		Email:        email,
		Username:     username,
		PasswordHash: "",
		Role:         RoleUser,
		Theme:        s.defaultTheme,
	})
	if err != nil {
		return User{}, TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("oauth user registered")
	return s.issue(row)
}

func toUser(row repository.User) User {
	return User{
		ID:       row.ID.String(),
		Email:    row.Email,
		Username: row.Username,
		Role:     row.Role,
		Theme:    row.Theme,
	}
}
