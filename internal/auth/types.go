package auth

// User represents an authenticated contest participant.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Theme    string `json:"theme"`
}

// Role constants. Admins see the leaderboard dashboard instead of the game.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest for email/password registration. Theme is the contest
// theme the participant plays.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Theme    string `json:"theme"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// OAuthProvider constants.
const OAuthProviderGoogle = "google"
