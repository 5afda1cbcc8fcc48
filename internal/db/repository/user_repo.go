package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// User is an account row. Theme is the contest theme assigned to the user;
// Role distinguishes players from the admin leaderboard view.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Role         string
	Theme        string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// CreateUserParams carries the fields for a new account.
type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	Role         string
	Theme        string
}

// UserRepository exposes typed DB operations required by auth flows.
type UserRepository struct {
	db dbtx
}

// NewUserRepository wraps a pgx pool (or transaction) for user operations.
func NewUserRepository(db dbtx) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account row.
func (r *UserRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, role, theme)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, email, username, password_hash, role, theme, created_at, last_login_at`,
		params.Email, params.Username, params.PasswordHash, params.Role, params.Theme)
	return scanUser(row)
}

// GetByEmail fetches a user by email if present.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, email, username, password_hash, role, theme, created_at, last_login_at
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	var pgID pgtype.UUID
	if err := pgID.Scan(userID.String()); err != nil {
		return User{}, fmt.Errorf("scan user id: %w", err)
	}
	row := r.db.QueryRow(ctx, `
		SELECT user_id, email, username, password_hash, role, theme, created_at, last_login_at
		FROM users WHERE user_id = $1`, pgID)
	return scanUser(row)
}

// UpdateLogin records the last login timestamp.
func (r *UserRepository) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	var pgID pgtype.UUID
	if err := pgID.Scan(userID.String()); err != nil {
		return fmt.Errorf("scan user id: %w", err)
	}
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE user_id = $1`, pgID)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var (
		pgID        pgtype.UUID
		passwordPg  pgtype.Text
		createdAt   pgtype.Timestamptz
		lastLoginAt pgtype.Timestamptz
		user        User
	)
	err := row.Scan(&pgID, &user.Email, &user.Username, &passwordPg, &user.Role, &user.Theme, &createdAt, &lastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}

	id, err := uuid.FromBytes(pgID.Bytes[:])
	if err != nil {
		return User{}, fmt.Errorf("decode user id: %w", err)
	}
	user.ID = id
	if passwordPg.Valid {
		user.PasswordHash = passwordPg.String
	}
	if createdAt.Valid {
		user.CreatedAt = createdAt.Time
	}
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		user.LastLoginAt = &t
	}
	return user, nil
}
