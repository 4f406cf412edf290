// internal/auth/repository.go
// Repository pattern isolates database queries from business logic.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username, email or phone already registered")
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

// Repository defines all database operations for users
type Repository interface {
	CreateUser(ctx context.Context, user *NewUser) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// Validation helpers
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	IsPhoneTaken(ctx context.Context, phone string) (bool, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateUser inserts a verified user and returns the stored row
func (r *postgresRepository) CreateUser(ctx context.Context, nu *NewUser) (*User, error) {
	query := `
		INSERT INTO users (username, email, password, role, phone, phone_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, true, NOW())
		RETURNING id, username, email, password, role, phone, phone_verified, created_at`

	var user User
	err := r.db.QueryRowxContext(ctx, query,
		nu.Username,
		nu.Email,
		nu.PasswordHash,
		nu.Role,
		nu.Phone,
	).StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (r *postgresRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	query := `
		SELECT id, username, email, password, role, phone, phone_verified, created_at
		FROM users
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username, case-insensitively
func (r *postgresRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := `
		SELECT id, username, email, password, role, phone, phone_verified, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)`

	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// IsUsernameTaken checks if a username is already taken
func (r *postgresRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username, "username")
}

// IsEmailTaken checks if an email is already registered
func (r *postgresRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email, "email")
}

// IsPhoneTaken checks if a phone number is already registered
func (r *postgresRepository) IsPhoneTaken(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`, phone, "phone")
}

func (r *postgresRepository) exists(ctx context.Context, query, arg, field string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", field, err)
	}
	return exists, nil
}
