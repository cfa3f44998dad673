package repository

import (
	"context"
	"errors"
	"fmt"

	"eduvista/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUsernameTaken is returned by Create when the username already exists.
var ErrUsernameTaken = errors.New("username already taken")

const uniqueViolation = "23505"

// UserRepository is the user directory, keyed by username
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a Postgres backed UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (username, full_name, email, password_hash, role, created_at)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRow(ctx, sql, user.Username, user.FullName, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByUsername retrieves a user by username. A missing user is (nil, nil).
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	var role string
	sql := `SELECT id, username, full_name, email, password_hash, role, created_at FROM users WHERE username = $1`
	err := r.db.QueryRow(ctx, sql, username).Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.PasswordHash, &role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	parsed, ok := model.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("user %q has unknown role %q", username, role)
	}
	user.Role = parsed
	return user, nil
}
