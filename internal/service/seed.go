package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eduvista/internal/model"
	"eduvista/internal/repository"
	"eduvista/internal/utils"

	"go.uber.org/zap"
)

type demoAccount struct {
	username string
	fullName string
	email    string
	role     model.Role
}

// Demo accounts use their username as password.
var demoAccounts = []demoAccount{
	{"admin", "Administrador General", "admin@eduvista.edu", model.RoleAdmin},
	{"profesor", "Carlos Mendoza", "profesor@eduvista.edu", model.RoleTeacher},
	{"estudiante", "Ana García", "estudiante@eduvista.edu", model.RoleStudent},
}

// SeedDemoUsers creates the demo accounts shown on the login page. Accounts
// that already exist are left alone.
func SeedDemoUsers(ctx context.Context, repo repository.UserRepository, logger *zap.Logger) error {
	for _, acc := range demoAccounts {
		existing, err := repo.FindByUsername(ctx, acc.username)
		if err != nil {
			return fmt.Errorf("failed to look up demo user %s: %w", acc.username, err)
		}
		if existing != nil {
			continue
		}
		hash, err := utils.HashPassword(acc.username)
		if err != nil {
			return fmt.Errorf("failed to hash demo password: %w", err)
		}
		user := &model.User{
			Username:     acc.username,
			FullName:     acc.fullName,
			Email:        acc.email,
			PasswordHash: hash,
			Role:         acc.role,
			CreatedAt:    time.Now(),
		}
		if err := repo.Create(ctx, user); err != nil && !errors.Is(err, repository.ErrUsernameTaken) {
			return fmt.Errorf("failed to create demo user %s: %w", acc.username, err)
		}
		logger.Info("demo user seeded", zap.String("username", acc.username), zap.String("role", string(acc.role)))
	}
	return nil
}
