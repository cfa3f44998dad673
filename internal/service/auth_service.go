package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eduvista/internal/model"
	"eduvista/internal/repository"
	"eduvista/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")
	ErrDuplicateUsername  = errors.New("el nombre de usuario ya está en uso")
	ErrPasswordMismatch   = errors.New("las contraseñas no coinciden")
	ErrMissingRole        = errors.New("debes seleccionar un rol")
	ErrInvalidInput       = errors.New("datos de registro inválidos")
	ErrInvalidToken       = errors.New("session token is invalid or expired")
)

// AuthService checks credentials against the user directory and issues tokens
type AuthService interface {
	Register(ctx context.Context, form model.RegisterForm) (*model.User, string, error)
	Login(ctx context.Context, creds model.Credentials) (*model.User, string, error)
	// Resolve maps a previously issued token back to its user.
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtUtil  *utils.JWTUtil
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtUtil:  jwtUtil,
		logger:   logger,
	}
}

// Register validates the form, creates the user and returns a token for it
func (s *authService) Register(ctx context.Context, form model.RegisterForm) (*model.User, string, error) {
	role, err := ValidateRegistration(form)
	if err != nil {
		return nil, "", err
	}
	username := strings.TrimSpace(form.Username)

	existingUser, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrDuplicateUsername
	}

	hashedPassword, err := utils.HashPassword(form.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		FullName:     strings.TrimSpace(form.FullName),
		Email:        strings.TrimSpace(form.Email),
		PasswordHash: hashedPassword,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, "", ErrDuplicateUsername
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(user.Username, user.Role)
	if err != nil {
		s.logger.Error("user created but token generation failed",
			zap.String("username", user.Username),
			zap.Error(err))
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))
	return user, token, nil
}

// Login authenticates a user and returns a token
func (s *authService) Login(ctx context.Context, creds model.Credentials) (*model.User, string, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by username: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.Username, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Resolve validates the token and reloads its user. The role recorded in the
// token must still match the directory.
func (s *authService) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	user, err := s.userRepo.FindByUsername(ctx, claims.Username)
	if err != nil {
		return nil, fmt.Errorf("error finding user by username: %w", err)
	}
	if user == nil || user.Role != claims.Role {
		return nil, ErrInvalidToken
	}
	return user, nil
}
