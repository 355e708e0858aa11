package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
)

// UserService handles registration and authentication of API users.
type UserService struct {
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
}

func NewUserService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository) *UserService {
	return &UserService{userRepo: userRepo, tokenRepo: tokenRepo}
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login verifies credentials and issues an access token plus a refresh
// token. The refresh token is stored hashed; old ones for the same user
// are revoked first.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (accessToken, refreshToken string, err error) {
	user, err := s.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	if !CheckPasswordHash(req.Password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	accessToken, err = GenerateAccessToken(user.ID)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	if err := s.tokenRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return "", "", fmt.Errorf("could not revoke old refresh tokens: %w", err)
	}
	if err := s.tokenRepo.Create(ctx, &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: HashToken(refreshToken),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return "", "", fmt.Errorf("could not store refresh token: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	return accessToken, refreshToken, nil
}

// Refresh exchanges a valid refresh token for a new access token. When
// the presented token has expired, the store is swept of expired rows
// on the way out; the exchange fails either way.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	stored, err := s.tokenRepo.GetByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidRefresh
		}
		return "", err
	}

	if time.Now().After(stored.ExpiresAt) {
		if _, err := s.tokenRepo.DeleteExpired(ctx); err != nil {
			logger.Log.WithError(err).Warn("Could not sweep expired refresh tokens")
		}
		return "", ErrInvalidRefresh
	}

	return GenerateAccessToken(stored.UserID)
}
