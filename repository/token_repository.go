// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"go-ledger-api/logger"
	"go-ledger-api/model"

	"github.com/sirupsen/logrus"
)

// ITokenRepository persists refresh tokens. Only hashes ever reach this
// layer; callers hash the raw token before storing or looking it up.
type ITokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	DeleteByUserID(ctx context.Context, userID int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// TokenRepository implements ITokenRepository on Postgres.
type TokenRepository struct {
	DB *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create stores a hashed refresh token and reads back its row id and
// creation time.
func (r *TokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Storing refresh token")

	query := `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to store refresh token")
		return err
	}
	return nil
}

// GetByTokenHash looks a refresh token up by its hash. A miss surfaces
// as sql.ErrNoRows so callers can treat it as an invalid token.
func (r *TokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	query := `SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash = $1`
	err := r.DB.QueryRowContext(ctx, query, tokenHash).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to look up refresh token")
		}
		return nil, err
	}
	return token, nil
}

// DeleteByUserID revokes every refresh token a user holds, ending all
// of their sessions at once.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID int) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Revoking refresh tokens for user")

	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	if _, err := r.DB.ExecContext(ctx, query, userID); err != nil {
		log.WithError(err).Error("Failed to revoke refresh tokens")
		return err
	}
	return nil
}

// DeleteExpired removes every token past its expiry and reports how many
// rows went away. Expired rows are useless for authentication, so the
// sweep keeps the table from growing without bound.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < now()`
	result, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to sweep expired refresh tokens")
		return 0, err
	}

	swept, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		logger.Log.WithField("count", swept).Info("Swept expired refresh tokens")
	}
	return swept, nil
}
