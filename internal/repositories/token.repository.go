package repositories

import (
	"context"
	"errors"
	"time"

	"stayops/internal/database"
	. "stayops/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TOKEN_CACHE_PREFIX = "scoped_token"
	TOKEN_CACHE_EXPIRY = 30 * time.Minute
)

type TokenRepository interface {
	// Create persists a new token row. When a concurrent issuer wins the
	// partial unique index on (subject_type, subject_id, date_key), the
	// loser's insert is skipped and the winner's row returned, so both
	// callers observe the same outcome.
	Create(ctx context.Context, tx *gorm.DB, token *ScopedToken) (*ScopedToken, error)

	GetByValue(ctx context.Context, tx *gorm.DB, value string) (*ScopedToken, error)
	GetLiveForSubject(
		ctx context.Context,
		tx *gorm.DB,
		subjectType TokenSubject,
		subjectID uuid.UUID,
		dateKey string,
	) (*ScopedToken, error)

	// Revoke flips valid to false. Irreversible.
	Revoke(ctx context.Context, tx *gorm.DB, value string) error

	// InvalidateCache drops the cached row for a token value. Callers invoke
	// it after the revoking transaction commits; clearing earlier would let
	// a concurrent verify re-cache the still-valid pre-commit row.
	InvalidateCache(ctx context.Context, value string)
}

type tokenRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewTokenRepository(cache database.CacheClient) TokenRepository {
	return &tokenRepository{
		cache: cache,
		log:   logger.New("tokenRepository"),
	}
}

func (r *tokenRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	token *ScopedToken,
) (*ScopedToken, error) {
	log := r.log.Function("Create")

	// ON CONFLICT DO NOTHING keeps the transaction usable when a concurrent
	// issuer already holds the live slot. A failed insert would abort the
	// transaction on Postgres and take the follow-up select down with it.
	err := gorm.G[ScopedToken](tx, clause.OnConflict{DoNothing: true}).Create(ctx, token)
	if err != nil {
		return nil, log.Err("failed to create scoped token", err,
			"subjectType", token.SubjectType, "subjectID", token.SubjectID)
	}

	live, err := r.GetLiveForSubject(ctx, tx, token.SubjectType, token.SubjectID, token.DateKey)
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, log.ErrMsg("no live token found after insert")
	}

	if live.Token != token.Token {
		log.Info("lost token issuance race, adopting winner",
			"subjectType", token.SubjectType,
			"subjectID", token.SubjectID,
			"dateKey", token.DateKey)
	}

	return live, nil
}

func (r *tokenRepository) GetByValue(
	ctx context.Context,
	tx *gorm.DB,
	value string,
) (*ScopedToken, error) {
	log := r.log.Function("GetByValue")

	var cached ScopedToken
	found, err := database.NewCacheBuilder(r.cache, value).
		WithContext(ctx).
		WithHash(TOKEN_CACHE_PREFIX).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get token from cache", "error", err)
	}
	if found {
		return &cached, nil
	}

	token, err := gorm.G[*ScopedToken](tx).
		Where(ScopedToken{Token: value}).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to look up token", err)
	}

	err = database.NewCacheBuilder(r.cache, value).
		WithContext(ctx).
		WithHash(TOKEN_CACHE_PREFIX).
		WithStruct(token).
		WithTTL(TOKEN_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to cache token", "error", err)
	}

	return token, nil
}

func (r *tokenRepository) GetLiveForSubject(
	ctx context.Context,
	tx *gorm.DB,
	subjectType TokenSubject,
	subjectID uuid.UUID,
	dateKey string,
) (*ScopedToken, error) {
	log := r.log.Function("GetLiveForSubject")

	token, err := gorm.G[*ScopedToken](tx).
		Where("subject_type = ? AND subject_id = ? AND date_key = ? AND valid",
			subjectType, subjectID, dateKey).
		Order("created_at DESC").
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to find live token", err,
			"subjectType", subjectType, "subjectID", subjectID, "dateKey", dateKey)
	}

	return token, nil
}

func (r *tokenRepository) Revoke(ctx context.Context, tx *gorm.DB, value string) error {
	log := r.log.Function("Revoke")

	result := tx.WithContext(ctx).
		Model(&ScopedToken{}).
		Where("token = ?", value).
		Update("valid", false)
	if result.Error != nil {
		return log.Err("failed to revoke token", result.Error)
	}

	return nil
}

func (r *tokenRepository) InvalidateCache(ctx context.Context, value string) {
	// Stale cache entries would let a revoked token keep verifying.
	err := database.NewCacheBuilder(r.cache, value).
		WithContext(ctx).
		WithHash(TOKEN_CACHE_PREFIX).
		Delete()
	if err != nil {
		r.log.Warn("failed to clear token cache after revoke", "error", err)
	}
}
