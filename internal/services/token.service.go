package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"stayops/internal/apperrors"
	"stayops/internal/database"
	. "stayops/internal/models"
	"stayops/internal/repositories"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tokenByteLength = 32

// TokenService is the token authority. Workers and guests never hold
// passwords; they hold opaque bearer tokens scoped to one subject and one
// civil date, issued here and revocable here.
type TokenService struct {
	tokenRepo repositories.TokenRepository
	tx        TxExecutor
	db        database.DB
	log       logger.Logger
}

func NewTokenService(
	tokenRepo repositories.TokenRepository,
	tx TxExecutor,
	db database.DB,
) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		tx:        tx,
		db:        db,
		log:       logger.New("tokenService"),
	}
}

// Issue returns the live token for (subjectType, subjectID, dateKey),
// minting one only when none exists. A live token in the retired
// signed/structured format is revoked and replaced on sight, so the legacy
// credential stops working the moment the new one is handed out.
func (s *TokenService) Issue(
	ctx context.Context,
	subjectType TokenSubject,
	subjectID uuid.UUID,
	dateKey string,
) (string, error) {
	log := s.log.Function("Issue")

	if !subjectType.Valid() {
		return "", apperrors.Validation("unknown token subject type %q", subjectType)
	}
	if subjectID == uuid.Nil {
		return "", apperrors.Validation("subject id is required")
	}
	if !timewindow.IsValidKey(dateKey) {
		return "", apperrors.Validation("malformed date key %q", dateKey)
	}

	var value string
	var rotated string
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := s.tokenRepo.GetLiveForSubject(ctx, tx, subjectType, subjectID, dateKey)
		if err != nil {
			return err
		}

		if existing != nil {
			if !isLegacyStructuredToken(existing.Token) {
				value = existing.Token
				return nil
			}

			log.Warn("revoking legacy structured token",
				"subjectType", subjectType, "subjectID", subjectID, "dateKey", dateKey)
			if err := s.tokenRepo.Revoke(ctx, tx, existing.Token); err != nil {
				return err
			}
			rotated = existing.Token
		}

		minted, err := mintOpaqueToken()
		if err != nil {
			return log.Err("failed to mint token", err)
		}

		created, err := s.tokenRepo.Create(ctx, tx, &ScopedToken{
			Token:       minted,
			SubjectType: subjectType,
			SubjectID:   subjectID,
			DateKey:     dateKey,
			Valid:       true,
		})
		if err != nil {
			return err
		}

		value = created.Token
		return nil
	})
	if err != nil {
		return "", err
	}

	// Cache cleanup waits for the commit so a concurrent verify cannot
	// re-cache the not-yet-revoked row.
	if rotated != "" {
		s.tokenRepo.InvalidateCache(ctx, rotated)
	}

	return value, nil
}

// Verify resolves a bearer token to its scope. Unknown and revoked tokens
// fail identically. Verify does not judge staleness: a token for a past
// date still resolves, and the auth middleware is where DateKey is held
// against the current civil day.
func (s *TokenService) Verify(ctx context.Context, value string) (*TokenScope, error) {
	log := s.log.Function("Verify")

	if value == "" {
		return nil, apperrors.Authorization()
	}

	token, err := s.tokenRepo.GetByValue(ctx, s.db.SQL, value)
	if err != nil {
		return nil, err
	}

	if token == nil || !token.Valid {
		log.Debug("token verification failed")
		return nil, apperrors.Authorization()
	}

	return &TokenScope{
		SubjectType: token.SubjectType,
		SubjectID:   token.SubjectID,
		DateKey:     token.DateKey,
	}, nil
}

// Revoke invalidates a token. Revocation is idempotent and irreversible.
func (s *TokenService) Revoke(ctx context.Context, value string) error {
	if value == "" {
		return apperrors.Validation("token value is required")
	}

	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.tokenRepo.Revoke(ctx, tx, value)
	})
	if err != nil {
		return err
	}

	s.tokenRepo.InvalidateCache(ctx, value)
	return nil
}

func mintOpaqueToken() (string, error) {
	raw := make([]byte, tokenByteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// isLegacyStructuredToken recognizes the retired JWT-shaped credential. A
// token that parses as a JWT is by definition not one of ours: opaque
// tokens carry no structure at all.
func isLegacyStructuredToken(value string) bool {
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(value, jwt.MapClaims{}); err != nil {
		return false
	}
	return true
}
