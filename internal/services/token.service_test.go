package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stayops/internal/apperrors"
	"stayops/internal/database"
	. "stayops/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeTx runs the function directly, without a database.
type fakeTx struct{}

func (f *fakeTx) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	return fn(ctx, nil)
}

// failingTx rejects every transaction without running it.
type failingTx struct {
	err error
}

func (f *failingTx) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	return f.err
}

// fakeTokenRepo is an in-memory stand-in for the token store. It keeps the
// one-live-token-per-subject rule the partial unique index enforces in
// production.
type fakeTokenRepo struct {
	tokens     map[string]*ScopedToken
	cacheDrops []string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*ScopedToken)}
}

func (r *fakeTokenRepo) Create(
	ctx context.Context,
	tx *gorm.DB,
	token *ScopedToken,
) (*ScopedToken, error) {
	if existing, _ := r.GetLiveForSubject(
		ctx, tx, token.SubjectType, token.SubjectID, token.DateKey,
	); existing != nil {
		return existing, nil
	}
	copied := *token
	r.tokens[token.Token] = &copied
	return &copied, nil
}

func (r *fakeTokenRepo) GetByValue(
	ctx context.Context,
	tx *gorm.DB,
	value string,
) (*ScopedToken, error) {
	token, ok := r.tokens[value]
	if !ok {
		return nil, nil
	}
	return token, nil
}

func (r *fakeTokenRepo) GetLiveForSubject(
	ctx context.Context,
	tx *gorm.DB,
	subjectType TokenSubject,
	subjectID uuid.UUID,
	dateKey string,
) (*ScopedToken, error) {
	for _, token := range r.tokens {
		if token.Valid && token.SubjectType == subjectType &&
			token.SubjectID == subjectID && token.DateKey == dateKey {
			return token, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) Revoke(ctx context.Context, tx *gorm.DB, value string) error {
	if token, ok := r.tokens[value]; ok {
		token.Valid = false
	}
	return nil
}

func (r *fakeTokenRepo) InvalidateCache(ctx context.Context, value string) {
	r.cacheDrops = append(r.cacheDrops, value)
}

// racingTokenRepo mimics losing the issuance race: the pre-check sees no
// live token, but by insert time a concurrent issuer's row holds the slot.
type racingTokenRepo struct {
	*fakeTokenRepo
	winner    *ScopedToken
	preChecks int
}

func (r *racingTokenRepo) GetLiveForSubject(
	ctx context.Context,
	tx *gorm.DB,
	subjectType TokenSubject,
	subjectID uuid.UUID,
	dateKey string,
) (*ScopedToken, error) {
	r.preChecks++
	if r.preChecks == 1 {
		return nil, nil
	}
	return r.winner, nil
}

func (r *racingTokenRepo) Create(
	ctx context.Context,
	tx *gorm.DB,
	token *ScopedToken,
) (*ScopedToken, error) {
	return r.winner, nil
}

func newTestTokenService(repo *fakeTokenRepo) *TokenService {
	return NewTokenService(repo, &fakeTx{}, database.DB{})
}

func TestIssueValidation(t *testing.T) {
	service := newTestTokenService(newFakeTokenRepo())
	ctx := context.Background()

	tests := []struct {
		name        string
		subjectType TokenSubject
		subjectID   uuid.UUID
		dateKey     string
	}{
		{"unknown subject type", TokenSubject("robot"), uuid.New(), "2026-09-01"},
		{"nil subject id", SubjectWorker, uuid.Nil, "2026-09-01"},
		{"malformed date key", SubjectWorker, uuid.New(), "Sept 1"},
		{"empty date key", SubjectGuest, uuid.New(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Issue(ctx, tt.subjectType, tt.subjectID, tt.dateKey)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestIssueMintsOpaqueToken(t *testing.T) {
	service := newTestTokenService(newFakeTokenRepo())

	token, err := service.Issue(context.Background(), SubjectWorker, uuid.New(), "2026-09-01")
	require.NoError(t, err)

	assert.Len(t, token, 43, "32 random bytes base64url encoded without padding")
	assert.NotContains(t, token, ".", "opaque tokens carry no structure")
	assert.NotContains(t, token, "=")
}

func TestIssueIsIdempotent(t *testing.T) {
	service := newTestTokenService(newFakeTokenRepo())
	ctx := context.Background()
	subjectID := uuid.New()

	first, err := service.Issue(ctx, SubjectGuest, subjectID, "2026-09-01")
	require.NoError(t, err)

	second, err := service.Issue(ctx, SubjectGuest, subjectID, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-issuing for the same subject and day returns the live token")

	other, err := service.Issue(ctx, SubjectGuest, subjectID, "2026-09-02")
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "a different day is a different scope")
}

func TestIssueRaceLoserAdoptsWinner(t *testing.T) {
	winner := &ScopedToken{
		Token:       "winner-opaque-token",
		SubjectType: SubjectWorker,
		SubjectID:   uuid.New(),
		DateKey:     "2026-09-01",
		Valid:       true,
	}
	repo := &racingTokenRepo{fakeTokenRepo: newFakeTokenRepo(), winner: winner}
	service := NewTokenService(repo, &fakeTx{}, database.DB{})

	value, err := service.Issue(
		context.Background(), winner.SubjectType, winner.SubjectID, winner.DateKey,
	)
	require.NoError(t, err)
	assert.Equal(t, winner.Token, value, "both issuers observe the same token")
}

func TestIssueRotatesLegacyStructuredToken(t *testing.T) {
	repo := newFakeTokenRepo()
	service := newTestTokenService(repo)
	ctx := context.Background()
	subjectID := uuid.New()

	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subjectID.String(),
	}).SignedString([]byte("legacy-secret"))
	require.NoError(t, err)

	repo.tokens[legacy] = &ScopedToken{
		Token:       legacy,
		SubjectType: SubjectWorker,
		SubjectID:   subjectID,
		DateKey:     "2026-09-01",
		Valid:       true,
	}

	minted, err := service.Issue(ctx, SubjectWorker, subjectID, "2026-09-01")
	require.NoError(t, err)

	assert.NotEqual(t, legacy, minted)
	assert.False(t, strings.Contains(minted, "."))
	assert.False(t, repo.tokens[legacy].Valid, "legacy credential stops working on rotation")
	assert.Contains(t, repo.cacheDrops, legacy, "rotated credential is dropped from the cache")

	_, err = service.Verify(ctx, legacy)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestVerify(t *testing.T) {
	service := newTestTokenService(newFakeTokenRepo())
	ctx := context.Background()
	subjectID := uuid.New()

	token, err := service.Issue(ctx, SubjectWorker, subjectID, "2026-09-01")
	require.NoError(t, err)

	scope, err := service.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, SubjectWorker, scope.SubjectType)
	assert.Equal(t, subjectID, scope.SubjectID)
	assert.Equal(t, "2026-09-01", scope.DateKey)

	_, err = service.Verify(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	_, err = service.Verify(ctx, "no-such-token")
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestRevokeInvalidatesToken(t *testing.T) {
	service := newTestTokenService(newFakeTokenRepo())
	ctx := context.Background()

	token, err := service.Issue(ctx, SubjectGuest, uuid.New(), "2026-09-01")
	require.NoError(t, err)

	require.NoError(t, service.Revoke(ctx, token))

	_, err = service.Verify(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	assert.NoError(t, service.Revoke(ctx, token), "revocation is idempotent")
	assert.ErrorIs(t, service.Revoke(ctx, ""), apperrors.ErrValidation)
}

func TestRevokeClearsCacheAfterCommit(t *testing.T) {
	repo := newFakeTokenRepo()
	service := newTestTokenService(repo)
	ctx := context.Background()

	token, err := service.Issue(ctx, SubjectWorker, uuid.New(), "2026-09-01")
	require.NoError(t, err)

	require.NoError(t, service.Revoke(ctx, token))
	assert.Equal(t, []string{token}, repo.cacheDrops)
}

func TestRevokeKeepsCacheWhenTransactionFails(t *testing.T) {
	repo := newFakeTokenRepo()
	service := NewTokenService(repo, &failingTx{err: errors.New("connection reset")}, database.DB{})

	err := service.Revoke(context.Background(), "some-token")
	require.Error(t, err)
	assert.Empty(t, repo.cacheDrops, "a failed revoke must not pre-empt the cached row")
}

func TestIsLegacyStructuredToken(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "someone",
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}

	assert.True(t, isLegacyStructuredToken(signed))

	opaque, err := mintOpaqueToken()
	if err != nil {
		t.Fatal(err)
	}
	assert.False(t, isLegacyStructuredToken(opaque))
	assert.False(t, isLegacyStructuredToken("plain-string"))
}
