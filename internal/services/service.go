package services

import (
	"context"

	"stayops/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxExecutor abstracts TransactionService so units that need transactional
// writes can be exercised with an in-memory executor in tests.
type TxExecutor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

// TokenIssuer is the minting side of the token authority, split out so
// callers that only issue can be tested against a fake.
type TokenIssuer interface {
	Issue(
		ctx context.Context,
		subjectType models.TokenSubject,
		subjectID uuid.UUID,
		dateKey string,
	) (string, error)
}

// TokenVerifier is the read side of the token authority, consumed by the
// auth middleware.
type TokenVerifier interface {
	Verify(ctx context.Context, value string) (*models.TokenScope, error)
}

// Service bundles the long-lived services for app wiring.
type Service struct {
	Transaction    *TransactionService
	Token          *TokenService
	Scheduler      *SchedulerService
	Notify         Notifier
	PhotoRetention *PhotoRetentionService
}
