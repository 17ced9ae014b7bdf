package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"kaiapay.backend/internal/domain/entities"
)

// TransactionRepository owns every write to the transactions table
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.Transaction) error
	// CreateIgnoreDuplicate inserts unless the tx hash is already recorded; it reports whether a row was written.
	CreateIgnoreDuplicate(ctx context.Context, tx *entities.Transaction) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	GetByTxHash(ctx context.Context, txHash string) (*entities.Transaction, error)
	GetLatestByToAddress(ctx context.Context, address string) (*entities.Transaction, error)
	GetClaimableByToAddress(ctx context.Context, address string) (*entities.Transaction, error)
	ListByAddress(ctx context.Context, address string, limit int) ([]*entities.Transaction, error)
	CountByAddressSince(ctx context.Context, address string, since time.Time) (int64, error)
	// TransitionStatus updates only when the row is still in status from; otherwise ErrStatusConflict.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entities.TransactionStatus, update entities.TransactionUpdate) error
	// ReleaseLink clears can_cancel only when it is still set; otherwise ErrLinkNotClaimable.
	ReleaseLink(ctx context.Context, id uuid.UUID, cancelTxHash null.String) error
	ExpirePendingBefore(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
