package repositories

import (
	"context"

	"kaiapay.backend/internal/domain/entities"
)

// UserRepository defines user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByKaiapayID(ctx context.Context, kaiapayID string) (*entities.User, error)
	// UpsertKaiapayID creates the user row when missing and sets its handle
	UpsertKaiapayID(ctx context.Context, id, kaiapayID string) (*entities.User, error)
}
