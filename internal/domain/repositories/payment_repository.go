package repositories

import (
	"context"

	"kaiapay.backend/internal/domain/entities"
)

// PaymentRepository defines payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByCode(ctx context.Context, code string) (*entities.Payment, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
