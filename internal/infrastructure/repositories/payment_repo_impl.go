package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/infrastructure/models"
)

// PaymentRepository implements payment data operations
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	if payment.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		payment.ID = id
	}

	m := &models.Payment{
		ID:             payment.ID,
		Code:           payment.Code,
		ReceiverUserID: payment.ReceiverUserID,
		Title:          payment.Title,
		Currency:       payment.Currency.Ptr(),
		Amount:         payment.Amount.Ptr(),
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err)
	}
	payment.CreatedAt = m.CreatedAt
	payment.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByCode gets a payment by its share code
func (r *PaymentRepository) GetByCode(ctx context.Context, code string) (*entities.Payment, error) {
	var m models.Payment
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ExistsByCode reports whether a code is taken
func (r *PaymentRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Payment{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PaymentRepository) toEntity(m *models.Payment) *entities.Payment {
	return &entities.Payment{
		ID:             m.ID,
		Code:           m.Code,
		ReceiverUserID: m.ReceiverUserID,
		Title:          m.Title,
		Currency:       null.StringFromPtr(m.Currency),
		Amount:         null.StringFromPtr(m.Amount),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
