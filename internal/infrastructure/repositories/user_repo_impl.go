package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/infrastructure/models"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID gets a user by identity-provider id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return r.first(GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id))
}

// GetByKaiapayID gets a user by handle
func (r *UserRepository) GetByKaiapayID(ctx context.Context, kaiapayID string) (*entities.User, error) {
	return r.first(GetDB(ctx, r.db).WithContext(ctx).Where("kaiapay_id = ?", strings.TrimSpace(kaiapayID)))
}

// UpsertKaiapayID inserts the user or updates its handle
func (r *UserRepository) UpsertKaiapayID(ctx context.Context, id, kaiapayID string) (*entities.User, error) {
	now := time.Now()
	m := &models.User{
		ID:        id,
		KaiapayID: &kaiapayID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kaiapay_id", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domainerrors.ErrKaiapayIDTaken
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) first(query *gorm.DB) (*entities.User, error) {
	var m models.User
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &entities.User{
		ID:        m.ID,
		KaiapayID: null.StringFromPtr(m.KaiapayID),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}
