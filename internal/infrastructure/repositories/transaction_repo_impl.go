package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/infrastructure/models"
)

// TransactionRepository implements transaction data operations
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction, assigning a UUIDv7 when the id is empty
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	m, err := r.prepare(tx)
	if err != nil {
		return err
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err)
	}
	tx.ID = m.ID
	tx.CreatedAt = m.CreatedAt
	tx.UpdatedAt = m.UpdatedAt
	return nil
}

// CreateIgnoreDuplicate inserts with ON CONFLICT (tx_hash) DO NOTHING
func (r *TransactionRepository) CreateIgnoreDuplicate(ctx context.Context, tx *entities.Transaction) (bool, error) {
	m, err := r.prepare(tx)
	if err != nil {
		return false, err
	}
	result := GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		}).
		Create(m)
	if result.Error != nil {
		return false, translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	tx.ID = m.ID
	tx.CreatedAt = m.CreatedAt
	tx.UpdatedAt = m.UpdatedAt
	return true, nil
}

// GetByID gets a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return r.first(GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id))
}

// GetByIDForUpdate reads the row with SELECT ... FOR UPDATE
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return r.first(GetDB(WithLock(ctx), r.db).WithContext(ctx).Where("id = ?", id))
}

// GetByTxHash gets a transaction by its on-chain hash
func (r *TransactionRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.Transaction, error) {
	return r.first(GetDB(ctx, r.db).WithContext(ctx).Where("tx_hash = ?", txHash))
}

// GetLatestByToAddress gets the newest transaction sent to address
func (r *TransactionRepository) GetLatestByToAddress(ctx context.Context, address string) (*entities.Transaction, error) {
	return r.first(GetDB(ctx, r.db).WithContext(ctx).
		Where("LOWER(to_address) = LOWER(?)", address).
		Order("created_at DESC"))
}

// GetClaimableByToAddress gets the newest cancelable link transfer held at address
func (r *TransactionRepository) GetClaimableByToAddress(ctx context.Context, address string) (*entities.Transaction, error) {
	return r.first(GetDB(WithLock(ctx), r.db).WithContext(ctx).
		Where("LOWER(to_address) = LOWER(?) AND type = ? AND can_cancel = ?",
			address, string(entities.TransactionKindSendToTemporal), true).
		Order("created_at DESC"))
}

// ListByAddress lists transactions where address is sender or receiver, newest first
func (r *TransactionRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*entities.Transaction, error) {
	var ms []models.Transaction
	query := GetDB(ctx, r.db).WithContext(ctx).
		Where("LOWER(from_address) = LOWER(?) OR LOWER(to_address) = LOWER(?)", address, address).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}

	txs := make([]*entities.Transaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, r.toEntity(&ms[i]))
	}
	return txs, nil
}

// CountByAddressSince counts transactions touching address created at or after since
func (r *TransactionRepository) CountByAddressSince(ctx context.Context, address string, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).
		Where("(LOWER(from_address) = LOWER(?) OR LOWER(to_address) = LOWER(?)) AND created_at >= ?", address, address, since).
		Count(&count).Error
	return count, err
}

// TransitionStatus moves a row from one status to another, guarded by the current status
func (r *TransactionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entities.TransactionStatus, update entities.TransactionUpdate) error {
	if !from.CanTransitionTo(to) {
		return domainerrors.ErrInvalidTransition
	}

	values := map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now(),
	}
	if update.TxHash.Valid {
		values["tx_hash"] = update.TxHash.String
	}
	if update.CancelTxHash.Valid {
		values["cancel_tx_hash"] = update.CancelTxHash.String
	}
	if update.CanCancel.Valid {
		values["can_cancel"] = update.CanCancel.Bool
	}

	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(values)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStatusConflict
	}
	return nil
}

// ReleaseLink clears can_cancel on a link transfer that still has it set, optionally
// recording the reclaim hash. A row that was already released gives ErrLinkNotClaimable.
func (r *TransactionRepository) ReleaseLink(ctx context.Context, id uuid.UUID, cancelTxHash null.String) error {
	updates := map[string]interface{}{
		"can_cancel": false,
		"updated_at": time.Now(),
	}
	if cancelTxHash.Valid {
		updates["cancel_tx_hash"] = cancelTxHash.String
	}
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND can_cancel = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrLinkNotClaimable
	}
	return nil
}

var selectExpirable = func(db *gorm.DB, now time.Time) ([]uuid.UUID, error) {
	var ms []models.Transaction
	if err := db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		Where("status = ? AND type = ? AND deadline IS NOT NULL AND deadline < ?",
			string(entities.TransactionStatusPending), string(entities.TransactionKindSendToTemporal), now).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ExpirePendingBefore expires pending link transfers whose deadline passed and
// returns the ids of the rows it actually changed.
func (r *TransactionRepository) ExpirePendingBefore(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var expired []uuid.UUID
	err := r.inTx(ctx, func(db *gorm.DB) error {
		candidates, err := selectExpirable(db, now)
		if err != nil {
			return err
		}
		for _, id := range candidates {
			result := db.Model(&models.Transaction{}).
				Where("id = ? AND status = ?", id, string(entities.TransactionStatusPending)).
				Updates(map[string]interface{}{
					"status":     string(entities.TransactionStatusExpired),
					"can_cancel": false,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 1 {
				expired = append(expired, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *TransactionRepository) inTx(ctx context.Context, fn func(db *gorm.DB) error) error {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *TransactionRepository) first(query *gorm.DB) (*entities.Transaction, error) {
	var m models.Transaction
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *TransactionRepository) prepare(tx *entities.Transaction) (*models.Transaction, error) {
	amount, err := entities.CanonicalAmount(tx.Amount)
	if err != nil {
		return nil, domainerrors.ErrInvalidInput
	}
	tx.Amount = amount

	id := tx.ID
	if id == uuid.Nil {
		id, err = uuid.NewV7()
		if err != nil {
			return nil, err
		}
	}
	status := tx.Status
	if status == "" {
		status = entities.TransactionStatusPending
	}
	tx.Status = status

	return &models.Transaction{
		ID:             id,
		FromAddress:    tx.FromAddress,
		ToAddress:      tx.ToAddress,
		Token:          tx.Token,
		Amount:         amount,
		SenderAlias:    tx.SenderAlias.Ptr(),
		RecipientAlias: tx.RecipientAlias.Ptr(),
		Type:           string(tx.Kind),
		Method:         string(tx.Method),
		Status:         string(status),
		Deadline:       tx.Deadline.Ptr(),
		CanCancel:      tx.CanCancel,
		TxHash:         tx.TxHash.Ptr(),
		CancelTxHash:   tx.CancelTxHash.Ptr(),
		Memo:           tx.Memo.Ptr(),
		PaymentID:      tx.PaymentID,
	}, nil
}

func (r *TransactionRepository) toEntity(m *models.Transaction) *entities.Transaction {
	return &entities.Transaction{
		ID:             m.ID,
		FromAddress:    m.FromAddress,
		ToAddress:      m.ToAddress,
		Token:          m.Token,
		Amount:         m.Amount,
		SenderAlias:    null.StringFromPtr(m.SenderAlias),
		RecipientAlias: null.StringFromPtr(m.RecipientAlias),
		Kind:           entities.TransactionKind(m.Type),
		Method:         entities.TransactionMethod(m.Method),
		Status:         entities.TransactionStatus(m.Status),
		Deadline:       null.TimeFromPtr(m.Deadline),
		CanCancel:      m.CanCancel,
		TxHash:         null.StringFromPtr(m.TxHash),
		CancelTxHash:   null.StringFromPtr(m.CancelTxHash),
		Memo:           null.StringFromPtr(m.Memo),
		PaymentID:      m.PaymentID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.ErrAlreadyExists
	}
	return err
}
