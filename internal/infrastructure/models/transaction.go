package models

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FromAddress    string     `gorm:"type:text;not null;index"`
	ToAddress      string     `gorm:"type:text;not null;index"`
	Token          string     `gorm:"type:text;not null"`
	Amount         string     `gorm:"type:numeric(38,0);not null"` // BigInt
	SenderAlias    *string    `gorm:"type:text"`
	RecipientAlias *string    `gorm:"type:text"`
	Type           string     `gorm:"column:type;type:varchar(32);not null"`
	Method         string     `gorm:"type:varchar(32);not null"`
	Status         string     `gorm:"type:varchar(32);not null;index"`
	Deadline       *time.Time `gorm:"type:timestamptz"`
	CanCancel      bool       `gorm:"not null;default:false"`
	TxHash         *string    `gorm:"type:varchar(80);uniqueIndex:tx_hash_unique"`
	CancelTxHash   *string    `gorm:"type:varchar(80)"`
	Memo           *string    `gorm:"type:varchar(200)"`
	PaymentID      *uuid.UUID `gorm:"type:uuid;index"`
	Payment        *Payment   `gorm:"foreignKey:PaymentID;constraint:OnDelete:SET NULL"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
