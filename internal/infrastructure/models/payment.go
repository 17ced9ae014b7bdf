package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code           string    `gorm:"type:varchar(15);uniqueIndex;not null"`
	ReceiverUserID string    `gorm:"type:text;not null;index"`
	Title          string    `gorm:"type:text;not null"`
	Currency       *string   `gorm:"type:varchar(8)"`
	Amount         *string   `gorm:"type:numeric(38,0)"` // BigInt, nullable
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
