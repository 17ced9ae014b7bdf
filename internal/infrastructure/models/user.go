package models

import (
	"time"
)

type User struct {
	ID        string  `gorm:"type:text;primaryKey"`
	KaiapayID *string `gorm:"column:kaiapay_id;type:text;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// All returns every model in dependency order for AutoMigrate
func All() []interface{} {
	return []interface{}{&User{}, &Payment{}, &Transaction{}}
}
