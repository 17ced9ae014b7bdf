package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

const (
	KaiapayIDMinLength = 4
	KaiapayIDMaxLength = 16
)

// User is the local record of an identity-provider user
type User struct {
	ID        string      `json:"id"`
	KaiapayID null.String `json:"kaiapayId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// IdentityUser is what the identity provider knows about a user
type IdentityUser struct {
	ID                 string `json:"id"`
	SmartWalletAddress string `json:"smartWalletAddress,omitempty"`
	Email              string `json:"email,omitempty"`
}

// UserProfile combines the identity user and the local record
type UserProfile struct {
	*IdentityUser
	KaiapayID null.String `json:"kaiapayId"`
}

// UpdateKaiapayIDInput represents input for claiming a handle
type UpdateKaiapayIDInput struct {
	KaiapayID string `json:"kaiapayId" binding:"required"`
}
