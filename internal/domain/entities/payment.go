package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// PaymentCurrency is the denomination of a payment request
type PaymentCurrency string

const (
	PaymentCurrencyUSDT PaymentCurrency = "USDT"
	PaymentCurrencyKAIA PaymentCurrency = "KAIA"
)

// PaymentCodeLength is the length of generated payment codes
const PaymentCodeLength = 10

// Payment is a shareable invoice. Amount and currency are fixed at creation.
type Payment struct {
	ID             uuid.UUID   `json:"id"`
	Code           string      `json:"code"`
	ReceiverUserID string      `json:"receiverUserId"`
	Title          string      `json:"title"`
	Currency       null.String `json:"currency"`
	Amount         null.String `json:"amount"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// CreatePaymentInput represents input for creating a payment request
type CreatePaymentInput struct {
	Title    string          `json:"title" binding:"required,max=100"`
	Amount   string          `json:"amount"`
	Currency PaymentCurrency `json:"currency" binding:"omitempty,oneof=USDT KAIA"`
}

// CreatePaymentResponse carries the shareable url
type CreatePaymentResponse struct {
	URL  string `json:"url"`
	Code string `json:"code"`
}

// PaymentDetail is a payment plus where to send funds
type PaymentDetail struct {
	*Payment
	ReceiverAddress string `json:"receiverAddress"`
}
