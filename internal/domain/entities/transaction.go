package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// TransactionKind describes where the funds of a transaction went
type TransactionKind string

const (
	TransactionKindSendToUser     TransactionKind = "send_to_user"
	TransactionKindSendToTemporal TransactionKind = "send_to_temporal"
	TransactionKindReceive        TransactionKind = "receive"
	TransactionKindInterest       TransactionKind = "interest"
	TransactionKindPayment        TransactionKind = "payment"
	TransactionKindWithdraw       TransactionKind = "withdraw"
	TransactionKindDeposit        TransactionKind = "deposit"
)

// TransactionMethod describes how the recipient was addressed
type TransactionMethod string

const (
	TransactionMethodLink      TransactionMethod = "link"
	TransactionMethodKaiapayID TransactionMethod = "kaiapayId"
	TransactionMethodPhone     TransactionMethod = "phone"
	TransactionMethodWallet    TransactionMethod = "wallet"
	TransactionMethodLuckybox  TransactionMethod = "luckybox"
	TransactionMethodInterest  TransactionMethod = "interest"
	TransactionMethodPayment   TransactionMethod = "payment"
)

// TransactionStatus represents the settlement state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusSuccess    TransactionStatus = "success"
	TransactionStatusCanceled   TransactionStatus = "canceled"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusExpired    TransactionStatus = "expired"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending: {
		TransactionStatusProcessing,
		TransactionStatusSuccess,
		TransactionStatusFailed,
		TransactionStatusCanceled,
		TransactionStatusExpired,
	},
	TransactionStatusProcessing: {
		TransactionStatusSuccess,
		TransactionStatusFailed,
	},
}

// CanTransitionTo reports whether moving from s to next follows the lifecycle
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValidTransactionMethod reports whether m is a known method
func IsValidTransactionMethod(m TransactionMethod) bool {
	switch m {
	case TransactionMethodLink, TransactionMethodKaiapayID, TransactionMethodPhone,
		TransactionMethodWallet, TransactionMethodLuckybox, TransactionMethodInterest,
		TransactionMethodPayment:
		return true
	}
	return false
}

// Transaction is one transfer attempt, settled or not
type Transaction struct {
	ID             uuid.UUID         `json:"id"`
	FromAddress    string            `json:"fromAddress"`
	ToAddress      string            `json:"toAddress"`
	Token          string            `json:"token"`
	Amount         string            `json:"amount"`
	SenderAlias    null.String       `json:"senderAlias"`
	RecipientAlias null.String       `json:"recipientAlias"`
	Kind           TransactionKind   `json:"type"`
	Method         TransactionMethod `json:"method"`
	Status         TransactionStatus `json:"status"`
	Deadline       null.Time         `json:"deadline"`
	CanCancel      bool              `json:"canCancel"`
	TxHash         null.String       `json:"txHash"`
	CancelTxHash   null.String       `json:"cancelTxHash"`
	Memo           null.String       `json:"memo"`
	PaymentID      *uuid.UUID        `json:"paymentId,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// TransactionUpdate holds the columns written together with a status transition.
// Zero values are left untouched.
type TransactionUpdate struct {
	TxHash       null.String
	CancelTxHash null.String
	CanCancel    null.Bool
}

// ConfirmTransactionInput confirms a pending transfer or withdraw
type ConfirmTransactionInput struct {
	TransactionID string `json:"transactionId" binding:"required"`
	TxHash        string `json:"txHash" binding:"required"`
}

// DepositInput records an inbound deposit
type DepositInput struct {
	TxHash string `json:"txHash" binding:"required"`
}

// ClaimLinkInput settles the pickup of a link transfer
type ClaimLinkInput struct {
	PrevTransactionID string `json:"prevTransactionId"`
	TxHash            string `json:"txHash" binding:"required"`
}

// TransferWithLinkInput issues a link transfer
type TransferWithLinkInput struct {
	Amount string            `json:"amount" binding:"required"`
	Token  string            `json:"token" binding:"required"`
	Method TransactionMethod `json:"method" binding:"required,oneof=link phone"`
}

// TransferWithKaiapayIDInput records a transfer to another user's handle
type TransferWithKaiapayIDInput struct {
	Amount    string `json:"amount" binding:"required"`
	Token     string `json:"token" binding:"required"`
	KaiapayID string `json:"kaiapayId" binding:"required"`
}

// TransferWithExternalAddressInput records a withdraw to an arbitrary wallet
type TransferWithExternalAddressInput struct {
	Amount  string `json:"amount" binding:"required"`
	Token   string `json:"token" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// TransferLink is returned once on issuance; the key is never stored
type TransferLink struct {
	Link          string `json:"link"`
	PublicAddress string `json:"publicAddress"`
}

// TransactionList is the caller's history plus today's activity count
type TransactionList struct {
	Transactions []*Transaction `json:"transactions"`
	TodayCount   int64          `json:"todayCount"`
}

// PublicTransaction is the subset of a transaction shown to link holders
type PublicTransaction struct {
	ID          uuid.UUID         `json:"id"`
	Amount      string            `json:"amount"`
	Token       string            `json:"token"`
	SenderAlias null.String       `json:"senderAlias"`
	Status      TransactionStatus `json:"status"`
	Deadline    null.Time         `json:"deadline"`
	CanCancel   bool              `json:"canCancel"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Public strips a transaction down to display fields
func (t *Transaction) Public() *PublicTransaction {
	return &PublicTransaction{
		ID:          t.ID,
		Amount:      t.Amount,
		Token:       t.Token,
		SenderAlias: t.SenderAlias,
		Status:      t.Status,
		Deadline:    t.Deadline,
		CanCancel:   t.CanCancel,
		CreatedAt:   t.CreatedAt,
	}
}

// TransferResult identifies a newly recorded transfer
type TransferResult struct {
	TransactionID uuid.UUID `json:"transactionId"`
	PublicAddress string    `json:"publicAddress,omitempty"`
}
