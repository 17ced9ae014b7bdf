package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/domain/repositories"
	"kaiapay.backend/pkg/linkkey"
	"kaiapay.backend/pkg/logger"
	"kaiapay.backend/pkg/utils"
)

var (
	generateLinkKey = linkkey.Generate
	now             = time.Now
)

// TransactionUsecase issues pending transfer records and serves history
type TransactionUsecase struct {
	txRepo      repositories.TransactionRepository
	userRepo    repositories.UserRepository
	identity    IdentityProvider
	linkBaseURL string
	linkTTL     time.Duration
}

// NewTransactionUsecase creates a new transaction usecase; linkTTL <= 0 issues links without a deadline
func NewTransactionUsecase(
	txRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	identity IdentityProvider,
	linkBaseURL string,
	linkTTL time.Duration,
) *TransactionUsecase {
	return &TransactionUsecase{
		txRepo:      txRepo,
		userRepo:    userRepo,
		identity:    identity,
		linkBaseURL: linkBaseURL,
		linkTTL:     linkTTL,
	}
}

// TransferWithLink creates a one-time holding key and a pending link transfer into it.
// The private key only leaves this function inside the returned link.
func (u *TransactionUsecase) TransferWithLink(ctx context.Context, userID string, input *entities.TransferWithLinkInput) (*entities.TransferLink, error) {
	amount, token, err := validateTransfer(input.Amount, input.Token)
	if err != nil {
		return nil, err
	}
	if input.Method != entities.TransactionMethodLink && input.Method != entities.TransactionMethodPhone {
		return nil, domainerrors.BadRequest("method must be link or phone")
	}

	wallet, err := smartWallet(ctx, u.identity, userID)
	if err != nil {
		return nil, err
	}

	key, err := generateLinkKey()
	if err != nil {
		return nil, fmt.Errorf("generate link key: %w", err)
	}

	record := &entities.Transaction{
		FromAddress: wallet,
		ToAddress:   key.Address.Hex(),
		Token:       token,
		Amount:      amount,
		SenderAlias: u.aliasOf(ctx, userID),
		Kind:        entities.TransactionKindSendToTemporal,
		Method:      input.Method,
		Status:      entities.TransactionStatusPending,
		CanCancel:   true,
	}
	if u.linkTTL > 0 {
		record.Deadline = null.TimeFrom(now().Add(u.linkTTL))
	}
	if err := u.txRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	logger.Info(ctx, "link transfer issued",
		zap.String("transactionId", record.ID.String()),
		zap.String("holdingAddress", record.ToAddress),
	)
	return &entities.TransferLink{
		Link:          key.URL(u.linkBaseURL),
		PublicAddress: key.Address.Hex(),
	}, nil
}

// TransferWithKaiapayID records a pending transfer to the owner of a handle
func (u *TransactionUsecase) TransferWithKaiapayID(ctx context.Context, userID string, input *entities.TransferWithKaiapayIDInput) (*entities.TransferResult, error) {
	amount, token, err := validateTransfer(input.Amount, input.Token)
	if err != nil {
		return nil, err
	}

	recipient, err := u.userRepo.GetByKaiapayID(ctx, input.KaiapayID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("kaiapay id not found")
		}
		return nil, err
	}

	sender, err := smartWallet(ctx, u.identity, userID)
	if err != nil {
		return nil, err
	}
	recipientWallet, err := smartWallet(ctx, u.identity, recipient.ID)
	if err != nil {
		return nil, err
	}

	record := &entities.Transaction{
		FromAddress:    sender,
		ToAddress:      recipientWallet,
		Token:          token,
		Amount:         amount,
		SenderAlias:    u.aliasOf(ctx, userID),
		RecipientAlias: recipient.KaiapayID,
		Kind:           entities.TransactionKindSendToUser,
		Method:         entities.TransactionMethodKaiapayID,
		Status:         entities.TransactionStatusPending,
	}
	if err := u.txRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return &entities.TransferResult{TransactionID: record.ID, PublicAddress: recipientWallet}, nil
}

// TransferWithExternalAddress records a pending withdraw to any wallet
func (u *TransactionUsecase) TransferWithExternalAddress(ctx context.Context, userID string, input *entities.TransferWithExternalAddressInput) (*entities.TransferResult, error) {
	amount, token, err := validateTransfer(input.Amount, input.Token)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(input.Address) {
		return nil, domainerrors.BadRequest("invalid address")
	}

	sender, err := smartWallet(ctx, u.identity, userID)
	if err != nil {
		return nil, err
	}

	record := &entities.Transaction{
		FromAddress: sender,
		ToAddress:   common.HexToAddress(input.Address).Hex(),
		Token:       token,
		Amount:      amount,
		SenderAlias: u.aliasOf(ctx, userID),
		Kind:        entities.TransactionKindWithdraw,
		Method:      entities.TransactionMethodWallet,
		Status:      entities.TransactionStatusPending,
	}
	if err := u.txRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return &entities.TransferResult{TransactionID: record.ID}, nil
}

// List returns the caller's records, newest first, and how many touched the wallet today
func (u *TransactionUsecase) List(ctx context.Context, userID string, limit int) (*entities.TransactionList, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	wallet, err := smartWallet(ctx, u.identity, userID)
	if err != nil {
		return nil, err
	}

	records, err := u.txRepo.ListByAddress(ctx, wallet, limit)
	if err != nil {
		return nil, err
	}
	today, err := u.txRepo.CountByAddressSince(ctx, wallet, utils.StartOfDay(now()))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*entities.Transaction{}
	}
	return &entities.TransactionList{Transactions: records, TodayCount: today}, nil
}

// GetByToAddress returns the latest record sent to a holding address
func (u *TransactionUsecase) GetByToAddress(ctx context.Context, address string) (*entities.Transaction, error) {
	if !common.IsHexAddress(address) {
		return nil, domainerrors.BadRequest("invalid address")
	}
	record, err := u.txRepo.GetLatestByToAddress(ctx, address)
	if err != nil {
		return nil, notFoundAsTransaction(err)
	}
	return record, nil
}

// GetPublicByToAddress is GetByToAddress reduced to display fields
func (u *TransactionUsecase) GetPublicByToAddress(ctx context.Context, address string) (*entities.PublicTransaction, error) {
	record, err := u.GetByToAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	return record.Public(), nil
}

// aliasOf returns the caller's handle, or null when none is set
func (u *TransactionUsecase) aliasOf(ctx context.Context, userID string) null.String {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "sender alias lookup failed", zap.String("userId", userID), zap.Error(err))
		}
		return null.String{}
	}
	return user.KaiapayID
}

func validateTransfer(amount, token string) (string, string, error) {
	canonical, err := entities.CanonicalAmount(amount)
	if err != nil {
		return "", "", domainerrors.BadRequest(err.Error())
	}
	if canonical == "0" {
		return "", "", domainerrors.BadRequest("amount must be positive")
	}
	token = strings.TrimSpace(token)
	if !common.IsHexAddress(token) {
		return "", "", domainerrors.BadRequest("invalid token address")
	}
	return canonical, common.HexToAddress(token).Hex(), nil
}
