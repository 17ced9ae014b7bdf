package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/interfaces/http/middleware"
	"kaiapay.backend/internal/interfaces/http/response"
	"kaiapay.backend/internal/usecases"
	"kaiapay.backend/pkg/utils"
)

// ReconciliationService settles client-reported transactions against the chain
type ReconciliationService interface {
	ConfirmTransfer(ctx context.Context, transactionID uuid.UUID, txHash string) (*entities.Transaction, error)
	ConfirmWithdraw(ctx context.Context, transactionID uuid.UUID, txHash string) (*entities.Transaction, error)
	Deposit(ctx context.Context, txHash string) (*entities.Transaction, bool, error)
	ClaimLink(ctx context.Context, userID string, prevTransactionID *uuid.UUID, txHash string) (*entities.Transaction, error)
	ConfirmCancel(ctx context.Context, userID string, transactionID uuid.UUID, txHash string) (*entities.Transaction, error)
}

// TransferService issues transfers and reads history
type TransferService interface {
	TransferWithLink(ctx context.Context, userID string, input *entities.TransferWithLinkInput) (*entities.TransferLink, error)
	TransferWithKaiapayID(ctx context.Context, userID string, input *entities.TransferWithKaiapayIDInput) (*entities.TransferResult, error)
	TransferWithExternalAddress(ctx context.Context, userID string, input *entities.TransferWithExternalAddressInput) (*entities.TransferResult, error)
	List(ctx context.Context, userID string, limit int) (*entities.TransactionList, error)
	GetByToAddress(ctx context.Context, address string) (*entities.Transaction, error)
	GetPublicByToAddress(ctx context.Context, address string) (*entities.PublicTransaction, error)
}

// TransactionHandler handles transaction endpoints
type TransactionHandler struct {
	reconciler ReconciliationService
	transfers  TransferService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(reconciler ReconciliationService, transfers TransferService) *TransactionHandler {
	return &TransactionHandler{reconciler: reconciler, transfers: transfers}
}

// Deposit records an inbound deposit
// POST /api/transaction/deposit
func (h *TransactionHandler) Deposit(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	var input entities.DepositInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	tx, created, err := h.reconciler.Deposit(c.Request.Context(), input.TxHash)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, tx)
}

// ConfirmTransfer settles a pending outgoing transfer
// POST /api/transaction/confirm-transfer
func (h *TransactionHandler) ConfirmTransfer(c *gin.Context) {
	h.confirm(c, h.reconciler.ConfirmTransfer)
}

// ConfirmWithdraw settles a pending withdraw
// POST /api/transaction/confirm-withdraw
func (h *TransactionHandler) ConfirmWithdraw(c *gin.Context) {
	h.confirm(c, h.reconciler.ConfirmWithdraw)
}

func (h *TransactionHandler) confirm(c *gin.Context, settle func(context.Context, uuid.UUID, string) (*entities.Transaction, error)) {
	if _, ok := requireUser(c); !ok {
		return
	}

	id, txHash, ok := bindConfirmInput(c)
	if !ok {
		return
	}

	tx, err := settle(c.Request.Context(), id, txHash)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tx)
}

// ConfirmCancel settles the sender's cancellation of a link transfer
// POST /api/transaction/confirm-cancel
func (h *TransactionHandler) ConfirmCancel(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	id, txHash, ok := bindConfirmInput(c)
	if !ok {
		return
	}

	tx, err := h.reconciler.ConfirmCancel(c.Request.Context(), userID, id, txHash)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tx)
}

// TransferFromLink settles the claim of a link transfer by the caller
// POST /api/transaction/transfer-from-link
func (h *TransactionHandler) TransferFromLink(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input entities.ClaimLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	var prevID *uuid.UUID
	if input.PrevTransactionID != "" {
		id, err := uuid.Parse(input.PrevTransactionID)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("invalid prevTransactionId"))
			return
		}
		prevID = &id
	}

	tx, err := h.reconciler.ClaimLink(c.Request.Context(), userID, prevID, input.TxHash)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, tx)
}

// TransferWithLink issues a link transfer
// POST /api/transaction/transfer-with-link
func (h *TransactionHandler) TransferWithLink(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input entities.TransferWithLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	link, err := h.transfers.TransferWithLink(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, link)
}

// TransferWithKaiapayID records a transfer to another user's handle
// POST /api/transaction/transfer-with-kaiapay-id
func (h *TransactionHandler) TransferWithKaiapayID(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input entities.TransferWithKaiapayIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.transfers.TransferWithKaiapayID(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// TransferWithExternalAddress records a withdraw to an arbitrary wallet
// POST /api/transaction/transfer-with-external-address
func (h *TransactionHandler) TransferWithExternalAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input entities.TransferWithExternalAddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.transfers.TransferWithExternalAddress(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// List returns the caller's history
// GET /api/transaction/list?limit=
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit := utils.ParseLimit(c.Query("limit"), usecases.DefaultListLimit, usecases.MaxListLimit)
	list, err := h.transfers.List(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// GetByToAddress returns the latest record sent to an address
// GET /api/transaction/to-address?address=
func (h *TransactionHandler) GetByToAddress(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	address := c.Query("address")
	if address == "" {
		response.Error(c, domainerrors.BadRequest("address is required"))
		return
	}

	tx, err := h.transfers.GetByToAddress(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tx)
}

// GetPublicByToAddress is GetByToAddress for link holders without an account
// GET /api/public/to-address?address=
func (h *TransactionHandler) GetPublicByToAddress(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		response.Error(c, domainerrors.BadRequest("address is required"))
		return
	}

	tx, err := h.transfers.GetPublicByToAddress(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tx)
}

func bindConfirmInput(c *gin.Context) (uuid.UUID, string, bool) {
	var input entities.ConfirmTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(input.TransactionID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid transactionId"))
		return uuid.Nil, "", false
	}
	return id, input.TxHash, true
}

func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("unauthorized"))
		return "", false
	}
	return userID, true
}
