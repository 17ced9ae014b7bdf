package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/domain/repositories"
	"kaiapay.backend/internal/infrastructure/blockchain"
	"kaiapay.backend/internal/metrics"
	"kaiapay.backend/pkg/logger"
)

// ReconciliationUsecase settles pending records against on-chain receipts
type ReconciliationUsecase struct {
	fetcher   ReceiptFetcher
	extractor EventExtractor
	txRepo    repositories.TransactionRepository
	uow       repositories.UnitOfWork
	identity  IdentityProvider
}

// NewReconciliationUsecase creates a new reconciliation usecase
func NewReconciliationUsecase(
	fetcher ReceiptFetcher,
	extractor EventExtractor,
	txRepo repositories.TransactionRepository,
	uow repositories.UnitOfWork,
	identity IdentityProvider,
) *ReconciliationUsecase {
	return &ReconciliationUsecase{
		fetcher:   fetcher,
		extractor: extractor,
		txRepo:    txRepo,
		uow:       uow,
		identity:  identity,
	}
}

// ConfirmTransfer settles a pending transfer with a TokenTransferred event
func (u *ReconciliationUsecase) ConfirmTransfer(ctx context.Context, transactionID uuid.UUID, txHash string) (*entities.Transaction, error) {
	return u.confirm(ctx, reconcileTransfer, EventTokenTransferred, transactionID, txHash)
}

// ConfirmWithdraw settles a pending withdraw with a TokenWithdrawn event
func (u *ReconciliationUsecase) ConfirmWithdraw(ctx context.Context, transactionID uuid.UUID, txHash string) (*entities.Transaction, error) {
	return u.confirm(ctx, reconcileWithdraw, EventTokenWithdrawn, transactionID, txHash)
}

// confirm fetches the receipt and event outside the database transaction, then
// locks the record and writes either success or failed in one unit of work.
// A mismatch is committed as failed before the mismatch error is returned.
func (u *ReconciliationUsecase) confirm(ctx context.Context, kind, eventName string, transactionID uuid.UUID, txHash string) (*entities.Transaction, error) {
	txHash, err := normalizeTxHash(txHash)
	if err != nil {
		return nil, err
	}

	event, err := u.loadEvent(ctx, txHash, eventName)
	if err != nil {
		u.observe(ctx, kind, metrics.OutcomeFailure, transactionID, txHash, err)
		return nil, err
	}

	var (
		settled  *entities.Transaction
		mismatch error
	)
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		record, err := u.lockPending(txCtx, transactionID)
		if err != nil {
			return err
		}
		if err := u.ensureHashUnbound(txCtx, txHash, record.ID); err != nil {
			return err
		}

		mismatch = compareEvent(record, event)
		next := entities.TransactionStatusSuccess
		if mismatch != nil {
			next = entities.TransactionStatusFailed
		}

		update := entities.TransactionUpdate{TxHash: null.StringFrom(txHash)}
		if err := u.txRepo.TransitionStatus(txCtx, record.ID, entities.TransactionStatusPending, next, update); err != nil {
			return translateSettleError(err)
		}
		record.Status = next
		record.TxHash = update.TxHash
		settled = record
		return nil
	})
	if err != nil {
		u.observe(ctx, kind, metrics.OutcomeFailure, transactionID, txHash, err)
		return nil, err
	}
	if mismatch != nil {
		u.observe(ctx, kind, outcomeMismatch, transactionID, txHash, mismatch)
		return nil, mismatch
	}

	u.observe(ctx, kind, metrics.OutcomeSuccess, transactionID, txHash, nil)
	return settled, nil
}

// Deposit records an inbound TokenDeposited event. Delivering the same hash
// twice returns the existing record with created=false.
func (u *ReconciliationUsecase) Deposit(ctx context.Context, txHash string) (*entities.Transaction, bool, error) {
	txHash, err := normalizeTxHash(txHash)
	if err != nil {
		return nil, false, err
	}

	event, err := u.loadEvent(ctx, txHash, EventTokenDeposited)
	if err != nil {
		u.observe(ctx, reconcileDeposit, metrics.OutcomeFailure, uuid.Nil, txHash, err)
		return nil, false, err
	}

	record := &entities.Transaction{
		FromAddress: event.From.Hex(),
		ToAddress:   event.To.Hex(),
		Token:       event.Token.Hex(),
		Amount:      event.Amount.String(),
		Kind:        entities.TransactionKindDeposit,
		Method:      entities.TransactionMethodWallet,
		Status:      entities.TransactionStatusSuccess,
		TxHash:      null.StringFrom(txHash),
	}

	var created bool
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		inserted, err := u.txRepo.CreateIgnoreDuplicate(txCtx, record)
		if err != nil {
			return err
		}
		created = inserted
		if inserted {
			return nil
		}
		existing, err := u.txRepo.GetByTxHash(txCtx, txHash)
		if err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		u.observe(ctx, reconcileDeposit, metrics.OutcomeFailure, uuid.Nil, txHash, err)
		return nil, false, err
	}

	outcome := metrics.OutcomeSuccess
	if !created {
		outcome = outcomeDuplicate
	}
	u.observe(ctx, reconcileDeposit, outcome, record.ID, txHash, nil)
	return record, created, nil
}

// ClaimLink settles the pickup of a link transfer by the caller. The prior
// record is found by id, or by its holding address when no id is given.
func (u *ReconciliationUsecase) ClaimLink(ctx context.Context, userID string, prevTransactionID *uuid.UUID, txHash string) (*entities.Transaction, error) {
	txHash, err := normalizeTxHash(txHash)
	if err != nil {
		return nil, err
	}

	wallet, err := smartWallet(ctx, u.identity, userID)
	if err != nil {
		return nil, err
	}

	event, err := u.loadEvent(ctx, txHash, EventTokenTransferred)
	if err != nil {
		u.observe(ctx, reconcileClaim, metrics.OutcomeFailure, uuid.Nil, txHash, err)
		return nil, err
	}

	var received *entities.Transaction
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		prior, err := u.lockClaimable(txCtx, prevTransactionID, event)
		if err != nil {
			return err
		}
		if err := u.ensureHashUnbound(txCtx, txHash, uuid.Nil); err != nil {
			return err
		}

		switch {
		case !sameAddress(prior.ToAddress, event.From):
			return domainerrors.ErrFromAddressMismatch
		case !sameAddress(wallet, event.To):
			return domainerrors.ErrToAddressMismatch
		case !sameAddress(prior.Token, event.Token):
			return domainerrors.ErrTokenMismatch
		}

		if err := u.txRepo.ReleaseLink(txCtx, prior.ID, null.String{}); err != nil {
			return err
		}

		received = &entities.Transaction{
			FromAddress: prior.ToAddress,
			ToAddress:   event.To.Hex(),
			Token:       prior.Token,
			Amount:      event.Amount.String(),
			SenderAlias: prior.SenderAlias,
			Kind:        entities.TransactionKindReceive,
			Method:      entities.TransactionMethodLink,
			Status:      entities.TransactionStatusSuccess,
			TxHash:      null.StringFrom(txHash),
		}
		if err := u.txRepo.Create(txCtx, received); err != nil {
			return translateSettleError(err)
		}
		return nil
	})
	if err != nil {
		u.observe(ctx, reconcileClaim, metrics.OutcomeFailure, uuid.Nil, txHash, err)
		return nil, err
	}

	u.observe(ctx, reconcileClaim, metrics.OutcomeSuccess, received.ID, txHash, nil)
	return received, nil
}

// ConfirmCancel records the sender reclaiming the funds of an unclaimed link
// transfer. An unfunded (pending) link becomes canceled; a funded one keeps its
// status and only loses can_cancel.
func (u *ReconciliationUsecase) ConfirmCancel(ctx context.Context, userID string, transactionID uuid.UUID, txHash string) (*entities.Transaction, error) {
	txHash, err := normalizeTxHash(txHash)
	if err != nil {
		return nil, err
	}

	wallet, err := smartWallet(ctx, u.identity, userID)
	if err != nil {
		return nil, err
	}

	event, err := u.loadEvent(ctx, txHash, EventTokenTransferred)
	if err != nil {
		u.observe(ctx, reconcileCancel, metrics.OutcomeFailure, transactionID, txHash, err)
		return nil, err
	}

	var record *entities.Transaction
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		record, err = u.txRepo.GetByIDForUpdate(u.uow.WithLock(txCtx), transactionID)
		if err != nil {
			return notFoundAsTransaction(err)
		}
		if !sameHexAddress(record.FromAddress, wallet) {
			return domainerrors.Forbidden("only the sender can cancel a link transfer")
		}
		if record.Kind != entities.TransactionKindSendToTemporal || !record.CanCancel {
			return domainerrors.ErrLinkNotClaimable
		}
		if err := u.ensureHashUnbound(txCtx, txHash, uuid.Nil); err != nil {
			return err
		}

		switch {
		case !sameAddress(record.ToAddress, event.From):
			return domainerrors.ErrFromAddressMismatch
		case !sameAddress(record.FromAddress, event.To):
			return domainerrors.ErrToAddressMismatch
		case !sameAddress(record.Token, event.Token):
			return domainerrors.ErrTokenMismatch
		}

		cancelHash := null.StringFrom(txHash)
		if record.Status == entities.TransactionStatusPending {
			update := entities.TransactionUpdate{CancelTxHash: cancelHash, CanCancel: null.BoolFrom(false)}
			if err := u.txRepo.TransitionStatus(txCtx, record.ID, entities.TransactionStatusPending, entities.TransactionStatusCanceled, update); err != nil {
				return translateSettleError(err)
			}
			record.Status = entities.TransactionStatusCanceled
		} else if err := u.txRepo.ReleaseLink(txCtx, record.ID, cancelHash); err != nil {
			return err
		}
		record.CanCancel = false
		record.CancelTxHash = cancelHash
		return nil
	})
	if err != nil {
		u.observe(ctx, reconcileCancel, metrics.OutcomeFailure, transactionID, txHash, err)
		return nil, err
	}

	u.observe(ctx, reconcileCancel, metrics.OutcomeSuccess, transactionID, txHash, nil)
	return record, nil
}

func (u *ReconciliationUsecase) loadEvent(ctx context.Context, txHash, eventName string) (*blockchain.TokenEvent, error) {
	receipt, err := u.fetcher.Fetch(ctx, txHash)
	if err != nil {
		return nil, err
	}
	event, err := u.extractor.Extract(receipt, eventName)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%s not found in %s: %w", eventName, txHash, domainerrors.ErrEventNotFound)
	}
	return event, nil
}

func (u *ReconciliationUsecase) lockPending(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	record, err := u.txRepo.GetByIDForUpdate(u.uow.WithLock(ctx), id)
	if err != nil {
		return nil, notFoundAsTransaction(err)
	}
	if record.Status != entities.TransactionStatusPending {
		return nil, fmt.Errorf("transaction %s is %s: %w", id, record.Status, domainerrors.ErrAlreadySettled)
	}
	return record, nil
}

func (u *ReconciliationUsecase) lockClaimable(ctx context.Context, id *uuid.UUID, event *blockchain.TokenEvent) (*entities.Transaction, error) {
	lockCtx := u.uow.WithLock(ctx)
	if id == nil {
		record, err := u.txRepo.GetClaimableByToAddress(lockCtx, event.From.Hex())
		if err != nil {
			return nil, notFoundAsTransaction(err)
		}
		return record, nil
	}

	record, err := u.txRepo.GetByIDForUpdate(lockCtx, *id)
	if err != nil {
		return nil, notFoundAsTransaction(err)
	}
	if record.Kind != entities.TransactionKindSendToTemporal || !record.CanCancel {
		return nil, domainerrors.ErrLinkNotClaimable
	}
	return record, nil
}

// ensureHashUnbound fails when txHash already settles a record other than owner
func (u *ReconciliationUsecase) ensureHashUnbound(ctx context.Context, txHash string, owner uuid.UUID) error {
	bound, err := u.txRepo.GetByTxHash(ctx, txHash)
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return nil
	case err != nil:
		return err
	case bound.ID != owner:
		return domainerrors.ErrTxHashAlreadyUsed
	}
	return nil
}

func (u *ReconciliationUsecase) observe(ctx context.Context, kind, outcome string, id uuid.UUID, txHash string, err error) {
	metrics.ReconciliationTotal.WithLabelValues(kind, outcome).Inc()

	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("outcome", outcome),
		zap.String("txHash", txHash),
	}
	if id != uuid.Nil {
		fields = append(fields, zap.String("transactionId", id.String()))
	}
	if err == nil {
		logger.Info(ctx, "reconciliation settled", fields...)
		return
	}
	logger.Warn(ctx, "reconciliation rejected", append(fields, zap.Error(err))...)
}

// compareEvent returns the first field of the event that disagrees with the record
func compareEvent(record *entities.Transaction, event *blockchain.TokenEvent) error {
	amount, err := entities.CanonicalAmount(record.Amount)
	if err != nil || event.Amount == nil || amount != event.Amount.String() {
		return domainerrors.ErrAmountMismatch
	}
	if !sameAddress(record.Token, event.Token) {
		return domainerrors.ErrTokenMismatch
	}
	if !sameAddress(record.FromAddress, event.From) {
		return domainerrors.ErrFromAddressMismatch
	}
	if !sameAddress(record.ToAddress, event.To) {
		return domainerrors.ErrToAddressMismatch
	}
	return nil
}

// translateSettleError maps write races onto the conflicts callers understand
func translateSettleError(err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrStatusConflict):
		return fmt.Errorf("%w: %w", domainerrors.ErrAlreadySettled, err)
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		return domainerrors.ErrTxHashAlreadyUsed
	}
	return err
}

func notFoundAsTransaction(err error) error {
	if errors.Is(err, domainerrors.ErrNotFound) {
		return domainerrors.NewAppError(http.StatusNotFound, domainerrors.CodeTransactionNotFound, "transaction not found", err)
	}
	return err
}
