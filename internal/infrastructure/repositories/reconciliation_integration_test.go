package repositories

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/infrastructure/blockchain"
	"kaiapay.backend/internal/usecases"
)

const (
	settleFrom  = "0x1111111111111111111111111111111111111111"
	settleTo    = "0x2222222222222222222222222222222222222222"
	settleToken = "0x00000000000000000000000000000000000000aa"
)

var settleHash = "0x" + strings.Repeat("cd", 32)

type fixedReceipts struct{}

func (fixedReceipts) Fetch(ctx context.Context, txHash string) (*types.Receipt, error) {
	return &types.Receipt{TxHash: common.HexToHash(txHash), Status: types.ReceiptStatusSuccessful}, nil
}

type fixedEvent struct {
	event *blockchain.TokenEvent
}

func (f fixedEvent) Extract(*types.Receipt, string) (*blockchain.TokenEvent, error) {
	return f.event, nil
}

func transferEvent(amount int64) *blockchain.TokenEvent {
	return &blockchain.TokenEvent{
		From:   common.HexToAddress(settleFrom),
		To:     common.HexToAddress(settleTo),
		Token:  common.HexToAddress(settleToken),
		Amount: big.NewInt(amount),
	}
}

func newSettlementFixture(t *testing.T, event *blockchain.TokenEvent) (*usecases.ReconciliationUsecase, *TransactionRepository, *entities.Transaction) {
	t.Helper()
	db := newTestDB(t)
	createTransactionTable(t, db)

	// one connection so concurrent units of work queue on Begin like row locks would
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewTransactionRepository(db)
	record := &entities.Transaction{
		FromAddress: settleFrom,
		ToAddress:   settleTo,
		Token:       settleToken,
		Amount:      "1000",
		Kind:        entities.TransactionKindSendToUser,
		Method:      entities.TransactionMethodKaiapayID,
		Status:      entities.TransactionStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), record))

	uc := usecases.NewReconciliationUsecase(fixedReceipts{}, fixedEvent{event: event}, repo, NewUnitOfWork(db), nil)
	return uc, repo, record
}

func TestConfirmTransfer_ConcurrentCallsSettleOnce(t *testing.T) {
	uc, repo, record := newSettlementFixture(t, transferEvent(1000))

	const callers = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = uc.ConfirmTransfer(context.Background(), record.ID, settleHash)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, settled int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domainerrors.ErrAlreadySettled):
			settled++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, callers-1, settled)

	got, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, entities.TransactionStatusSuccess, got.Status)
	require.Equal(t, settleHash, got.TxHash.String)
}

func TestConfirmTransfer_MismatchCommitsFailed(t *testing.T) {
	uc, repo, record := newSettlementFixture(t, transferEvent(999))

	_, err := uc.ConfirmTransfer(context.Background(), record.ID, settleHash)
	require.ErrorIs(t, err, domainerrors.ErrAmountMismatch)

	got, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, entities.TransactionStatusFailed, got.Status)
	require.Equal(t, settleHash, got.TxHash.String)

	_, err = uc.ConfirmTransfer(context.Background(), record.ID, settleHash)
	require.ErrorIs(t, err, domainerrors.ErrAlreadySettled)
}

func TestTransitionStatus_DuplicateHashIsConflict(t *testing.T) {
	_, repo, record := newSettlementFixture(t, nil)
	ctx := context.Background()

	other := *record
	other.ID = uuid.Nil
	other.TxHash.SetValid(settleHash)
	require.NoError(t, repo.Create(ctx, &other))

	err := repo.TransitionStatus(ctx, record.ID, entities.TransactionStatusPending, entities.TransactionStatusSuccess,
		entities.TransactionUpdate{TxHash: other.TxHash})
	require.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}
