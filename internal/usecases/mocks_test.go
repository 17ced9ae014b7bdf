package usecases_test

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/volatiletech/null/v8"
	"kaiapay.backend/internal/domain/entities"
	"kaiapay.backend/internal/infrastructure/blockchain"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	return ctx
}

// Mock TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	if args.Error(0) == nil && tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockTransactionRepository) CreateIgnoreDuplicate(ctx context.Context, tx *entities.Transaction) (bool, error) {
	args := m.Called(ctx, tx)
	if args.Bool(0) && tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.Transaction, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetLatestByToAddress(ctx context.Context, address string) (*entities.Transaction, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetClaimableByToAddress(ctx context.Context, address string) (*entities.Transaction, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByAddressSince(ctx context.Context, address string, since time.Time) (int64, error) {
	args := m.Called(ctx, address, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entities.TransactionStatus, update entities.TransactionUpdate) error {
	args := m.Called(ctx, id, from, to, update)
	return args.Error(0)
}

func (m *MockTransactionRepository) ReleaseLink(ctx context.Context, id uuid.UUID, cancelTxHash null.String) error {
	args := m.Called(ctx, id, cancelTxHash)
	return args.Error(0)
}

func (m *MockTransactionRepository) ExpirePendingBefore(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// Mock PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByCode(ctx context.Context, code string) (*entities.Payment, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByKaiapayID(ctx context.Context, kaiapayID string) (*entities.User, error) {
	args := m.Called(ctx, kaiapayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) UpsertKaiapayID(ctx context.Context, id, kaiapayID string) (*entities.User, error) {
	args := m.Called(ctx, id, kaiapayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// Mock IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) GetUser(ctx context.Context, userID string) (*entities.IdentityUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.IdentityUser), args.Error(1)
}

// Mock ReceiptFetcher
type MockReceiptFetcher struct {
	mock.Mock
}

func (m *MockReceiptFetcher) Fetch(ctx context.Context, txHash string) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

// Mock EventExtractor
type MockEventExtractor struct {
	mock.Mock
}

func (m *MockEventExtractor) Extract(receipt *types.Receipt, eventName string) (*blockchain.TokenEvent, error) {
	args := m.Called(receipt, eventName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blockchain.TokenEvent), args.Error(1)
}

// Mock PotReader
type MockPotReader struct {
	mock.Mock
}

func (m *MockPotReader) GetPot(ctx context.Context, user, token common.Address) (*blockchain.Pot, error) {
	args := m.Called(ctx, user, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blockchain.Pot), args.Error(1)
}

// Mock FeePayer
type MockFeePayer struct {
	mock.Mock
}

func (m *MockFeePayer) Address() common.Address {
	return m.Called().Get(0).(common.Address)
}

func (m *MockFeePayer) Sign(userSignedTx string) ([]byte, error) {
	args := m.Called(userSignedTx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Mock ChainClient
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainClient) SendRawTransaction(ctx context.Context, method string, raw []byte) (common.Hash, error) {
	args := m.Called(ctx, method, raw)
	return args.Get(0).(common.Hash), args.Error(1)
}
