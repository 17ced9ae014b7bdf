package usecases_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/usecases"
)

func codeSequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestPaymentUsecase_Create(t *testing.T) {
	defer usecases.SetPaymentCodeGenerator(codeSequence("AbC123xYz0"))()

	paymentRepo := new(MockPaymentRepository)
	uow := new(MockUnitOfWork)
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uc := usecases.NewPaymentUsecase(paymentRepo, uow, new(MockIdentityProvider), "https://kaiapay.app/")

	paymentRepo.On("ExistsByCode", mock.Anything, "AbC123xYz0").Return(false, nil)
	paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.Payment) bool {
		return p.Code == "AbC123xYz0" &&
			p.ReceiverUserID == "alice" &&
			p.Title == "Coffee" &&
			p.Amount == null.StringFrom("2500000") &&
			p.Currency == null.StringFrom("USDT")
	})).Return(nil)

	res, err := uc.Create(context.Background(), "alice", &entities.CreatePaymentInput{
		Title: " Coffee ", Amount: "2500000", Currency: entities.PaymentCurrencyUSDT,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://kaiapay.app/p/AbC123xYz0", res.URL)
	assert.Equal(t, "AbC123xYz0", res.Code)
	paymentRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Create_RegeneratesOnCollision(t *testing.T) {
	defer usecases.SetPaymentCodeGenerator(codeSequence("TAKEN00001", "RACED00002", "FRESH00003"))()

	paymentRepo := new(MockPaymentRepository)
	uow := new(MockUnitOfWork)
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uc := usecases.NewPaymentUsecase(paymentRepo, uow, new(MockIdentityProvider), "https://kaiapay.app")

	paymentRepo.On("ExistsByCode", mock.Anything, "TAKEN00001").Return(true, nil)
	paymentRepo.On("ExistsByCode", mock.Anything, "RACED00002").Return(false, nil)
	paymentRepo.On("ExistsByCode", mock.Anything, "FRESH00003").Return(false, nil)
	paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.Payment) bool { return p.Code == "RACED00002" })).
		Return(domainerrors.ErrAlreadyExists)
	paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.Payment) bool { return p.Code == "FRESH00003" })).
		Return(nil)

	res, err := uc.Create(context.Background(), "alice", &entities.CreatePaymentInput{Title: "Lunch"})
	require.NoError(t, err)
	assert.Equal(t, "FRESH00003", res.Code)
	uow.AssertNumberOfCalls(t, "Do", 3)
}

func TestPaymentUsecase_Create_Errors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		uc := usecases.NewPaymentUsecase(new(MockPaymentRepository), new(MockUnitOfWork), new(MockIdentityProvider), "")
		for _, in := range []entities.CreatePaymentInput{
			{Title: "  "},
			{Title: "x", Amount: "1.5"},
			{Title: "x", Currency: "BTC"},
		} {
			_, err := uc.Create(context.Background(), "alice", &in)
			assert.Equal(t, http.StatusBadRequest, domainerrors.FromError(err).Status)
		}
	})

	t.Run("database failure is not retried", func(t *testing.T) {
		defer usecases.SetPaymentCodeGenerator(codeSequence("AAAAAAAAAA"))()
		paymentRepo := new(MockPaymentRepository)
		uow := new(MockUnitOfWork)
		uow.On("Do", mock.Anything, mock.Anything).Return(nil)
		uc := usecases.NewPaymentUsecase(paymentRepo, uow, new(MockIdentityProvider), "")
		paymentRepo.On("ExistsByCode", mock.Anything, "AAAAAAAAAA").Return(false, errors.New("db down"))

		_, err := uc.Create(context.Background(), "alice", &entities.CreatePaymentInput{Title: "x"})
		assert.ErrorContains(t, err, "db down")
		uow.AssertNumberOfCalls(t, "Do", 1)
	})

	t.Run("every code taken", func(t *testing.T) {
		defer usecases.SetPaymentCodeGenerator(codeSequence("TAKEN00001"))()
		paymentRepo := new(MockPaymentRepository)
		uow := new(MockUnitOfWork)
		uow.On("Do", mock.Anything, mock.Anything).Return(nil)
		uc := usecases.NewPaymentUsecase(paymentRepo, uow, new(MockIdentityProvider), "")
		paymentRepo.On("ExistsByCode", mock.Anything, "TAKEN00001").Return(true, nil)

		_, err := uc.Create(context.Background(), "alice", &entities.CreatePaymentInput{Title: "x"})
		assert.Error(t, err)
		uow.AssertNumberOfCalls(t, "Do", 5)
	})
}

func TestPaymentUsecase_GetByCode(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	identity := new(MockIdentityProvider)
	uc := usecases.NewPaymentUsecase(paymentRepo, new(MockUnitOfWork), identity, "")

	payment := &entities.Payment{Code: "AbC123xYz0", ReceiverUserID: "bob", Title: "Rent"}
	paymentRepo.On("GetByCode", mock.Anything, "AbC123xYz0").Return(payment, nil)
	paymentRepo.On("GetByCode", mock.Anything, "missing").Return(nil, domainerrors.ErrNotFound)
	identity.On("GetUser", mock.Anything, "bob").Return(&entities.IdentityUser{ID: "bob", SmartWalletAddress: recipientAddr}, nil)

	detail, err := uc.GetByCode(context.Background(), "AbC123xYz0")
	require.NoError(t, err)
	assert.Equal(t, recipientAddr, detail.ReceiverAddress)
	assert.Equal(t, "Rent", detail.Title)

	_, err = uc.GetByCode(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, domainerrors.FromError(err).Status)
}
