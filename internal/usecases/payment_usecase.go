package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/domain/repositories"
	"kaiapay.backend/pkg/logger"
	"kaiapay.backend/pkg/retry"
	"kaiapay.backend/pkg/utils"
)

var (
	errPaymentCodeTaken = errors.New("payment code already exists")

	generatePaymentCode = func() (string, error) {
		return utils.RandomCode(entities.PaymentCodeLength)
	}
)

// PaymentUsecase creates and resolves shareable payment requests
type PaymentUsecase struct {
	paymentRepo repositories.PaymentRepository
	uow         repositories.UnitOfWork
	identity    IdentityProvider
	linkBaseURL string
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	paymentRepo repositories.PaymentRepository,
	uow repositories.UnitOfWork,
	identity IdentityProvider,
	linkBaseURL string,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo: paymentRepo,
		uow:         uow,
		identity:    identity,
		linkBaseURL: linkBaseURL,
	}
}

// Create stores a payment under a fresh random code. Each attempt runs in its
// own unit of work so a unique violation never poisons the next one.
func (u *PaymentUsecase) Create(ctx context.Context, userID string, input *entities.CreatePaymentInput) (*entities.CreatePaymentResponse, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domainerrors.BadRequest("title is required")
	}

	payment := &entities.Payment{
		ReceiverUserID: userID,
		Title:          title,
	}
	if input.Amount != "" {
		amount, err := entities.CanonicalAmount(input.Amount)
		if err != nil {
			return nil, domainerrors.BadRequest(err.Error())
		}
		payment.Amount = null.StringFrom(amount)
	}
	if input.Currency != "" {
		switch input.Currency {
		case entities.PaymentCurrencyUSDT, entities.PaymentCurrencyKAIA:
			payment.Currency = null.StringFrom(string(input.Currency))
		default:
			return nil, domainerrors.BadRequest("currency must be USDT or KAIA")
		}
	}

	result := retry.Do(ctx, func(ctx context.Context) (string, error) {
		code, err := generatePaymentCode()
		if err != nil {
			return "", err
		}
		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			exists, err := u.paymentRepo.ExistsByCode(txCtx, code)
			if err != nil {
				return err
			}
			if exists {
				return errPaymentCodeTaken
			}
			payment.Code = code
			return u.paymentRepo.Create(txCtx, payment)
		})
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			err = errPaymentCodeTaken
		}
		return code, err
	},
		retry.WithMaxAttempts(paymentCodeAttempts),
		retry.WithDelay(0),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, errPaymentCodeTaken) }),
	)
	if !result.OK() {
		logger.Error(ctx, "payment creation failed",
			zap.Int("attempts", result.Attempts),
			zap.Error(result.Err),
		)
		return nil, fmt.Errorf("create payment: %w", result.Err)
	}

	return &entities.CreatePaymentResponse{
		URL:  strings.TrimRight(u.linkBaseURL, "/") + "/p/" + result.Value,
		Code: result.Value,
	}, nil
}

// GetByCode returns a payment and the receiver's smart wallet
func (u *PaymentUsecase) GetByCode(ctx context.Context, code string) (*entities.PaymentDetail, error) {
	payment, err := u.paymentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("payment not found")
		}
		return nil, err
	}

	wallet, err := smartWallet(ctx, u.identity, payment.ReceiverUserID)
	if err != nil {
		return nil, err
	}
	return &entities.PaymentDetail{Payment: payment, ReceiverAddress: wallet}, nil
}
