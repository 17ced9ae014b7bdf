package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/metrics"
	"kaiapay.backend/pkg/logger"
	"kaiapay.backend/pkg/retry"
	"kaiapay.backend/pkg/utils"
)

// DefaultRelayMethod is the node method that accepts fee delegated raw transactions
const DefaultRelayMethod = "klay_sendRawTransaction"

// RelayConfig tunes broadcasting
type RelayConfig struct {
	Method   string
	Attempts int
	Delay    time.Duration
	// Extra addresses whose balance is reported next to the fee payer
	WatchAddresses []string
}

// FeeDelegationUsecase co-signs and broadcasts user transactions as fee payer
type FeeDelegationUsecase struct {
	feePayer FeePayer
	chain    ChainClient
	cfg      RelayConfig
}

// NewFeeDelegationUsecase creates a new fee delegation usecase
func NewFeeDelegationUsecase(feePayer FeePayer, chain ChainClient, cfg RelayConfig) *FeeDelegationUsecase {
	if cfg.Method == "" {
		cfg.Method = DefaultRelayMethod
	}
	return &FeeDelegationUsecase{feePayer: feePayer, chain: chain, cfg: cfg}
}

// Relay signs userSignedTx as fee payer and submits it, retrying node failures
func (u *FeeDelegationUsecase) Relay(ctx context.Context, userSignedTx string) (*entities.RelayResult, error) {
	userSignedTx = strings.TrimSpace(userSignedTx)
	if userSignedTx == "" {
		return nil, domainerrors.BadRequest("userSignedTx is required")
	}

	signed, err := u.feePayer.Sign(userSignedTx)
	if err != nil {
		metrics.RelayTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidInput, err)
	}

	result := retry.Do(ctx, func(ctx context.Context) (common.Hash, error) {
		return u.chain.SendRawTransaction(ctx, u.cfg.Method, signed)
	},
		retry.WithMaxAttempts(u.cfg.Attempts),
		retry.WithDelay(u.cfg.Delay),
	)

	if !result.OK() {
		metrics.RelayTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		logger.Error(ctx, "fee delegated relay failed",
			zap.Int("attempts", result.Attempts),
			zap.Error(result.Err),
		)
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrRelayFailed, result.Err)
	}

	metrics.RelayTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	logger.Info(ctx, "fee delegated relay submitted",
		zap.String("hash", result.Value.Hex()),
		zap.Int("attempts", result.Attempts),
	)
	return &entities.RelayResult{Hash: result.Value.Hex()}, nil
}

// Balances reports the native balance of the fee payer and watched accounts
func (u *FeeDelegationUsecase) Balances(ctx context.Context) ([]entities.FeePayerBalance, error) {
	addresses := []string{u.feePayer.Address().Hex()}
	for _, a := range u.cfg.WatchAddresses {
		if common.IsHexAddress(a) && !sameHexAddress(addresses[0], a) {
			addresses = append(addresses, common.HexToAddress(a).Hex())
		}
	}

	balances := make([]entities.FeePayerBalance, 0, len(addresses))
	for _, addr := range addresses {
		wei, err := u.chain.GetBalance(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", addr, err)
		}
		balances = append(balances, entities.FeePayerBalance{
			Address: addr,
			Balance: utils.FormatUnits(wei, NativeDecimals),
			Raw:     wei.String(),
		})
	}
	return balances, nil
}
