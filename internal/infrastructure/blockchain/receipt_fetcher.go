package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/metrics"
	"kaiapay.backend/pkg/retry"
)

// ReceiptSource is the single RPC call wrapped by ReceiptFetcher
type ReceiptSource interface {
	GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
}

// ReceiptFetcher fetches receipts with fixed-delay retries
type ReceiptFetcher struct {
	source  ReceiptSource
	options []retry.Option
}

// NewReceiptFetcher creates a fetcher doing at most attempts calls, delay apart
func NewReceiptFetcher(source ReceiptSource, attempts int, delay time.Duration, opts ...retry.Option) *ReceiptFetcher {
	options := append([]retry.Option{
		retry.WithMaxAttempts(attempts),
		retry.WithDelay(delay),
	}, opts...)
	return &ReceiptFetcher{source: source, options: options}
}

// Fetch returns the receipt of txHash. Exhausted retries wrap ErrReceiptUnavailable.
func (f *ReceiptFetcher) Fetch(ctx context.Context, txHash string) (*types.Receipt, error) {
	res := retry.Do(ctx, func(ctx context.Context) (*types.Receipt, error) {
		return f.source.GetTransactionReceipt(ctx, txHash)
	}, f.options...)

	outcome := metrics.OutcomeSuccess
	if res.Err != nil {
		outcome = metrics.OutcomeFailure
	}
	metrics.ReceiptFetchAttempts.WithLabelValues(outcome).Observe(float64(res.Attempts))

	if res.Err != nil {
		return nil, fmt.Errorf("%w: %s after %d attempts: %v",
			domainerrors.ErrReceiptUnavailable, txHash, res.Attempts, res.Err)
	}
	if res.Value == nil {
		return nil, fmt.Errorf("%w: %s: empty receipt", domainerrors.ErrReceiptUnavailable, txHash)
	}
	return res.Value, nil
}
