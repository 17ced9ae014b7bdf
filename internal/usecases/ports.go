package usecases

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"kaiapay.backend/internal/domain/entities"
	"kaiapay.backend/internal/infrastructure/blockchain"
)

// ReceiptFetcher loads a receipt, retrying transient RPC failures
type ReceiptFetcher interface {
	Fetch(ctx context.Context, txHash string) (*types.Receipt, error)
}

// EventExtractor finds a contract event in a receipt
type EventExtractor interface {
	Extract(receipt *types.Receipt, eventName string) (*blockchain.TokenEvent, error)
}

// IdentityProvider resolves identity-provider users
type IdentityProvider interface {
	GetUser(ctx context.Context, userID string) (*entities.IdentityUser, error)
}

// PotReader reads the savings pot of an address
type PotReader interface {
	GetPot(ctx context.Context, user, token common.Address) (*blockchain.Pot, error)
}

// FeePayer co-signs sender-signed fee delegated transactions
type FeePayer interface {
	Address() common.Address
	Sign(userSignedTx string) ([]byte, error)
}

// ChainClient is the node access needed for relaying and balances
type ChainClient interface {
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	SendRawTransaction(ctx context.Context, method string, raw []byte) (common.Hash, error)
}
