package blockchain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrClientClosed is returned when the node connection was never opened or already closed
var ErrClientClosed = errors.New("evm client not connected")

var (
	dialRPC          = rpc.DialContext
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

// EVMClient talks to the Kaia node over its Ethereum compatible JSON-RPC
type EVMClient struct {
	client  *ethclient.Client
	rpc     *rpc.Client
	chainID *big.Int
	rpcURL  string
	// testCallView allows deterministic unit tests without network sockets.
	testCallView func(ctx context.Context, to string, data []byte) ([]byte, error)
}

// NewEVMClient dials rpcURL and caches the chain id
func NewEVMClient(ctx context.Context, rpcURL string) (*EVMClient, error) {
	rpcClient, err := dialRPC(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	client := ethclient.NewClient(rpcClient)

	chainID, err := getClientChainID(client, ctx)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &EVMClient{
		client:  client,
		rpc:     rpcClient,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// NewEVMClientWithCallView creates an EVM client that uses an injected CallView implementation.
// Everything else reports ErrClientClosed.
func NewEVMClientWithCallView(chainID *big.Int, callViewFn func(ctx context.Context, to string, data []byte) ([]byte, error)) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:      chainID,
		testCallView: callViewFn,
	}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetBalance gets the native token balance of an address
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if c.client == nil {
		return nil, ErrClientClosed
	}
	return c.client.BalanceAt(ctx, common.HexToAddress(address), nil)
}

// GetTransactionReceipt gets transaction receipt; ethereum.NotFound while the tx is unmined
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if c.client == nil {
		return nil, ErrClientClosed
	}
	return c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
}

// CallView executes a read-only contract call
func (c *EVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	if c.testCallView != nil {
		return c.testCallView(ctx, to, data)
	}
	if c.client == nil {
		return nil, ErrClientClosed
	}
	addr := common.HexToAddress(to)
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	return c.client.CallContract(ctx, msg, nil)
}

// SendRawTransaction broadcasts a signed transaction through method
// (kaia_sendRawTransaction for fee delegated types).
func (c *EVMClient) SendRawTransaction(ctx context.Context, method string, raw []byte) (common.Hash, error) {
	if c.rpc == nil {
		return common.Hash{}, ErrClientClosed
	}
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, method, hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
