package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ViewCaller executes read-only contract calls
type ViewCaller interface {
	CallView(ctx context.Context, to string, data []byte) ([]byte, error)
}

// Pot is the savings pot state of one user for one token
type Pot struct {
	Balance  *big.Int
	Deadline *big.Int
	Owner    common.Address
}

// PotReader reads getPot from the pot contract
type PotReader struct {
	caller   ViewCaller
	contract common.Address
}

// NewPotReader creates a reader for the given contract
func NewPotReader(caller ViewCaller, contract common.Address) *PotReader {
	return &PotReader{caller: caller, contract: contract}
}

// GetPot calls getPot(user, token)
func (r *PotReader) GetPot(ctx context.Context, user, token common.Address) (*Pot, error) {
	data, err := kaiaPayABI.Pack(methodGetPot, user, token)
	if err != nil {
		return nil, fmt.Errorf("pack getPot: %w", err)
	}
	out, err := r.caller.CallView(ctx, r.contract.Hex(), data)
	if err != nil {
		return nil, fmt.Errorf("call getPot: %w", err)
	}
	values, err := kaiaPayABI.Unpack(methodGetPot, out)
	if err != nil {
		return nil, fmt.Errorf("unpack getPot: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unpack getPot: expected 3 values, got %d", len(values))
	}
	balance, ok1 := values[0].(*big.Int)
	deadline, ok2 := values[1].(*big.Int)
	owner, ok3 := values[2].(common.Address)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("unpack getPot: unexpected types")
	}
	return &Pot{Balance: balance, Deadline: deadline, Owner: owner}, nil
}
