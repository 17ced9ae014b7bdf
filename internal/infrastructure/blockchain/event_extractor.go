package blockchain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	domainerrors "kaiapay.backend/internal/domain/errors"
)

// TokenEvent is a decoded TokenTransferred, TokenDeposited or TokenWithdrawn log
type TokenEvent struct {
	From     common.Address
	To       common.Address
	Token    common.Address
	Amount   *big.Int
	LogIndex uint
}

// EventExtractor decodes KaiaPay events out of receipts
type EventExtractor struct {
	abi      abi.ABI
	contract common.Address
}

// NewEventExtractor builds an extractor; a zero contract accepts logs from any emitter
func NewEventExtractor(contract common.Address) *EventExtractor {
	return &EventExtractor{abi: kaiaPayABI, contract: contract}
}

// Extract returns the first log in receipt order that is eventName, or nil when none is.
// A log that matches the event signature but does not decode is an error.
func (e *EventExtractor) Extract(receipt *types.Receipt, eventName string) (*TokenEvent, error) {
	event, ok := e.abi.Events[eventName]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", eventName)
	}
	if receipt == nil {
		return nil, nil
	}

	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		if e.contract != (common.Address{}) && log.Address != e.contract {
			continue
		}
		decoded, err := e.decode(event, log)
		if err != nil {
			return nil, fmt.Errorf("%w: %s log %d: %v", domainerrors.ErrEventDecode, eventName, log.Index, err)
		}
		return decoded, nil
	}
	return nil, nil
}

func (e *EventExtractor) decode(event abi.Event, log *types.Log) (*TokenEvent, error) {
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(log.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("expected %d indexed topics, got %d", len(indexed), len(log.Topics)-1)
	}
	nonIndexed := event.Inputs.NonIndexed()
	if len(log.Data) != 32*len(nonIndexed) {
		return nil, fmt.Errorf("expected %d bytes of data, got %d", 32*len(nonIndexed), len(log.Data))
	}

	topics := make(map[string]interface{})
	if err := abi.ParseTopicsIntoMap(topics, indexed, log.Topics[1:]); err != nil {
		return nil, err
	}
	for _, topic := range log.Topics[1:] {
		if !isAddressWord(topic.Bytes()) {
			return nil, fmt.Errorf("topic %s is not an address", topic.Hex())
		}
	}

	values, err := nonIndexed.Unpack(log.Data)
	if err != nil {
		return nil, err
	}
	if !isAddressWord(log.Data[:32]) {
		return nil, fmt.Errorf("token word is not an address")
	}

	from, okFrom := topics["from"].(common.Address)
	to, okTo := topics["to"].(common.Address)
	token, okToken := values[0].(common.Address)
	amount, okAmount := values[1].(*big.Int)
	if !okFrom || !okTo || !okToken || !okAmount {
		return nil, fmt.Errorf("unexpected argument types")
	}

	return &TokenEvent{
		From:     from,
		To:       to,
		Token:    token,
		Amount:   amount,
		LogIndex: log.Index,
	}, nil
}

// isAddressWord reports whether a 32-byte word is a left padded address
func isAddressWord(word []byte) bool {
	if len(word) != 32 {
		return false
	}
	for _, b := range word[:12] {
		if b != 0 {
			return false
		}
	}
	return true
}
