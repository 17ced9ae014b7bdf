package blockchain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "kaiapay.backend/internal/domain/errors"
)

var (
	vaultAddr = common.HexToAddress("0x60f76BAdA29a44143Ee50460284028880d4aB736")
	usdtAddr  = common.HexToAddress("0xd077A400968890Eacc75cdc901F0356c943e4fDb")
	aliceAddr = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bobAddr   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func tokenLog(t *testing.T, eventName string, emitter, from, to, token common.Address, amount *big.Int, index uint) *types.Log {
	t.Helper()
	event := kaiaPayABI.Events[eventName]
	data, err := event.Inputs.NonIndexed().Pack(token, amount)
	require.NoError(t, err)
	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:  data,
		Index: index,
	}
}

func TestEventExtractor_FirstMatchInReceiptOrder(t *testing.T) {
	x := NewEventExtractor(vaultAddr)
	receipt := &types.Receipt{Logs: []*types.Log{
		{Address: usdtAddr, Topics: []common.Hash{common.HexToHash("0xddf252ad")}},
		tokenLog(t, EventTokenDeposited, vaultAddr, aliceAddr, bobAddr, usdtAddr, big.NewInt(1), 1),
		tokenLog(t, EventTokenTransferred, vaultAddr, aliceAddr, bobAddr, usdtAddr, big.NewInt(1000), 2),
		tokenLog(t, EventTokenTransferred, vaultAddr, bobAddr, aliceAddr, usdtAddr, big.NewInt(5), 3),
	}}

	ev, err := x.Extract(receipt, EventTokenTransferred)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, aliceAddr, ev.From)
	assert.Equal(t, bobAddr, ev.To)
	assert.Equal(t, usdtAddr, ev.Token)
	assert.Equal(t, "1000", ev.Amount.String())
	assert.Equal(t, uint(2), ev.LogIndex)

	dep, err := x.Extract(receipt, EventTokenDeposited)
	require.NoError(t, err)
	assert.Equal(t, uint(1), dep.LogIndex)
}

func TestEventExtractor_NoMatch(t *testing.T) {
	x := NewEventExtractor(vaultAddr)
	receipt := &types.Receipt{Logs: []*types.Log{
		tokenLog(t, EventTokenTransferred, vaultAddr, aliceAddr, bobAddr, usdtAddr, big.NewInt(1000), 0),
	}}

	ev, err := x.Extract(receipt, EventTokenWithdrawn)
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = x.Extract(nil, EventTokenWithdrawn)
	require.NoError(t, err)
	assert.Nil(t, ev)

	_, err = x.Extract(receipt, "Approval")
	require.Error(t, err)
}

func TestEventExtractor_ContractFilter(t *testing.T) {
	impostor := common.HexToAddress("0x000000000000000000000000000000000000dead")
	receipt := &types.Receipt{Logs: []*types.Log{
		tokenLog(t, EventTokenTransferred, impostor, aliceAddr, bobAddr, usdtAddr, big.NewInt(1), 0),
	}}

	ev, err := NewEventExtractor(vaultAddr).Extract(receipt, EventTokenTransferred)
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = NewEventExtractor(common.Address{}).Extract(receipt, EventTokenTransferred)
	require.NoError(t, err)
	require.NotNil(t, ev)
}

func TestEventExtractor_StrictDecode(t *testing.T) {
	x := NewEventExtractor(vaultAddr)

	truncated := tokenLog(t, EventTokenTransferred, vaultAddr, aliceAddr, bobAddr, usdtAddr, big.NewInt(1), 0)
	truncated.Data = truncated.Data[:32]
	_, err := x.Extract(&types.Receipt{Logs: []*types.Log{truncated}}, EventTokenTransferred)
	assert.ErrorIs(t, err, domainerrors.ErrEventDecode)

	missingTopic := tokenLog(t, EventTokenTransferred, vaultAddr, aliceAddr, bobAddr, usdtAddr, big.NewInt(1), 0)
	missingTopic.Topics = missingTopic.Topics[:2]
	_, err = x.Extract(&types.Receipt{Logs: []*types.Log{missingTopic}}, EventTokenTransferred)
	assert.ErrorIs(t, err, domainerrors.ErrEventDecode)

	dirtyTopic := tokenLog(t, EventTokenTransferred, vaultAddr, aliceAddr, bobAddr, usdtAddr, big.NewInt(1), 0)
	dirtyTopic.Topics[1] = common.HexToHash("0xff000000000000000000000000000000000000000000000000000000000a11ce")
	_, err = x.Extract(&types.Receipt{Logs: []*types.Log{dirtyTopic}}, EventTokenTransferred)
	assert.ErrorIs(t, err, domainerrors.ErrEventDecode)

	// A broken log is an error even when a valid one follows.
	valid := tokenLog(t, EventTokenTransferred, vaultAddr, aliceAddr, bobAddr, usdtAddr, big.NewInt(1), 1)
	_, err = x.Extract(&types.Receipt{Logs: []*types.Log{truncated, valid}}, EventTokenTransferred)
	assert.ErrorIs(t, err, domainerrors.ErrEventDecode)
}

func TestEventExtractor_LargeAmount(t *testing.T) {
	amount, ok := new(big.Int).SetString("1000000000000000000000000000000123", 10)
	require.True(t, ok)
	receipt := &types.Receipt{Logs: []*types.Log{
		tokenLog(t, EventTokenWithdrawn, vaultAddr, aliceAddr, bobAddr, usdtAddr, amount, 0),
	}}
	ev, err := NewEventExtractor(vaultAddr).Extract(receipt, EventTokenWithdrawn)
	require.NoError(t, err)
	assert.Equal(t, amount.String(), ev.Amount.String())
}

func TestPotReader_GetPot(t *testing.T) {
	var gotTo string
	var gotData []byte
	caller := NewEVMClientWithCallView(big.NewInt(1001), func(ctx context.Context, to string, data []byte) ([]byte, error) {
		gotTo = to
		gotData = data
		return kaiaPayABI.Methods[methodGetPot].Outputs.Pack(big.NewInt(12_500000), big.NewInt(1735689600), aliceAddr)
	})

	pot, err := NewPotReader(caller, vaultAddr).GetPot(context.Background(), aliceAddr, usdtAddr)
	require.NoError(t, err)
	assert.Equal(t, vaultAddr.Hex(), gotTo)
	assert.Equal(t, kaiaPayABI.Methods[methodGetPot].ID, gotData[:4])
	assert.Equal(t, "12500000", pot.Balance.String())
	assert.Equal(t, "1735689600", pot.Deadline.String())
	assert.Equal(t, aliceAddr, pot.Owner)

	broken := NewEVMClientWithCallView(nil, func(ctx context.Context, to string, data []byte) ([]byte, error) {
		return []byte{0x01}, nil
	})
	_, err = NewPotReader(broken, vaultAddr).GetPot(context.Background(), aliceAddr, usdtAddr)
	require.ErrorContains(t, err, "unpack getPot")
}
