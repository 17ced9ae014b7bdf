package usecases_test

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/usecases"
)

var feePayerAddr = common.HexToAddress("0x037A4Ed77a30cCEa91B0A299D07034EE5187B186")

func TestFeeDelegationUsecase_Relay(t *testing.T) {
	feePayer := new(MockFeePayer)
	chain := new(MockChainClient)
	uc := usecases.NewFeeDelegationUsecase(feePayer, chain, usecases.RelayConfig{Attempts: 3})

	signed := []byte{0x0a, 0x01}
	hash := common.HexToHash("0xfeed")
	feePayer.On("Sign", "0xuser").Return(signed, nil)
	chain.On("SendRawTransaction", mock.Anything, usecases.DefaultRelayMethod, signed).
		Return(common.Hash{}, errors.New("connection reset")).Once()
	chain.On("SendRawTransaction", mock.Anything, usecases.DefaultRelayMethod, signed).
		Return(hash, nil).Once()

	res, err := uc.Relay(context.Background(), " 0xuser ")
	require.NoError(t, err)
	assert.Equal(t, hash.Hex(), res.Hash)
	chain.AssertNumberOfCalls(t, "SendRawTransaction", 2)
}

func TestFeeDelegationUsecase_Relay_Failures(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		uc := usecases.NewFeeDelegationUsecase(new(MockFeePayer), new(MockChainClient), usecases.RelayConfig{})
		_, err := uc.Relay(context.Background(), "")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
	})

	t.Run("not fee delegated", func(t *testing.T) {
		feePayer := new(MockFeePayer)
		chain := new(MockChainClient)
		feePayer.On("Sign", "0x01").Return(nil, errors.New("transaction type is not fee delegated"))
		uc := usecases.NewFeeDelegationUsecase(feePayer, chain, usecases.RelayConfig{})

		_, err := uc.Relay(context.Background(), "0x01")
		assert.Equal(t, http.StatusBadRequest, domainerrors.FromError(err).Status)
		chain.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("node keeps failing", func(t *testing.T) {
		feePayer := new(MockFeePayer)
		chain := new(MockChainClient)
		feePayer.On("Sign", "0xuser").Return([]byte{1}, nil)
		chain.On("SendRawTransaction", mock.Anything, "kaia_sendRawTransaction", []byte{1}).
			Return(common.Hash{}, errors.New("nonce too low"))
		uc := usecases.NewFeeDelegationUsecase(feePayer, chain, usecases.RelayConfig{Method: "kaia_sendRawTransaction", Attempts: 2})

		_, err := uc.Relay(context.Background(), "0xuser")
		require.ErrorIs(t, err, domainerrors.ErrRelayFailed)
		appErr := domainerrors.FromError(err)
		assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
		assert.Equal(t, domainerrors.CodeRelayFailed, appErr.Code)
		chain.AssertNumberOfCalls(t, "SendRawTransaction", 2)
	})
}

func TestFeeDelegationUsecase_Balances(t *testing.T) {
	feePayer := new(MockFeePayer)
	chain := new(MockChainClient)
	watched := "0xdbf5DA07011aab580873da055dB0B94E98dDEF08"
	uc := usecases.NewFeeDelegationUsecase(feePayer, chain, usecases.RelayConfig{
		WatchAddresses: []string{watched, feePayerAddr.Hex(), "junk"},
	})

	feePayer.On("Address").Return(feePayerAddr)
	oneAndHalf, _ := new(big.Int).SetString("1500000000000000000", 10)
	chain.On("GetBalance", mock.Anything, feePayerAddr.Hex()).Return(oneAndHalf, nil)
	chain.On("GetBalance", mock.Anything, common.HexToAddress(watched).Hex()).Return(big.NewInt(0), nil)

	balances, err := uc.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "1.5", balances[0].Balance)
	assert.Equal(t, "1500000000000000000", balances[0].Raw)
	assert.Equal(t, "0", balances[1].Balance)
}

func TestFeeDelegationUsecase_Balances_NodeError(t *testing.T) {
	feePayer := new(MockFeePayer)
	chain := new(MockChainClient)
	feePayer.On("Address").Return(feePayerAddr)
	chain.On("GetBalance", mock.Anything, feePayerAddr.Hex()).Return(nil, errors.New("rpc down"))

	_, err := usecases.NewFeeDelegationUsecase(feePayer, chain, usecases.RelayConfig{}).Balances(context.Background())
	assert.ErrorContains(t, err, "rpc down")
}
