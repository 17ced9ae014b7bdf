package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	domainerrors "kaiapay.backend/internal/domain/errors"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// normalizeTxHash validates a 32-byte hex hash and returns it lower-cased
func normalizeTxHash(txHash string) (string, error) {
	txHash = strings.TrimSpace(txHash)
	if !txHashPattern.MatchString(txHash) {
		return "", fmt.Errorf("malformed tx hash: %w", domainerrors.ErrInvalidInput)
	}
	return strings.ToLower(txHash), nil
}

// sameAddress compares two hex addresses as 20-byte values
func sameAddress(stored string, actual common.Address) bool {
	if !common.IsHexAddress(stored) {
		return false
	}
	return common.HexToAddress(stored) == actual
}

// sameHexAddress compares two hex address strings
func sameHexAddress(a, b string) bool {
	return common.IsHexAddress(b) && sameAddress(a, common.HexToAddress(b))
}

// smartWallet returns the caller's smart wallet address
func smartWallet(ctx context.Context, identity IdentityProvider, userID string) (string, error) {
	user, err := identity.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.SmartWalletAddress == "" {
		return "", domainerrors.ErrWalletNotFound
	}
	return user.SmartWalletAddress, nil
}
