// Package linkkey creates throwaway holding accounts for link transfers.
// The private key travels only inside the link; it is never stored server side.
package linkkey

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidEncoding = errors.New("invalid link key encoding")

var generateKey = crypto.GenerateKey

// Key is a holding account and its compact encoding
type Key struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
	Encoded    string
}

// Generate creates a fresh secp256k1 key
func Generate() (*Key, error) {
	pk, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("generate holding key: %w", err)
	}
	return &Key{
		PrivateKey: pk,
		Address:    crypto.PubkeyToAddress(pk.PublicKey),
		Encoded:    base58.Encode(crypto.FromECDSA(pk)),
	}, nil
}

// Decode recovers the key from its base58 form
func Decode(encoded string) (*Key, error) {
	encoded = strings.TrimSpace(encoded)
	raw := base58.Decode(encoded)
	if len(raw) != 32 {
		return nil, ErrInvalidEncoding
	}
	pk, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return &Key{
		PrivateKey: pk,
		Address:    crypto.PubkeyToAddress(pk.PublicKey),
		Encoded:    encoded,
	}, nil
}

// URL builds <base>/i/<encoded>
func (k *Key) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/i/" + k.Encoded
}
