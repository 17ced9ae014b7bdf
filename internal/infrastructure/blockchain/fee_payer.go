package blockchain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var ErrNotFeeDelegated = errors.New("transaction type is not fee delegated")

// Kaia fee delegated transaction types
var feeDelegatedTypes = map[byte]string{
	0x09: "FeeDelegatedValueTransfer",
	0x0a: "FeeDelegatedValueTransferWithRatio",
	0x11: "FeeDelegatedValueTransferMemo",
	0x12: "FeeDelegatedValueTransferMemoWithRatio",
	0x21: "FeeDelegatedAccountUpdate",
	0x22: "FeeDelegatedAccountUpdateWithRatio",
	0x29: "FeeDelegatedSmartContractDeploy",
	0x2a: "FeeDelegatedSmartContractDeployWithRatio",
	0x31: "FeeDelegatedSmartContractExecution",
	0x32: "FeeDelegatedSmartContractExecutionWithRatio",
	0x39: "FeeDelegatedCancel",
	0x3a: "FeeDelegatedCancelWithRatio",
	0x49: "FeeDelegatedChainDataAnchoring",
	0x4a: "FeeDelegatedChainDataAnchoringWithRatio",
}

// TxSignature is one [V, R, S] entry of a Kaia signature list
type TxSignature struct {
	V *big.Int
	R *big.Int
	S *big.Int
}

// FeeDelegatedTx is a sender-signed Kaia transaction split into its RLP parts
type FeeDelegatedTx struct {
	Type               byte
	Fields             []rlp.RawValue
	TxSignatures       rlp.RawValue
	FeePayer           common.Address
	FeePayerSignatures []TxSignature
}

// DecodeFeeDelegatedTx parses type || RLP([fields..., txSignatures, feePayer, feePayerSignatures])
func DecodeFeeDelegatedTx(raw []byte) (*FeeDelegatedTx, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("raw transaction too short")
	}
	txType := raw[0]
	if _, ok := feeDelegatedTypes[txType]; !ok {
		return nil, fmt.Errorf("%w: 0x%02x", ErrNotFeeDelegated, txType)
	}

	var items []rlp.RawValue
	if err := rlp.DecodeBytes(raw[1:], &items); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(items) < 4 {
		return nil, fmt.Errorf("decode transaction: %d fields", len(items))
	}

	n := len(items)
	tx := &FeeDelegatedTx{
		Type:         txType,
		Fields:       items[:n-3],
		TxSignatures: items[n-3],
	}
	var feePayer []byte
	if err := rlp.DecodeBytes(items[n-2], &feePayer); err != nil {
		return nil, fmt.Errorf("decode fee payer: %w", err)
	}
	if len(feePayer) == common.AddressLength {
		tx.FeePayer = common.BytesToAddress(feePayer)
	}
	if err := rlp.DecodeBytes(items[n-1], &tx.FeePayerSignatures); err != nil {
		return nil, fmt.Errorf("decode fee payer signatures: %w", err)
	}
	return tx, nil
}

// SigFeePayerHash is keccak256(RLP([RLP([type, fields...]), feePayer, chainID, 0, 0]))
func (tx *FeeDelegatedTx) SigFeePayerHash(feePayer common.Address, chainID *big.Int) (common.Hash, error) {
	inner := make([]interface{}, 0, len(tx.Fields)+1)
	inner = append(inner, uint64(tx.Type))
	for _, f := range tx.Fields {
		inner = append(inner, f)
	}
	innerRLP, err := rlp.EncodeToBytes(inner)
	if err != nil {
		return common.Hash{}, err
	}
	outer, err := rlp.EncodeToBytes([]interface{}{innerRLP, feePayer, chainID, uint64(0), uint64(0)})
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(outer), nil
}

// Encode serializes the transaction back to type || RLP(...)
func (tx *FeeDelegatedTx) Encode() ([]byte, error) {
	items := make([]interface{}, 0, len(tx.Fields)+3)
	for _, f := range tx.Fields {
		items = append(items, f)
	}
	sigs := tx.FeePayerSignatures
	if sigs == nil {
		sigs = []TxSignature{}
	}
	items = append(items, tx.TxSignatures, tx.FeePayer, sigs)
	body, err := rlp.EncodeToBytes(items)
	if err != nil {
		return nil, err
	}
	return append([]byte{tx.Type}, body...), nil
}

// FeePayerSigner co-signs fee delegated transactions
type FeePayerSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewFeePayerSigner parses a hex private key
func NewFeePayerSigner(privateKeyHex string, chainID *big.Int) (*FeePayerSigner, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("parse fee payer key: %w", err)
	}
	if chainID == nil {
		return nil, fmt.Errorf("fee payer signer needs a chain id")
	}
	return &FeePayerSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
	}, nil
}

// Address is the fee payer account
func (s *FeePayerSigner) Address() common.Address {
	return s.address
}

// Sign adds the fee payer and its signature to a sender-signed raw transaction
func (s *FeePayerSigner) Sign(userSignedTx string) ([]byte, error) {
	raw, err := hexutil.Decode(userSignedTx)
	if err != nil {
		return nil, fmt.Errorf("decode raw transaction: %w", err)
	}
	tx, err := DecodeFeeDelegatedTx(raw)
	if err != nil {
		return nil, err
	}

	hash, err := tx.SigFeePayerHash(s.address, s.chainID)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign as fee payer: %w", err)
	}

	v := new(big.Int).Mul(s.chainID, big.NewInt(2))
	v.Add(v, big.NewInt(int64(sig[64])+35))

	tx.FeePayer = s.address
	tx.FeePayerSignatures = []TxSignature{{
		V: v,
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:64]),
	}}
	return tx.Encode()
}

// RecoverFeePayer returns the account that produced the fee payer signature
func (tx *FeeDelegatedTx) RecoverFeePayer(chainID *big.Int) (common.Address, error) {
	if len(tx.FeePayerSignatures) == 0 {
		return common.Address{}, fmt.Errorf("no fee payer signature")
	}
	sig := tx.FeePayerSignatures[0]
	hash, err := tx.SigFeePayerHash(tx.FeePayer, chainID)
	if err != nil {
		return common.Address{}, err
	}
	recID := new(big.Int).Sub(sig.V, big.NewInt(35))
	recID.Sub(recID, new(big.Int).Mul(chainID, big.NewInt(2)))
	if !recID.IsUint64() || recID.Uint64() > 1 {
		return common.Address{}, fmt.Errorf("invalid fee payer v")
	}

	raw := make([]byte, 65)
	sig.R.FillBytes(raw[:32])
	sig.S.FillBytes(raw[32:64])
	raw[64] = byte(recID.Uint64())
	pub, err := crypto.SigToPub(hash.Bytes(), raw)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
