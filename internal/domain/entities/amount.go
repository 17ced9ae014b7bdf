package entities

import (
	"errors"
	"math/big"
	"strings"
)

// ErrInvalidAmount is returned for anything that is not a non-negative base-10 integer
var ErrInvalidAmount = errors.New("amount must be a non-negative integer")

// ParseAmount parses a token amount in base units
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return nil, ErrInvalidAmount
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return v, nil
}

// CanonicalAmount returns the stored form of an amount ("007" becomes "7")
func CanonicalAmount(s string) (string, error) {
	v, err := ParseAmount(s)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
