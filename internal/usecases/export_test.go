package usecases

import (
	"time"

	"kaiapay.backend/pkg/linkkey"
)

// SetClock replaces the clock and returns a restore func
func SetClock(fn func() time.Time) func() {
	orig := now
	now = fn
	return func() { now = orig }
}

// SetLinkKeyGenerator replaces link key generation and returns a restore func
func SetLinkKeyGenerator(fn func() (*linkkey.Key, error)) func() {
	orig := generateLinkKey
	generateLinkKey = fn
	return func() { generateLinkKey = orig }
}

// SetPaymentCodeGenerator replaces payment code generation and returns a restore func
func SetPaymentCodeGenerator(fn func() (string, error)) func() {
	orig := generatePaymentCode
	generatePaymentCode = fn
	return func() { generatePaymentCode = orig }
}
