package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenExpired       = errors.New("token expired")
	ErrWalletNotFound     = errors.New("smart wallet not found")
	ErrKaiapayIDTaken     = errors.New("kaiapay id already exists")
	ErrStatusConflict     = errors.New("transaction status changed concurrently")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAlreadySettled     = errors.New("transaction is no longer pending")
	ErrTxHashAlreadyUsed  = errors.New("tx hash already bound to another transaction")
	ErrLinkNotClaimable   = errors.New("link transfer can no longer be claimed or canceled")
	ErrReceiptUnavailable = errors.New("transaction receipt unavailable")
	ErrEventNotFound      = errors.New("event not found in transaction")
	ErrEventDecode        = errors.New("event log could not be decoded")
	ErrRelayFailed        = errors.New("fee delegated relay failed")

	ErrAmountMismatch      = errors.New("AMOUNT_MISMATCH")
	ErrTokenMismatch       = errors.New("TOKEN_MISMATCH")
	ErrFromAddressMismatch = errors.New("FROM_ADDRESS_MISMATCH")
	ErrToAddressMismatch   = errors.New("TO_ADDRESS_MISMATCH")
)

// Error codes returned in the response body
const (
	CodeNotFound            = "NOT_FOUND"
	CodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeWalletNotFound      = "WALLET_NOT_FOUND"
	CodeKaiapayIDExists     = "KAIAPAY_ID_ALREADY_EXISTS"
	CodeAlreadySettled      = "ALREADY_SETTLED"
	CodeTxHashAlreadyUsed   = "TX_HASH_ALREADY_USED"
	CodeLinkNotClaimable    = "LINK_NOT_CLAIMABLE"
	CodeFetchError          = "TRANSACTION_FETCH_ERROR"
	CodeEventNotFound       = "EVENT_NOT_FOUND"
	CodeEventDecode         = "EVENT_DECODE_ERROR"
	CodeRelayFailed         = "RELAY_FAILED"
	CodeAmountMismatch      = "AMOUNT_MISMATCH"
	CodeTokenMismatch       = "TOKEN_MISMATCH"
	CodeFromMismatch        = "FROM_ADDRESS_MISMATCH"
	CodeToMismatch          = "TO_ADDRESS_MISMATCH"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

func InternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message, nil)
}

func ServiceUnavailable(code, message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, code, message, err)
}

// NewError creates a new error with a custom message wrapping an existing error
func NewError(message string, err error) error {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: message,
		Err:     err,
	}
}

// mapping from sentinel to transport shape; order matters because some
// errors wrap more than one sentinel.
var sentinelMappings = []struct {
	err    error
	status int
	code   string
}{
	{ErrReceiptUnavailable, http.StatusServiceUnavailable, CodeFetchError},
	{ErrRelayFailed, http.StatusServiceUnavailable, CodeRelayFailed},
	{ErrEventNotFound, http.StatusBadRequest, CodeEventNotFound},
	{ErrEventDecode, http.StatusBadRequest, CodeEventDecode},
	{ErrAmountMismatch, http.StatusBadRequest, CodeAmountMismatch},
	{ErrTokenMismatch, http.StatusBadRequest, CodeTokenMismatch},
	{ErrFromAddressMismatch, http.StatusBadRequest, CodeFromMismatch},
	{ErrToAddressMismatch, http.StatusBadRequest, CodeToMismatch},
	{ErrWalletNotFound, http.StatusBadRequest, CodeWalletNotFound},
	{ErrAlreadySettled, http.StatusConflict, CodeAlreadySettled},
	{ErrStatusConflict, http.StatusConflict, CodeAlreadySettled},
	{ErrTxHashAlreadyUsed, http.StatusConflict, CodeTxHashAlreadyUsed},
	{ErrLinkNotClaimable, http.StatusConflict, CodeLinkNotClaimable},
	{ErrKaiapayIDTaken, http.StatusConflict, CodeKaiapayIDExists},
	{ErrAlreadyExists, http.StatusConflict, CodeConflict},
	{ErrNotFound, http.StatusNotFound, CodeNotFound},
	{ErrInvalidTransition, http.StatusConflict, CodeConflict},
	{ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput},
	{ErrBadRequest, http.StatusBadRequest, CodeBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
	{ErrTokenExpired, http.StatusUnauthorized, CodeUnauthorized},
	{ErrForbidden, http.StatusForbidden, CodeForbidden},
}

// FromError converts any error into an AppError. AppErrors pass through,
// known sentinels get their status and code, everything else is internal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range sentinelMappings {
		if errors.Is(err, m.err) {
			return NewAppError(m.status, m.code, err.Error(), err)
		}
	}
	return InternalError(err)
}
