package usecases

// Contract events matched during reconciliation
const (
	EventTokenTransferred = "TokenTransferred"
	EventTokenDeposited   = "TokenDeposited"
	EventTokenWithdrawn   = "TokenWithdrawn"
)

// Reconciliation kinds used as metric labels
const (
	reconcileTransfer = "transfer"
	reconcileWithdraw = "withdraw"
	reconcileDeposit  = "deposit"
	reconcileClaim    = "claim_link"
	reconcileCancel   = "cancel_link"
)

// Reconciliation outcomes beyond success/failure
const (
	outcomeMismatch  = "mismatch"
	outcomeDuplicate = "duplicate"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	// Token decimals used when formatting balances
	NativeDecimals = 18
	USDTDecimals   = 6

	paymentCodeAttempts = 5
)
