package utils

import "errors"

var (
	// Payment core.
	ErrPlanNotFound      = errors.New("plan not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAmountMismatch    = errors.New("amount does not match plan price")
	ErrProviderAuth      = errors.New("payment provider authentication failed")
	ErrOwnershipMismatch = errors.New("order belongs to a different account")
	// ErrReconciliation means the provider-side capture succeeded but the
	// local ledger could not be updated to match. The recovery endpoint
	// exists to replay exactly this class of failure.
	ErrReconciliation = errors.New("capture reconciliation failed")

	// Accounts.
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	ErrDatabaseError = errors.New("database error")
)
