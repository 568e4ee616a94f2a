package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInsufficientFunds indicates the payer's spendable outputs cannot cover
	// the target amount plus fees.
	ErrInsufficientFunds = errors.New("tx: insufficient funds")

	// ErrInvalidTxID indicates a transaction ID is not 32 bytes / 64 hex chars.
	ErrInvalidTxID = errors.New("tx: invalid transaction ID")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrInvalidAddress indicates an address string could not be decoded.
	ErrInvalidAddress = errors.New("tx: invalid address")

	// ErrAmountOverflow indicates a satoshi sum exceeds MaxSatoshis.
	ErrAmountOverflow = errors.New("tx: amount exceeds money supply")

	// ErrOutputNotFound indicates a transaction has no output at the requested index.
	ErrOutputNotFound = errors.New("tx: output index out of range")
)
