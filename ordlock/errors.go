package ordlock

import "errors"

var (
	// ErrMalformedListing indicates a script is not a well-formed ordinal lock,
	// or the listed outpoint can no longer be spent.
	ErrMalformedListing = errors.New("ordlock: malformed listing")

	// ErrMalformedPayout indicates serialized payout output bytes are invalid.
	ErrMalformedPayout = errors.New("ordlock: malformed payout output")

	// ErrPayoutMismatch indicates the purchase transaction does not pay the
	// listing's payout output verbatim at index 1.
	ErrPayoutMismatch = errors.New("ordlock: payout output mismatch")

	// ErrPurchaseMismatch indicates a purchase unlock does not match its transaction.
	ErrPurchaseMismatch = errors.New("ordlock: purchase unlock mismatch")

	// ErrInvalidFeeRate indicates a negative market fee rate.
	ErrInvalidFeeRate = errors.New("ordlock: invalid market fee rate")

	// ErrMissingSource indicates an input lacks the source output needed for a sighash.
	ErrMissingSource = errors.New("ordlock: input source output not attached")
)

// ErrNotOwner indicates a cancel key does not match the listing's owner PKH.
var ErrNotOwner = errors.New("ordlock: key does not own listing")
