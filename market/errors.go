package market

import (
	"errors"

	"github.com/bitfsorg/libord-go/ordlock"
	"github.com/bitfsorg/libord-go/tx"
)

var (
	// ErrInsufficientFunds indicates the payer cannot cover an operation.
	ErrInsufficientFunds = tx.ErrInsufficientFunds

	// ErrNotOwner indicates a key does not control the output it is asked to spend.
	ErrNotOwner = ordlock.ErrNotOwner

	// ErrAlreadySpent indicates the indexer no longer reports an outpoint as unspent.
	ErrAlreadySpent = errors.New("market: outpoint already spent")

	// ErrInvalidParams indicates missing or inconsistent operation parameters.
	ErrInvalidParams = errors.New("market: invalid parameters")
)
