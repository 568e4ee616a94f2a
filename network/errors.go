package network

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed indicates the client could not reach the backend.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates authentication (e.g., RPC credentials) was rejected.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrTxNotFound indicates the requested transaction or output does not
	// exist or is already spent.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the backend rejected the broadcast transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the backend returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")
)

func outpoint(txid string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid, vout)
}
