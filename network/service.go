package network

import "context"

// BlockchainService is the indexer and broadcaster contract the marketplace
// consumes. Implementations must be safe for concurrent use.
type BlockchainService interface {
	// ListUnspent returns the unspent outputs of address in indexer order.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// GetUTXO returns a specific output if it is still unspent.
	// A spent or unknown outpoint is reported as ErrTxNotFound.
	GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error)

	// BroadcastTx submits a raw transaction hex to the network and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetRawTx returns the raw transaction bytes for the given txid.
	GetRawTx(ctx context.Context, txid string) ([]byte, error)
}

// UTXO represents an unspent transaction output as reported by an indexer.
// TxID is in display (reversed hex) order. ScriptPubKey is hex and may be
// empty when the backend does not report it.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// Outpoint returns "txid:vout".
func (u *UTXO) Outpoint() string {
	return outpoint(u.TxID, u.Vout)
}
