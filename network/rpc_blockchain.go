package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/shopspring/decimal"
)

var _ BlockchainService = (*RPCClient)(nil)

// satoshisPerCoin is the node's amount scale: amounts are decimal BSV.
const satoshisPerCoin = 8

// coinAmountToSats converts a decimal BSV amount from a node reply into
// satoshis without going through float64.
func coinAmountToSats(n json.Number) (uint64, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrInvalidResponse, n, err)
	}
	sats := d.Shift(satoshisPerCoin)
	if sats.IsNegative() || !sats.Equal(sats.Truncate(0)) || !sats.BigInt().IsUint64() {
		return 0, fmt.Errorf("%w: amount %s is not a satoshi value", ErrInvalidResponse, n)
	}
	return sats.BigInt().Uint64(), nil
}

// nodeUnspent is one entry of a listunspent reply.
type nodeUnspent struct {
	TxID          string      `json:"txid"`
	Vout          uint32      `json:"vout"`
	Amount        json.Number `json:"amount"`
	ScriptPubKey  string      `json:"scriptPubKey"`
	Address       string      `json:"address"`
	Confirmations int64       `json:"confirmations"`
}

// ListUnspent returns the node wallet's unspent outputs for address,
// mempool included, in the order the node lists them. The address must be
// watched by the node wallet.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	var entries []nodeUnspent
	if err := c.Call(ctx, "listunspent", &entries, 0, 9999999, []string{address}); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, 0, len(entries))
	for _, e := range entries {
		sats, err := coinAmountToSats(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("listunspent %s: %w", outpoint(e.TxID, e.Vout), err)
		}
		utxos = append(utxos, &UTXO{
			TxID:          e.TxID,
			Vout:          e.Vout,
			Amount:        sats,
			ScriptPubKey:  e.ScriptPubKey,
			Address:       e.Address,
			Confirmations: e.Confirmations,
		})
	}
	log.Debugf("listunspent %s: %d outputs", address, len(utxos))
	return utxos, nil
}

// nodeTxOut is a gettxout reply. The node answers null for a spent or
// unknown outpoint.
type nodeTxOut struct {
	Value         json.Number `json:"value"`
	Confirmations int64       `json:"confirmations"`
	ScriptPubKey  struct {
		Hex       string   `json:"hex"`
		Addresses []string `json:"addresses"`
	} `json:"scriptPubKey"`
}

// GetUTXO reports txid:vout if neither the chain nor the mempool has spent
// it. A null gettxout reply is ErrTxNotFound, which the marketplace treats
// as an already spent ordinal or listing.
func (c *RPCClient) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	var out *nodeTxOut
	if err := c.Call(ctx, "gettxout", &out, txid, vout, true); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: output %s is spent", ErrTxNotFound, outpoint(txid, vout))
	}
	sats, err := coinAmountToSats(out.Value)
	if err != nil {
		return nil, fmt.Errorf("gettxout %s: %w", outpoint(txid, vout), err)
	}

	u := &UTXO{
		TxID:          txid,
		Vout:          vout,
		Amount:        sats,
		ScriptPubKey:  out.ScriptPubKey.Hex,
		Confirmations: out.Confirmations,
	}
	if len(out.ScriptPubKey.Addresses) > 0 {
		u.Address = out.ScriptPubKey.Addresses[0]
	}
	return u, nil
}

// GetRawTx fetches a transaction with non-verbose getrawtransaction. An
// unknown txid (-5) is ErrTxNotFound.
func (c *RPCClient) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	var rawHex string
	if err := c.Call(ctx, "getrawtransaction", &rawHex, txid, false); err != nil {
		if errors.Is(err, ErrTxNotFound) {
			return nil, fmt.Errorf("%s: %w", txid, err)
		}
		return nil, err
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s hex: %v", ErrInvalidResponse, txid, err)
	}
	return raw, nil
}

// BroadcastTx submits rawTxHex with sendrawtransaction. Any node error is a
// rejection carrying the node's message, except "already in chain", which
// means an earlier broadcast of the same transaction succeeded.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	err := c.Call(ctx, "sendrawtransaction", &txid, rawTxHex)
	if err == nil {
		log.Infof("broadcast %s via node RPC", txid)
		return txid, nil
	}
	rpcErr := asRPCError(err)
	if rpcErr == nil {
		return "", err
	}
	if rpcErr.Code == RPCCodeAlreadyInChain {
		if sdkTx, perr := transaction.NewTransactionFromHex(rawTxHex); perr == nil {
			txid = sdkTx.TxID().String()
			log.Infof("%s already in chain", txid)
			return txid, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, rpcErr.Message)
}
