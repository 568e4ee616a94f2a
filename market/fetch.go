package market

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libord-go/network"
	"github.com/bitfsorg/libord-go/tx"
)

// fetchUnspent loads output vout of txid from its raw transaction and
// confirms with the indexer that it is still unspent.
func (m *Market) fetchUnspent(ctx context.Context, txid string, vout uint32) (*tx.UTXO, error) {
	want, err := tx.TxIDFromHex(txid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	raw, err := m.svc.GetRawTx(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("market: fetch %s: %w", txid, err)
	}
	u, err := tx.UTXOFromRawTx(raw, vout)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(u.TxID, want) {
		return nil, fmt.Errorf("%w: fetched tx hashes to %s, want %s",
			network.ErrInvalidResponse, u.TxIDHex(), txid)
	}

	if _, err := m.svc.GetUTXO(ctx, txid, vout); err != nil {
		if errors.Is(err, network.ErrTxNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadySpent, u)
		}
		return nil, fmt.Errorf("market: check %s: %w", u, err)
	}
	log.Debugf("Fetched unspent %s (%d sat, %d byte script)", u, u.Amount, len(u.ScriptPubKey))
	return u, nil
}

// checkOwner reports whether u is locked to a P2PKH prefix of key.
// Plain P2PKH outputs and inscriptions both start with one.
func checkOwner(u *tx.UTXO, key *ec.PrivateKey) error {
	lock, err := tx.BuildP2PKHScript(key.PubKey())
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(u.ScriptPubKey, lock) {
		return fmt.Errorf("%w: %s", ErrNotOwner, u)
	}
	return nil
}
