// Package market assembles the transactions of a 1Sat ordinals
// marketplace: funding arbitrary drafts, inscribing, transferring, listing
// behind an ordinal lock, cancelling a listing and buying one.
//
// Every operation fetches what it needs from a network.BlockchainService,
// builds a fully signed transaction and returns it without broadcasting.
// Broadcast is a separate, explicit step.
package market

import (
	"context"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bitfsorg/libord-go/network"
	"github.com/bitfsorg/libord-go/tx"
)

// Config carries the fee policy and address network of a Market.
type Config struct {
	// FeePerKB is the miner fee rate in sat/KB. Zero means tx.DefaultFeePerKB.
	FeePerKB uint64

	// Tolerance is the coin selection tolerance window. Zero means the
	// size of one P2PKH input.
	Tolerance uint64

	// Mainnet selects mainnet address encoding for derived addresses.
	Mainnet bool
}

// Market builds marketplace transactions against a blockchain backend.
// It holds no mutable state and is safe for concurrent use; callers must
// still serialize operations that would spend the same UTXO.
type Market struct {
	svc      network.BlockchainService
	selector *tx.CoinSelector
	feePerKB uint64
	mainnet  bool
}

// New returns a Market using svc for UTXO lookups and broadcasts.
func New(svc network.BlockchainService, cfg Config) (*Market, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: blockchain service", ErrInvalidParams)
	}
	feePerKB := cfg.FeePerKB
	if feePerKB == 0 {
		feePerKB = tx.DefaultFeePerKB
	}
	selector := tx.NewCoinSelector(svc)
	if cfg.Tolerance != 0 {
		selector.Tolerance = cfg.Tolerance
	}
	return &Market{
		svc:      svc,
		selector: selector,
		feePerKB: feePerKB,
		mainnet:  cfg.Mainnet,
	}, nil
}

// Result is a signed, broadcast-ready transaction.
type Result struct {
	Tx   *transaction.Transaction
	TxID string
	Hex  string
}

func newResult(sdkTx *transaction.Transaction) *Result {
	return &Result{
		Tx:   sdkTx,
		TxID: sdkTx.TxID().String(),
		Hex:  sdkTx.Hex(),
	}
}

// Broadcast submits res to the network and returns the txid reported by
// the backend. Rejections are returned verbatim wrapped in
// network.ErrBroadcastRejected.
func (m *Market) Broadcast(ctx context.Context, res *Result) (string, error) {
	if res == nil || res.Hex == "" {
		return "", fmt.Errorf("%w: empty result", ErrInvalidParams)
	}
	txid, err := m.svc.BroadcastTx(ctx, res.Hex)
	if err != nil {
		return "", err
	}
	if txid != res.TxID {
		log.Warnf("Backend reported txid %s for transaction %s", txid, res.TxID)
	}
	log.Infof("Broadcast transaction %s (%d bytes)", res.TxID, len(res.Hex)/2)
	return txid, nil
}

// payerAddress derives the P2PKH address of key on the market's network.
func (m *Market) payerAddress(key *ec.PrivateKey, role string) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: %s key", ErrInvalidParams, role)
	}
	return tx.AddressForKey(key, m.mainnet)
}

// selectPayment picks payer coins covering need and binds them to key.
func (m *Market) selectPayment(ctx context.Context, address string, key *ec.PrivateKey, need uint64) ([]*tx.UTXO, error) {
	utxos, err := m.selector.SelectOrFail(ctx, address, need)
	if err != nil {
		return nil, err
	}
	for _, u := range utxos {
		u.PrivateKey = key
	}
	return utxos, nil
}

// addChange appends a P2PKH change output of in-out-fee satoshis to address.
// A shortfall is ErrInsufficientFunds; zero change adds no output.
func addChange(sdkTx *transaction.Transaction, address string, in, out, fee uint64) error {
	spent, err := tx.AddAmounts(out, fee)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	if in < spent {
		return fmt.Errorf("%w: inputs %d cannot cover outputs %d plus fee %d",
			ErrInsufficientFunds, in, out, fee)
	}
	change := in - spent
	if change == 0 {
		return nil
	}
	output, err := tx.BuildP2PKHOutput(address, change)
	if err != nil {
		return err
	}
	sdkTx.AddOutput(output)
	return nil
}
