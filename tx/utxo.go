package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// UTXO represents an unspent transaction output the assembler may spend.
type UTXO struct {
	TxID         []byte         `json:"txid"` // 32 bytes, internal byte order
	Vout         uint32         `json:"vout"`
	Amount       uint64         `json:"amount"`        // satoshis
	ScriptPubKey []byte         `json:"script_pubkey"` // locking script bytes
	PrivateKey   *ec.PrivateKey `json:"-"`             // signing key (not serialized)
}

// TxIDHex returns the transaction ID in the usual reversed hex display form.
func (u *UTXO) TxIDHex() string {
	h, err := chainhash.NewHash(u.TxID)
	if err != nil {
		return ""
	}
	return h.String()
}

// String returns the outpoint as "txid:vout".
func (u *UTXO) String() string {
	return fmt.Sprintf("%s:%d", u.TxIDHex(), u.Vout)
}

// TxIDFromHex decodes a display-order hex transaction ID into internal byte order.
func TxIDFromHex(txid string) ([]byte, error) {
	h, err := chainhash.NewHashFromHex(txid)
	if err != nil || len(txid) != 2*chainhash.HashSize {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTxID, txid)
	}
	return h.CloneBytes(), nil
}

// UTXOFromTx extracts output vout of a parsed transaction as a UTXO.
func UTXOFromTx(sdkTx *transaction.Transaction, vout uint32) (*UTXO, error) {
	if sdkTx == nil {
		return nil, fmt.Errorf("%w: transaction", ErrNilParam)
	}
	if int(vout) >= len(sdkTx.Outputs) {
		return nil, fmt.Errorf("%w: vout %d, tx has %d outputs",
			ErrOutputNotFound, vout, len(sdkTx.Outputs))
	}
	out := sdkTx.Outputs[vout]
	var lockBytes []byte
	if out.LockingScript != nil {
		lockBytes = out.LockingScript.Bytes()
	}
	return &UTXO{
		TxID:         sdkTx.TxID().CloneBytes(),
		Vout:         vout,
		Amount:       out.Satoshis,
		ScriptPubKey: lockBytes,
	}, nil
}

// UTXOFromRawTx parses raw transaction bytes and extracts output vout.
func UTXOFromRawTx(rawTx []byte, vout uint32) (*UTXO, error) {
	sdkTx, err := transaction.NewTransactionFromBytes(rawTx)
	if err != nil {
		return nil, fmt.Errorf("tx: parse raw tx: %w", err)
	}
	return UTXOFromTx(sdkTx, vout)
}

// AddInput appends an unsigned input spending u to sdkTx and attaches the
// source output so the sighash can be computed later.
func AddInput(sdkTx *transaction.Transaction, u *UTXO) error {
	if sdkTx == nil || u == nil {
		return fmt.Errorf("%w: transaction or utxo", ErrNilParam)
	}
	txidHash, err := chainhash.NewHash(u.TxID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTxID, err)
	}
	sdkTx.AddInput(&transaction.TransactionInput{
		SourceTXID:       txidHash,
		SourceTxOutIndex: u.Vout,
		SequenceNumber:   transaction.DefaultSequenceNumber,
	})
	sdkTx.Inputs[len(sdkTx.Inputs)-1].SetSourceTxOutput(&transaction.TransactionOutput{
		Satoshis:      u.Amount,
		LockingScript: script.NewFromBytes(u.ScriptPubKey),
	})
	return nil
}

// SumAmounts returns the total value of the given UTXOs.
func SumAmounts(utxos []*UTXO) uint64 {
	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}
	return total
}

// MaxSatoshis is the total money supply in satoshis. No single value or
// sum of values in a valid transaction exceeds it.
const MaxSatoshis = uint64(21_000_000 * 100_000_000)

// AddAmounts sums satoshi values, failing with ErrAmountOverflow when the
// total exceeds MaxSatoshis.
func AddAmounts(vals ...uint64) (uint64, error) {
	var sum uint64
	for _, v := range vals {
		if v > MaxSatoshis || sum > MaxSatoshis-v {
			return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, sum, v)
		}
		sum += v
	}
	return sum, nil
}

// SumOutputs returns the total value of a transaction's outputs.
func SumOutputs(sdkTx *transaction.Transaction) uint64 {
	var total uint64
	for _, o := range sdkTx.Outputs {
		total += o.Satoshis
	}
	return total
}
