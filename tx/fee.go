package tx

import "github.com/bsv-blockchain/go-sdk/transaction"

// Worst case sizes of standard P2PKH script elements.
const (
	// P2PKHSigScriptSize is the largest unlocking script of a compressed P2PKH
	// input: push(73) + 72-byte DER sig + sighash byte + push(33) + pubkey.
	P2PKHSigScriptSize = 1 + 73 + 1 + 33

	// P2PKHOutputSize is value(8) + script length(1) + 25-byte P2PKH script.
	P2PKHOutputSize = 8 + 1 + 1 + 1 + 1 + 20 + 1 + 1

	// P2PKHInputSize is outpoint(36) + script length(1) + unlocking script + sequence(4).
	P2PKHInputSize = 36 + 1 + P2PKHSigScriptSize + 4

	// DefaultFeePerKB is the default fee rate in sat/KB.
	DefaultFeePerKB = uint64(1)
)

// EstimateFeeForSize returns floor((size + P2PKHInputSize) * feePerKB / 1000) + 1.
//
// The extra input term accounts for the funding input coin selection is about
// to add. The trailing +1 biases the result upward so rounding never
// under-pays.
func EstimateFeeForSize(sizeBytes int, feePerKB uint64) uint64 {
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	return (uint64(sizeBytes)+P2PKHInputSize)*feePerKB/1000 + 1
}

// EstimateFee estimates the fee of a draft transaction at feePerKB.
// A zero rate falls back to DefaultFeePerKB.
func EstimateFee(draft *transaction.Transaction, feePerKB uint64) uint64 {
	if feePerKB == 0 {
		feePerKB = DefaultFeePerKB
	}
	return EstimateFeeForSize(DraftSize(draft), feePerKB)
}

// DraftSize returns the serialized size of draft, counting every input that
// has no unlocking script yet as a signed P2PKH input.
func DraftSize(draft *transaction.Transaction) int {
	if draft == nil {
		return 0
	}
	size := len(draft.Bytes())
	for _, in := range draft.Inputs {
		if in.UnlockingScript == nil || len(*in.UnlockingScript) == 0 {
			size += P2PKHSigScriptSize
		}
	}
	return size
}
