package ordlock

import (
	"bytes"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"

	"github.com/bitfsorg/libord-go/tx"
)

// Signature hash types of the two branches.
const (
	CancelSigHash   = sighash.AllForkID
	PurchaseSigHash = sighash.All | sighash.AnyOneCanPay | sighash.ForkID
)

// Branch selectors pushed last by the unlocking script.
const (
	SelectorCancel byte = script.Op1
	SelectorBuy    byte = script.Op0
)

// BuildCancelUnlock signs input inputIndex of sdkTx with ownerKey and returns
//
//	<sig||ALL|FORKID> <pubkey> OP_1
//
// The input's source output must be attached and must be a listing owned by
// ownerKey.
func BuildCancelUnlock(sdkTx *transaction.Transaction, inputIndex uint32, ownerKey *ec.PrivateKey) (*script.Script, error) {
	if ownerKey == nil {
		return nil, fmt.Errorf("%w: owner key", tx.ErrNilParam)
	}
	src, err := sourceOutput(sdkTx, inputIndex)
	if err != nil {
		return nil, err
	}
	listing, err := ParseListingScript(src.LockingScript)
	if err != nil {
		return nil, err
	}
	pub := ownerKey.PubKey()
	if !bytes.Equal(pub.Hash(), listing.OwnerPKH) {
		return nil, ErrNotOwner
	}

	hash, err := sdkTx.CalcInputSignatureHash(inputIndex, CancelSigHash)
	if err != nil {
		return nil, fmt.Errorf("%w: cancel sighash: %w", tx.ErrSigningFailed, err)
	}
	sig, err := ownerKey.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: cancel sign: %w", tx.ErrSigningFailed, err)
	}

	unlock := &script.Script{}
	if err := unlock.AppendPushData(append(sig.Serialize(), byte(CancelSigHash))); err != nil {
		return nil, fmt.Errorf("%w: push sig: %w", tx.ErrScriptBuild, err)
	}
	if err := unlock.AppendPushData(pub.Compressed()); err != nil {
		return nil, fmt.Errorf("%w: push pubkey: %w", tx.ErrScriptBuild, err)
	}
	if err := unlock.AppendOpcodes(SelectorCancel); err != nil {
		return nil, fmt.Errorf("%w: push selector: %w", tx.ErrScriptBuild, err)
	}
	return unlock, nil
}

// BuildBuyUnlock returns the purchase unlock for input inputIndex of sdkTx,
// which must spend listingUTXO. Outputs must already be final and laid out
// as [buyer 1 sat, payout, change?, market fee?]. The unlock is
//
//	<outputs[0]> <outputs[2:]...> <preimage> OP_0
//
// where the middle push is OP_0 when there are no trailing outputs.
func BuildBuyUnlock(listingUTXO *tx.UTXO, sdkTx *transaction.Transaction, inputIndex uint32) (*script.Script, error) {
	if listingUTXO == nil || sdkTx == nil {
		return nil, fmt.Errorf("%w: listing utxo or transaction", tx.ErrNilParam)
	}
	lockScript := script.NewFromBytes(listingUTXO.ScriptPubKey)
	listing, err := ParseListingScript(lockScript)
	if err != nil {
		return nil, err
	}
	if int(inputIndex) >= len(sdkTx.Inputs) {
		return nil, fmt.Errorf("%w: input %d of %d", ErrMissingSource, inputIndex, len(sdkTx.Inputs))
	}
	in := sdkTx.Inputs[inputIndex]
	if in.SourceTXID == nil || !bytes.Equal(in.SourceTXID.CloneBytes(), listingUTXO.TxID) ||
		in.SourceTxOutIndex != listingUTXO.Vout {
		return nil, fmt.Errorf("%w: input %d does not spend %s", ErrPurchaseMismatch, inputIndex, listingUTXO)
	}
	in.SetSourceTxOutput(&transaction.TransactionOutput{
		Satoshis:      listingUTXO.Amount,
		LockingScript: lockScript,
	})

	if len(sdkTx.Outputs) < 2 {
		return nil, fmt.Errorf("%w: purchase needs at least 2 outputs", ErrPayoutMismatch)
	}
	if !bytes.Equal(sdkTx.Outputs[1].Bytes(), listing.Payout.Bytes()) {
		return nil, fmt.Errorf("%w: output 1 differs from listing payout", ErrPayoutMismatch)
	}

	preimage, err := PurchasePreimage(sdkTx, inputIndex)
	if err != nil {
		return nil, err
	}

	unlock := &script.Script{}
	for _, p := range [][]byte{sdkTx.Outputs[0].Bytes(), trailingOutputs(sdkTx), preimage} {
		if err := unlock.AppendPushData(p); err != nil {
			return nil, fmt.Errorf("%w: purchase push: %w", tx.ErrScriptBuild, err)
		}
	}
	if err := unlock.AppendOpcodes(SelectorBuy); err != nil {
		return nil, fmt.Errorf("%w: push selector: %w", tx.ErrScriptBuild, err)
	}
	return unlock, nil
}

// PurchasePreimage returns the sighash preimage of input inputIndex under
// ALL|ANYONECANPAY|FORKID. The source output must be attached.
func PurchasePreimage(sdkTx *transaction.Transaction, inputIndex uint32) ([]byte, error) {
	if _, err := sourceOutput(sdkTx, inputIndex); err != nil {
		return nil, err
	}
	preimage, err := sdkTx.CalcInputPreimage(inputIndex, PurchaseSigHash)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase preimage: %w", tx.ErrSigningFailed, err)
	}
	return preimage, nil
}

// trailingOutputs concatenates the serialized outputs after the payout.
func trailingOutputs(sdkTx *transaction.Transaction) []byte {
	var buf []byte
	for _, o := range sdkTx.Outputs[2:] {
		buf = append(buf, o.Bytes()...)
	}
	return buf
}

func sourceOutput(sdkTx *transaction.Transaction, inputIndex uint32) (*transaction.TransactionOutput, error) {
	if sdkTx == nil {
		return nil, fmt.Errorf("%w: transaction", tx.ErrNilParam)
	}
	if int(inputIndex) >= len(sdkTx.Inputs) {
		return nil, fmt.Errorf("%w: input %d of %d", ErrMissingSource, inputIndex, len(sdkTx.Inputs))
	}
	src := sdkTx.Inputs[inputIndex].SourceTxOutput()
	if src == nil || src.LockingScript == nil {
		return nil, fmt.Errorf("%w: input %d", ErrMissingSource, inputIndex)
	}
	return src, nil
}
