package ordlock

import (
	"bytes"
	"encoding/binary"
	"fmt"

	hash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
)

// A BIP143-style preimage ends with hashOutputs(32) nLockTime(4) sighashType(4).
const preimageTail = 32 + 4 + 4

// PreimageHashOutputs returns the hashOutputs field of a sighash preimage.
func PreimageHashOutputs(preimage []byte) ([]byte, error) {
	if len(preimage) < preimageTail {
		return nil, fmt.Errorf("%w: preimage is %d bytes", ErrPurchaseMismatch, len(preimage))
	}
	end := len(preimage) - 8
	return preimage[end-32 : end], nil
}

// PreimageSigHash returns the sighash type field of a sighash preimage.
func PreimageSigHash(preimage []byte) (sighash.Flag, error) {
	if len(preimage) < preimageTail {
		return 0, fmt.Errorf("%w: preimage is %d bytes", ErrPurchaseMismatch, len(preimage))
	}
	return sighash.Flag(binary.LittleEndian.Uint32(preimage[len(preimage)-4:])), nil
}

// VerifyPurchase re-checks what the purchase branch of listingScript
// enforces on input inputIndex of sdkTx: the unlock selects the buy branch,
// its pushed outputs are the transaction's own outputs, output 1 is the
// listing payout verbatim, and the pushed preimage is the one the
// transaction actually produces and commits to all outputs.
//
// It never executes script. The input's source output must be attached.
func VerifyPurchase(listingScript *script.Script, sdkTx *transaction.Transaction, inputIndex uint32) error {
	listing, err := ParseListingScript(listingScript)
	if err != nil {
		return err
	}
	src, err := sourceOutput(sdkTx, inputIndex)
	if err != nil {
		return err
	}
	if !bytes.Equal(src.LockingScript.Bytes(), listingScript.Bytes()) {
		return fmt.Errorf("%w: input %d does not spend this listing", ErrPurchaseMismatch, inputIndex)
	}

	unlock := sdkTx.Inputs[inputIndex].UnlockingScript
	if unlock == nil {
		return fmt.Errorf("%w: input %d is unsigned", ErrPurchaseMismatch, inputIndex)
	}
	var items []*script.ScriptChunk
	for pos := 0; pos < len(*unlock); {
		op, err := unlock.ReadOp(&pos)
		if err != nil {
			return fmt.Errorf("%w: unlock: %v", ErrPurchaseMismatch, err)
		}
		items = append(items, op)
	}
	if len(items) != 4 || items[3].Op != SelectorBuy {
		return fmt.Errorf("%w: unlock does not select the purchase branch", ErrPurchaseMismatch)
	}
	for i, it := range items[:3] {
		if it.Op > script.OpPUSHDATA4 {
			return fmt.Errorf("%w: unlock item %d is not a push", ErrPurchaseMismatch, i)
		}
	}
	sendOut, rest, preimage := items[0].Data, items[1].Data, items[2].Data

	if len(sdkTx.Outputs) < 2 {
		return fmt.Errorf("%w: purchase needs at least 2 outputs", ErrPayoutMismatch)
	}
	if !bytes.Equal(sdkTx.Outputs[1].Bytes(), listing.Payout.Bytes()) {
		return fmt.Errorf("%w: output 1 differs from listing payout", ErrPayoutMismatch)
	}
	if !bytes.Equal(sendOut, sdkTx.Outputs[0].Bytes()) {
		return fmt.Errorf("%w: pushed send output differs from output 0", ErrPurchaseMismatch)
	}
	if !bytes.Equal(rest, trailingOutputs(sdkTx)) {
		return fmt.Errorf("%w: pushed trailing outputs differ from outputs 2..", ErrPurchaseMismatch)
	}

	want, err := PurchasePreimage(sdkTx, inputIndex)
	if err != nil {
		return err
	}
	if !bytes.Equal(preimage, want) {
		return fmt.Errorf("%w: pushed preimage differs from the transaction's", ErrPurchaseMismatch)
	}

	flag, err := PreimageSigHash(preimage)
	if err != nil {
		return err
	}
	if flag != PurchaseSigHash {
		return fmt.Errorf("%w: preimage sighash type 0x%02x", ErrPurchaseMismatch, uint32(flag))
	}
	hashOutputs, err := PreimageHashOutputs(preimage)
	if err != nil {
		return err
	}
	all := make([]byte, 0, len(sendOut)+len(rest)+64)
	all = append(append(append(all, sendOut...), listing.Payout.Bytes()...), rest...)
	if !bytes.Equal(hashOutputs, hash.Sha256d(all)) {
		return fmt.Errorf("%w: preimage does not commit to the outputs", ErrPurchaseMismatch)
	}
	return nil
}
