package ordlock

import (
	"encoding/binary"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/util"

	"github.com/bitfsorg/libord-go/tx"
)

// PayoutOutput is the output a buyer must create to pay the seller. Its
// serialized form is embedded verbatim in the listing script.
type PayoutOutput struct {
	Satoshis      uint64
	LockingScript *script.Script
}

// NewPayoutOutput returns a payout of sats to a P2PKH address.
func NewPayoutOutput(address string, sats uint64) (*PayoutOutput, error) {
	if sats > tx.MaxSatoshis {
		return nil, fmt.Errorf("%w: %d sat exceeds money supply", ErrMalformedPayout, sats)
	}
	lock, err := tx.P2PKHScriptForAddress(address)
	if err != nil {
		return nil, err
	}
	return &PayoutOutput{Satoshis: sats, LockingScript: lock}, nil
}

// TxOutput returns the payout as a transaction output.
func (p *PayoutOutput) TxOutput() *transaction.TransactionOutput {
	return &transaction.TransactionOutput{
		Satoshis:      p.Satoshis,
		LockingScript: script.NewFromBytes(append([]byte(nil), p.LockingScript.Bytes()...)),
	}
}

// Bytes serializes the payout as a transaction output:
// 8-byte little-endian value, varint script length, script.
func (p *PayoutOutput) Bytes() []byte {
	return p.TxOutput().Bytes()
}

// ParsePayoutOutput decodes serialized output bytes. Trailing bytes are an error.
func ParsePayoutOutput(b []byte) (*PayoutOutput, error) {
	if len(b) < 9 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedPayout, len(b))
	}
	sats := binary.LittleEndian.Uint64(b[:8])
	if sats > tx.MaxSatoshis {
		return nil, fmt.Errorf("%w: %d sat exceeds money supply", ErrMalformedPayout, sats)
	}
	if len(b)-8 < varIntSize(b[8]) {
		return nil, fmt.Errorf("%w: truncated script length", ErrMalformedPayout)
	}
	scriptLen, n := util.NewVarIntFromBytes(b[8:])
	body := b[8+n:]
	if uint64(len(body)) != uint64(scriptLen) {
		return nil, fmt.Errorf("%w: script length %d, have %d bytes", ErrMalformedPayout, scriptLen, len(body))
	}
	return &PayoutOutput{
		Satoshis:      sats,
		LockingScript: script.NewFromBytes(append([]byte(nil), body...)),
	}, nil
}

// varIntSize returns the encoded length of a varint from its first byte.
func varIntSize(first byte) int {
	switch first {
	case 0xff:
		return 9
	case 0xfe:
		return 5
	case 0xfd:
		return 3
	}
	return 1
}
