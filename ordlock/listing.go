// Package ordlock builds and spends the ordinal-lock covenant that guards a
// listed ordinal. The lock has two branches chosen by the last item of the
// unlocking script: 1 lets the owner cancel with a signature, 0 lets anyone
// buy by creating the payout output the lock commits to.
package ordlock

import (
	"bytes"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
)

// PKHSize is the length of the owner public key hash.
const PKHSize = 20

// Listing is the decoded content of an ordinal-lock script.
type Listing struct {
	OwnerPKH []byte
	Payout   *PayoutOutput
}

// BuildListingScript splices ownerPKH and the serialized payout into the
// lock template.
func BuildListingScript(ownerPKH []byte, payout *PayoutOutput) (*script.Script, error) {
	if len(ownerPKH) != PKHSize {
		return nil, fmt.Errorf("%w: owner PKH is %d bytes", ErrMalformedListing, len(ownerPKH))
	}
	if payout == nil || payout.LockingScript == nil {
		return nil, fmt.Errorf("%w: nil payout", ErrMalformedListing)
	}

	s := script.NewFromBytes(append([]byte(nil), lockPrefix...))
	if err := s.AppendPushData(ownerPKH); err != nil {
		return nil, fmt.Errorf("%w: push owner PKH: %w", ErrMalformedListing, err)
	}
	if err := s.AppendPushData(payout.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: push payout: %w", ErrMalformedListing, err)
	}
	*s = append(*s, lockSuffix...)
	return s, nil
}

// ParseListingScript recovers the owner PKH and payout of a listing script.
// Any deviation from the template is ErrMalformedListing.
func ParseListingScript(s *script.Script) (*Listing, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil script", ErrMalformedListing)
	}
	b := s.Bytes()
	if len(b) <= TemplateSize() ||
		!bytes.HasPrefix(b, lockPrefix) || !bytes.HasSuffix(b, lockSuffix) {
		return nil, fmt.Errorf("%w: template mismatch", ErrMalformedListing)
	}

	splice := script.NewFromBytes(b[len(lockPrefix) : len(b)-len(lockSuffix)])
	var items [][]byte
	for pos := 0; pos < len(*splice); {
		op, err := splice.ReadOp(&pos)
		if err != nil {
			return nil, fmt.Errorf("%w: splice region: %v", ErrMalformedListing, err)
		}
		if op.Op > script.OpPUSHDATA4 {
			return nil, fmt.Errorf("%w: opcode 0x%02x in splice region", ErrMalformedListing, op.Op)
		}
		items = append(items, op.Data)
	}
	if len(items) != 2 {
		return nil, fmt.Errorf("%w: splice region holds %d pushes", ErrMalformedListing, len(items))
	}
	if len(items[0]) != PKHSize {
		return nil, fmt.Errorf("%w: owner PKH is %d bytes", ErrMalformedListing, len(items[0]))
	}
	payout, err := ParsePayoutOutput(items[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedListing, err)
	}
	return &Listing{
		OwnerPKH: append([]byte(nil), items[0]...),
		Payout:   payout,
	}, nil
}

// IsListingScript reports whether s is a well-formed ordinal lock.
func IsListingScript(s *script.Script) bool {
	_, err := ParseListingScript(s)
	return err == nil
}
