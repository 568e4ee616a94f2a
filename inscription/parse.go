package inscription

import (
	"bytes"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
)

const p2pkhLen = 25

// ParseInscription decodes a script produced by BuildInscriptionScript.
func ParseInscription(s *script.Script) (*Inscription, error) {
	if s == nil || len(*s) < p2pkhLen || !script.NewFromBytes((*s)[:p2pkhLen]).IsP2PKH() {
		return nil, fmt.Errorf("%w: missing P2PKH prefix", ErrNotInscription)
	}
	ins := &Inscription{OwnerPKH: append([]byte(nil), (*s)[3:23]...)}

	r := &opReader{s: s, pos: p2pkhLen}
	if err := r.expectOp(script.OpFALSE, script.OpIF); err != nil {
		return nil, err
	}
	tag, err := r.push()
	if err != nil || string(tag) != ordTag {
		return nil, fmt.Errorf("%w: missing ord tag", ErrNotInscription)
	}
	if err := r.expectOp(script.Op1); err != nil {
		return nil, err
	}
	mediaType, err := r.push()
	if err != nil {
		return nil, fmt.Errorf("%w: media type: %v", ErrNotInscription, err)
	}
	if err := r.expectOp(script.Op0); err != nil {
		return nil, err
	}
	data, err := r.push()
	if err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrNotInscription, err)
	}
	if err := r.expectOp(script.OpENDIF); err != nil {
		return nil, err
	}
	ins.MediaType = string(mediaType)
	ins.Data = data

	if r.done() {
		return ins, nil
	}
	if err := r.expectOp(script.OpRETURN); err != nil {
		return nil, fmt.Errorf("%w: trailing data after envelope", ErrMalformedMetadata)
	}
	md, err := parseMAP(r)
	if err != nil {
		return nil, err
	}
	ins.Metadata = md
	return ins, nil
}

// IsInscription reports whether s parses as an inscription.
func IsInscription(s *script.Script) bool {
	_, err := ParseInscription(s)
	return err == nil
}

func parseMAP(r *opReader) (*Metadata, error) {
	prefix, err := r.push()
	if err != nil || string(prefix) != MAPPrefix {
		return nil, fmt.Errorf("%w: missing MAP prefix", ErrMalformedMetadata)
	}
	cmd, err := r.push()
	if err != nil || string(cmd) != MAPSet {
		return nil, fmt.Errorf("%w: expected SET command", ErrMalformedMetadata)
	}

	md := &Metadata{}
	for !r.done() {
		k, err := r.push()
		if err != nil {
			return nil, fmt.Errorf("%w: key: %v", ErrMalformedMetadata, err)
		}
		v, err := r.push()
		if err != nil {
			return nil, fmt.Errorf("%w: value for %q: %v", ErrMalformedMetadata, k, err)
		}
		if err := md.Set(string(k), v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
		}
	}
	return md, nil
}

// opReader walks a script one operation at a time from pos.
type opReader struct {
	s   *script.Script
	pos int
}

func (r *opReader) done() bool { return r.pos >= len(*r.s) }

func (r *opReader) next() (*script.ScriptChunk, error) {
	if r.done() {
		return nil, fmt.Errorf("unexpected end of script at byte %d", r.pos)
	}
	return r.s.ReadOp(&r.pos)
}

// push reads a data push. OP_0 yields an empty, non-nil slice.
func (r *opReader) push() ([]byte, error) {
	op, err := r.next()
	if err != nil {
		return nil, err
	}
	switch {
	case op.Op <= script.OpPUSHDATA4:
		return append([]byte{}, op.Data...), nil
	case op.Op >= script.Op1 && op.Op <= script.Op16:
		// Minimally encoded single byte 1..16.
		return []byte{op.Op - script.Op1 + 1}, nil
	}
	return nil, fmt.Errorf("opcode 0x%02x is not a data push", op.Op)
}

func (r *opReader) expectOp(ops ...byte) error {
	for _, want := range ops {
		op, err := r.next()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotInscription, err)
		}
		if op.Op != want || len(op.Data) != 0 {
			return fmt.Errorf("%w: expected opcode 0x%02x, got 0x%02x", ErrNotInscription, want, op.Op)
		}
	}
	return nil
}

// OwnedBy reports whether the inscription is locked to pkh.
func (i *Inscription) OwnedBy(pkh []byte) bool {
	return bytes.Equal(i.OwnerPKH, pkh)
}
