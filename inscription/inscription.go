// Package inscription encodes and decodes 1Sat ordinal inscriptions: a P2PKH
// locking script followed by an "ord" data envelope and an optional MAP
// metadata envelope.
package inscription

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/libord-go/tx"
)

const (
	// MAPPrefix is the Bitcom protocol prefix of the MAP metadata protocol.
	MAPPrefix = "1PuQa7K62MiKCtssSLKy1kh56WWU7MtUR5"

	// MAPSet is the MAP command used for inscription metadata.
	MAPSet = "SET"

	ordTag = "ord"
)

// Inscription is the decoded content of an inscription locking script.
type Inscription struct {
	// OwnerPKH is the public key hash of the P2PKH part. Set by ParseInscription.
	OwnerPKH  []byte
	MediaType string
	Data      []byte
	Metadata  *Metadata
}

// BuildInscriptionScript returns
//
//	P2PKH(address) OP_FALSE OP_IF "ord" OP_1 <mediaType> OP_0 <data> OP_ENDIF
//
// followed, when metadata carries both "app" and "type", by
//
//	OP_RETURN <MAP prefix> "SET" <key> <value> ...
//
// with keys in insertion order.
func BuildInscriptionScript(address string, data []byte, mediaType string, metadata *Metadata) (*script.Script, error) {
	lock, err := tx.P2PKHScriptForAddress(address)
	if err != nil {
		return nil, err
	}

	s := script.NewFromBytes(append([]byte(nil), lock.Bytes()...))
	if err := appendEnvelope(s, data, mediaType); err != nil {
		return nil, err
	}
	if metadata.HasMAPFields() {
		if err := appendMAP(s, metadata); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func appendEnvelope(s *script.Script, data []byte, mediaType string) error {
	if err := s.AppendOpcodes(script.OpFALSE, script.OpIF); err != nil {
		return fmt.Errorf("%w: envelope open: %w", tx.ErrScriptBuild, err)
	}
	if err := s.AppendPushData([]byte(ordTag)); err != nil {
		return fmt.Errorf("%w: ord tag: %w", tx.ErrScriptBuild, err)
	}
	if err := s.AppendOpcodes(script.Op1); err != nil {
		return fmt.Errorf("%w: content type field: %w", tx.ErrScriptBuild, err)
	}
	if err := s.AppendPushData([]byte(mediaType)); err != nil {
		return fmt.Errorf("%w: media type: %w", tx.ErrScriptBuild, err)
	}
	if err := s.AppendOpcodes(script.Op0); err != nil {
		return fmt.Errorf("%w: body field: %w", tx.ErrScriptBuild, err)
	}
	if err := s.AppendPushData(data); err != nil {
		return fmt.Errorf("%w: body (%d bytes): %w", tx.ErrScriptBuild, len(data), err)
	}
	if err := s.AppendOpcodes(script.OpENDIF); err != nil {
		return fmt.Errorf("%w: envelope close: %w", tx.ErrScriptBuild, err)
	}
	return nil
}

func appendMAP(s *script.Script, metadata *Metadata) error {
	if err := s.AppendOpcodes(script.OpRETURN); err != nil {
		return fmt.Errorf("%w: OP_RETURN: %w", tx.ErrScriptBuild, err)
	}
	pushes := [][]byte{[]byte(MAPPrefix), []byte(MAPSet)}
	for _, k := range metadata.Keys() {
		v, _ := metadata.Get(k)
		pushes = append(pushes, []byte(k), v)
	}
	for _, p := range pushes {
		if err := s.AppendPushData(p); err != nil {
			return fmt.Errorf("%w: MAP push: %w", tx.ErrScriptBuild, err)
		}
	}
	return nil
}
