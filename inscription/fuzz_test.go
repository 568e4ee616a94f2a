package inscription

import (
	"bytes"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/libord-go/tx"
)

// FuzzParseInscriptionNoPanic ensures ParseInscription never panics on
// arbitrary scripts.
func FuzzParseInscriptionNoPanic(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{script.OpFALSE, script.OpIF, 0x03, 'o', 'r', 'd', script.OpENDIF})
	f.Add([]byte{script.OpPUSHDATA4, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, b []byte) {
		ParseInscription(script.NewFromBytes(b))
	})
}

// FuzzBuildParseRoundTrip verifies BuildInscriptionScript followed by
// ParseInscription recovers the payload and media type.
func FuzzBuildParseRoundTrip(f *testing.F) {
	f.Add([]byte{}, "text/plain")
	f.Add([]byte("hello"), "text/plain;charset=utf-8")
	f.Add(make([]byte, 600), "application/octet-stream")
	f.Add([]byte{0x00, 0x4c, 0x4d, 0x4e}, "image/png")

	key, err := ec.NewPrivateKey()
	if err != nil {
		f.Fatal(err)
	}
	addr, err := tx.AddressForKey(key, true)
	if err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, data []byte, mediaType string) {
		s, err := BuildInscriptionScript(addr, data, mediaType, nil)
		if err != nil {
			t.Fatalf("BuildInscriptionScript: %v", err)
		}
		ins, err := ParseInscription(s)
		if err != nil {
			t.Fatalf("ParseInscription: %v", err)
		}
		if !bytes.Equal(ins.Data, data) {
			t.Error("payload mismatch")
		}
		if ins.MediaType != mediaType {
			t.Errorf("media type %q, want %q", ins.MediaType, mediaType)
		}
	})
}
