package tx

import (
	"testing"
)

// FuzzTxIDFromHexNoPanic ensures TxIDFromHex never panics and only accepts
// 64 hex digit IDs.
func FuzzTxIDFromHexNoPanic(f *testing.F) {
	f.Add("")
	f.Add("abcd")
	f.Add(testTxIDHex(7))
	f.Add("zz" + testTxIDHex(0)[2:])

	f.Fuzz(func(t *testing.T, s string) {
		raw, err := TxIDFromHex(s)
		if err != nil {
			return
		}
		if len(s) != 64 || len(raw) != 32 {
			t.Fatalf("accepted %q as %d bytes", s, len(raw))
		}
		u := &UTXO{TxID: raw}
		if u.TxIDHex() == "" {
			t.Fatalf("accepted %q but cannot render it", s)
		}
	})
}

// FuzzUTXOFromRawTxNoPanic ensures raw transaction parsing never panics.
func FuzzUTXOFromRawTxNoPanic(f *testing.F) {
	f.Add([]byte{}, uint32(0))
	f.Add([]byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, uint32(0))
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff}, uint32(3))

	f.Fuzz(func(t *testing.T, raw []byte, vout uint32) {
		UTXOFromRawTx(raw, vout)
	})
}

// FuzzEstimateFeeForSize checks the estimate never decreases with size.
func FuzzEstimateFeeForSize(f *testing.F) {
	f.Add(0, 10, uint64(1))
	f.Add(1000, 1, uint64(1))
	f.Add(100000, 5000, uint64(500))
	f.Add(-5, 3, uint64(50))

	f.Fuzz(func(t *testing.T, size, delta int, feePerKB uint64) {
		if delta < 0 || size > 1<<30 || delta > 1<<30 || feePerKB > 1<<32 {
			return
		}
		small := EstimateFeeForSize(size, feePerKB)
		large := EstimateFeeForSize(size+delta, feePerKB)
		if large < small {
			t.Fatalf("fee(%d)=%d < fee(%d)=%d at %d sat/KB", size+delta, large, size, small, feePerKB)
		}
		if small < 1 {
			t.Fatalf("fee(%d)=%d below the +1 floor", size, small)
		}
	})
}
