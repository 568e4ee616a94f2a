package tx

import (
	"bytes"
	"fmt"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKeyPair(t *testing.T) (*ec.PrivateKey, *ec.PublicKey) {
	t.Helper()
	privKey, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return privKey, privKey.PubKey()
}

func testAddress(t *testing.T, key *ec.PrivateKey) string {
	t.Helper()
	addr, err := AddressForKey(key, true)
	require.NoError(t, err)
	return addr
}

func testTxIDHex(n int) string {
	return fmt.Sprintf("%064x", n)
}

// --- UTXO tests ---

func TestTxIDFromHex_RoundTrip(t *testing.T) {
	hexID := "a1b2c3d4e5f60718293a4b5c6d7e8f90112233445566778899aabbccddeeff00"
	raw, err := TxIDFromHex(hexID)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	// Internal order is the reverse of display order.
	assert.Equal(t, byte(0x00), raw[0])
	assert.Equal(t, byte(0xa1), raw[31])

	u := &UTXO{TxID: raw, Vout: 3}
	assert.Equal(t, hexID, u.TxIDHex())
	assert.Equal(t, hexID+":3", u.String())
}

func TestTxIDFromHex_Invalid(t *testing.T) {
	for _, in := range []string{"", "abcd", "zz" + testTxIDHex(0)[2:]} {
		_, err := TxIDFromHex(in)
		assert.ErrorIs(t, err, ErrInvalidTxID, "input %q", in)
	}
}

func TestUTXOFromRawTx(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	lock, err := BuildP2PKHScript(pub)
	require.NoError(t, err)

	src := transaction.NewTransaction()
	src.AddOutput(&transaction.TransactionOutput{Satoshis: 1, LockingScript: script.NewFromBytes(lock)})
	src.AddOutput(&transaction.TransactionOutput{Satoshis: 5000, LockingScript: script.NewFromBytes(lock)})

	u, err := UTXOFromRawTx(src.Bytes(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), u.Vout)
	assert.Equal(t, uint64(5000), u.Amount)
	assert.Equal(t, lock, u.ScriptPubKey)
	assert.Equal(t, src.TxID().String(), u.TxIDHex())

	_, err = UTXOFromRawTx(src.Bytes(), 2)
	assert.ErrorIs(t, err, ErrOutputNotFound)

	_, err = UTXOFromRawTx([]byte{0xff, 0x00}, 0)
	assert.Error(t, err)
}

func TestAddInput_AttachesSourceOutput(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	lock, err := BuildP2PKHScript(pub)
	require.NoError(t, err)

	u := &UTXO{TxID: bytes.Repeat([]byte{0x42}, 32), Vout: 7, Amount: 1234, ScriptPubKey: lock}
	sdkTx := transaction.NewTransaction()
	require.NoError(t, AddInput(sdkTx, u))

	require.Len(t, sdkTx.Inputs, 1)
	in := sdkTx.Inputs[0]
	assert.Equal(t, uint32(7), in.SourceTxOutIndex)
	assert.Equal(t, u.TxID, in.SourceTXID.CloneBytes())
	require.NotNil(t, in.SourceTxOutput())
	assert.Equal(t, uint64(1234), in.SourceTxOutput().Satoshis)

	assert.ErrorIs(t, AddInput(nil, u), ErrNilParam)
	assert.ErrorIs(t, AddInput(sdkTx, &UTXO{TxID: []byte{0x01}}), ErrInvalidTxID)
}

func TestSumHelpers(t *testing.T) {
	assert.Equal(t, uint64(0), SumAmounts(nil))
	assert.Equal(t, uint64(30), SumAmounts([]*UTXO{{Amount: 10}, {Amount: 20}}))

	_, pub := generateTestKeyPair(t)
	lock, err := BuildP2PKHScript(pub)
	require.NoError(t, err)
	sdkTx := transaction.NewTransaction()
	sdkTx.AddOutput(&transaction.TransactionOutput{Satoshis: 1, LockingScript: script.NewFromBytes(lock)})
	sdkTx.AddOutput(&transaction.TransactionOutput{Satoshis: 99, LockingScript: script.NewFromBytes(lock)})
	assert.Equal(t, uint64(100), SumOutputs(sdkTx))
}
