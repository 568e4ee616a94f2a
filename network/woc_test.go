package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

// testTx builds a parseable one-input transaction paying sats to a fixed P2PKH script.
func testTx(t *testing.T, sats ...uint64) *transaction.Transaction {
	t.Helper()
	src, err := chainhash.NewHashFromHex(strings.Repeat("ab", 32))
	require.NoError(t, err)
	lock, err := script.NewFromHex("76a914" + strings.Repeat("11", 20) + "88ac")
	require.NoError(t, err)

	sdkTx := transaction.NewTransaction()
	sdkTx.AddInput(&transaction.TransactionInput{
		SourceTXID:       src,
		SourceTxOutIndex: 0,
		UnlockingScript:  &script.Script{},
		SequenceNumber:   transaction.DefaultSequenceNumber,
	})
	for _, s := range sats {
		sdkTx.AddOutput(&transaction.TransactionOutput{Satoshis: s, LockingScript: lock})
	}
	return sdkTx
}

func TestNewWOCClientDefaults(t *testing.T) {
	assert.Equal(t, WOCMainnetURL, NewWOCClient(WOCConfig{}).baseURL)
	assert.Equal(t, WOCMainnetURL, NewWOCClient(WOCConfig{Network: "mainnet"}).baseURL)
	assert.Equal(t, WOCTestnetURL, NewWOCClient(WOCConfig{Network: "testnet"}).baseURL)
	assert.Equal(t, "http://mirror", NewWOCClient(WOCConfig{BaseURL: "http://mirror/"}).baseURL)
}

func TestWOCListUnspent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/address/"+testAddr+"/unspent", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"height":0,"tx_pos":1,"tx_hash":"bb","value":1},
			{"height":800000,"tx_pos":0,"tx_hash":"aa","value":50000}
		]`))
	}))
	defer server.Close()

	client := NewWOCClient(WOCConfig{BaseURL: server.URL})
	utxos, err := client.ListUnspent(context.Background(), testAddr)
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	// Indexer order is preserved.
	assert.Equal(t, "bb", utxos[0].TxID)
	assert.Equal(t, uint32(1), utxos[0].Vout)
	assert.Equal(t, uint64(1), utxos[0].Amount)
	assert.Equal(t, "aa", utxos[1].TxID)
	assert.Equal(t, uint64(50000), utxos[1].Amount)
	assert.Equal(t, testAddr, utxos[1].Address)
}

func TestWOCListUnspentErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "garbage") {
			_, _ = w.Write([]byte(`{not json`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	client := NewWOCClient(WOCConfig{BaseURL: server.URL})
	_, err := client.ListUnspent(context.Background(), testAddr)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "rate limited")

	_, err = client.ListUnspent(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidResponse)

	down := NewWOCClient(WOCConfig{BaseURL: "http://localhost:1"})
	_, err = down.ListUnspent(context.Background(), testAddr)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestWOCGetRawTx(t *testing.T) {
	sdkTx := testTx(t, 1000)
	txid := sdkTx.TxID().String()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tx/"+txid+"/hex" {
			_, _ = w.Write([]byte(sdkTx.Hex() + "\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewWOCClient(WOCConfig{BaseURL: server.URL})
	raw, err := client.GetRawTx(context.Background(), txid)
	require.NoError(t, err)
	assert.Equal(t, sdkTx.Bytes(), raw)

	_, err = client.GetRawTx(context.Background(), strings.Repeat("00", 32))
	assert.ErrorIs(t, err, ErrTxNotFound)
}

func TestWOCGetUTXO(t *testing.T) {
	sdkTx := testTx(t, 1, 2500)
	txid := sdkTx.TxID().String()
	scriptHash := ScriptHash(sdkTx.Outputs[1].LockingScript.Bytes())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tx/" + txid + "/hex":
			_, _ = w.Write([]byte(sdkTx.Hex()))
		case "/script/" + scriptHash + "/unspent":
			// Only output 1 is still unspent.
			_ = json.NewEncoder(w).Encode([]wocUnspent{{TxHash: txid, TxPos: 1, Value: 2500}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewWOCClient(WOCConfig{BaseURL: server.URL})
	utxo, err := client.GetUTXO(context.Background(), txid, 1)
	require.NoError(t, err)
	assert.Equal(t, txid, utxo.TxID)
	assert.Equal(t, uint64(2500), utxo.Amount)
	assert.Equal(t, hex.EncodeToString(sdkTx.Outputs[1].LockingScript.Bytes()), utxo.ScriptPubKey)

	// Both outputs share a script; output 0 is not in the listing.
	_, err = client.GetUTXO(context.Background(), txid, 0)
	assert.ErrorIs(t, err, ErrTxNotFound)

	_, err = client.GetUTXO(context.Background(), txid, 5)
	assert.ErrorIs(t, err, ErrTxNotFound)
}

func TestWOCBroadcastTx(t *testing.T) {
	sdkTx := testTx(t, 900)
	txid := sdkTx.TxID().String()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tx/raw", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		var req struct {
			TxHex string `json:"txhex"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		if req.TxHex != sdkTx.Hex() {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`unexpected response code 500: 16: mandatory-script-verify-flag-failed`))
			return
		}
		_, _ = w.Write([]byte(`"` + txid + `"`))
	}))
	defer server.Close()

	client := NewWOCClient(WOCConfig{BaseURL: server.URL})
	got, err := client.BroadcastTx(context.Background(), sdkTx.Hex())
	require.NoError(t, err)
	assert.Equal(t, txid, got)

	_, err = client.BroadcastTx(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrBroadcastRejected)
	assert.Contains(t, err.Error(), "mandatory-script-verify-flag-failed")
}

func TestScriptHash(t *testing.T) {
	// sha256 of the empty string, byte-reversed.
	assert.Equal(t,
		"55b852781b9995a44c939b64e441ae2724b96f99c8f4fb9a141cfc9842c4b0e3",
		ScriptHash(nil))
}
