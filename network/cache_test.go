package network

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, backend BlockchainService) *CachedService {
	t.Helper()
	c, err := OpenCachedService(backend, filepath.Join(t.TempDir(), "cache", "rawtx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachedServiceGetRawTx(t *testing.T) {
	sdkTx := testTx(t, 700)
	txid := sdkTx.TxID().String()
	calls := 0
	backend := &MockBlockchainService{
		GetRawTxFn: func(_ context.Context, id string) ([]byte, error) {
			calls++
			if id != txid {
				return nil, ErrTxNotFound
			}
			return sdkTx.Bytes(), nil
		},
	}
	c := openTestCache(t, backend)

	for i := 0; i < 3; i++ {
		raw, err := c.GetRawTx(context.Background(), txid)
		require.NoError(t, err)
		assert.Equal(t, sdkTx.Bytes(), raw)
	}
	assert.Equal(t, 1, calls, "backend is hit once")

	ok, err := c.Contains(txid)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.GetRawTx(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTxNotFound)
}

func TestCachedServiceRejectsMismatchedTx(t *testing.T) {
	sdkTx := testTx(t, 700)
	wrongID := testTx(t, 800).TxID().String()
	calls := 0
	backend := &MockBlockchainService{
		GetRawTxFn: func(context.Context, string) ([]byte, error) {
			calls++
			return sdkTx.Bytes(), nil
		},
	}
	c := openTestCache(t, backend)

	_, err := c.GetRawTx(context.Background(), wrongID)
	require.NoError(t, err)
	_, err = c.GetRawTx(context.Background(), wrongID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "mismatched bytes are not cached")

	ok, err := c.Contains(wrongID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedServiceBroadcastStores(t *testing.T) {
	sdkTx := testTx(t, 1, 4000)
	txid := sdkTx.TxID().String()
	backend := &MockBlockchainService{
		BroadcastTxFn: func(context.Context, string) (string, error) { return txid, nil },
		GetRawTxFn: func(context.Context, string) ([]byte, error) {
			return nil, errors.New("indexer has not seen it yet")
		},
	}
	c := openTestCache(t, backend)

	got, err := c.BroadcastTx(context.Background(), sdkTx.Hex())
	require.NoError(t, err)
	assert.Equal(t, txid, got)

	raw, err := c.GetRawTx(context.Background(), txid)
	require.NoError(t, err)
	assert.Equal(t, sdkTx.Bytes(), raw)
}

func TestCachedServiceBroadcastRejected(t *testing.T) {
	backend := &MockBlockchainService{
		BroadcastTxFn: func(context.Context, string) (string, error) {
			return "", ErrBroadcastRejected
		},
	}
	c := openTestCache(t, backend)
	_, err := c.BroadcastTx(context.Background(), "00")
	assert.ErrorIs(t, err, ErrBroadcastRejected)
}

func TestCachedServicePersists(t *testing.T) {
	sdkTx := testTx(t, 321)
	txid := sdkTx.TxID().String()
	dbPath := filepath.Join(t.TempDir(), "rawtx.db")
	backend := &MockBlockchainService{
		GetRawTxFn: func(context.Context, string) ([]byte, error) { return sdkTx.Bytes(), nil },
	}

	c, err := OpenCachedService(backend, dbPath)
	require.NoError(t, err)
	_, err = c.GetRawTx(context.Background(), txid)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	offline := &MockBlockchainService{
		GetRawTxFn: func(context.Context, string) ([]byte, error) { return nil, ErrConnectionFailed },
	}
	c2, err := OpenCachedService(offline, dbPath)
	require.NoError(t, err)
	defer c2.Close()
	raw, err := c2.GetRawTx(context.Background(), txid)
	require.NoError(t, err)
	assert.Equal(t, sdkTx.Bytes(), raw)
}

func TestCachedServicePassesThroughUnspent(t *testing.T) {
	backend := &MockBlockchainService{
		ListUnspentFn: func(context.Context, string) ([]*UTXO, error) {
			return []*UTXO{{TxID: "aa", Amount: 10}}, nil
		},
		GetUTXOFn: func(context.Context, string, uint32) (*UTXO, error) { return nil, ErrTxNotFound },
	}
	c := openTestCache(t, backend)

	utxos, err := c.ListUnspent(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Len(t, utxos, 1)
	assert.Equal(t, "aa:0", utxos[0].Outpoint())

	_, err = c.GetUTXO(context.Background(), "aa", 0)
	assert.ErrorIs(t, err, ErrTxNotFound)

	_, err = OpenCachedService(nil, filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}
