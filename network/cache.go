package network

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"go.etcd.io/bbolt"
)

var bucketRawTxs = []byte("raw_txs")

// cachedTx is the gob-encoded value stored per txid.
type cachedTx struct {
	Raw      []byte
	StoredAt int64
}

// CachedService decorates a BlockchainService with a bbolt-backed cache of
// raw transactions. Transactions are immutable once mined or accepted, so
// entries never expire. Unspent queries always go to the backend.
type CachedService struct {
	BlockchainService
	db *bbolt.DB
}

var _ BlockchainService = (*CachedService)(nil)

// OpenCachedService opens or creates the cache database at dbPath and wraps
// backend. The parent directory is created if it does not exist.
func OpenCachedService(backend BlockchainService, dbPath string) (*CachedService, error) {
	if backend == nil {
		return nil, fmt.Errorf("network: cache requires a backend")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("network: create cache directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("network: open cache db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRawTxs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("network: create cache bucket: %w", err)
	}

	return &CachedService{BlockchainService: backend, db: db}, nil
}

// Close closes the underlying database.
func (c *CachedService) Close() error { return c.db.Close() }

// GetRawTx serves txid from the cache, falling back to the backend and
// storing what it returns.
func (c *CachedService) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	entry, err := c.lookup(txid)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		log.Tracef("raw tx cache hit %s", txid)
		return entry.Raw, nil
	}

	raw, err := c.BlockchainService.GetRawTx(ctx, txid)
	if err != nil {
		return nil, err
	}
	if err := c.store(txid, raw); err != nil {
		log.Warnf("raw tx cache store %s: %v", txid, err)
	}
	return raw, nil
}

// BroadcastTx forwards to the backend and caches the accepted transaction, so
// it can be spent again before the indexer has seen it.
func (c *CachedService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	txid, err := c.BlockchainService.BroadcastTx(ctx, rawTxHex)
	if err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(rawTxHex)
	if err != nil {
		return txid, nil
	}
	if err := c.store(txid, raw); err != nil {
		log.Warnf("raw tx cache store %s: %v", txid, err)
	}
	return txid, nil
}

// Contains reports whether txid is cached.
func (c *CachedService) Contains(txid string) (bool, error) {
	entry, err := c.lookup(txid)
	return entry != nil, err
}

func (c *CachedService) lookup(txid string) (*cachedTx, error) {
	var entry *cachedTx
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRawTxs).Get([]byte(txid))
		if data == nil {
			return nil
		}
		var e cachedTx
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
			return fmt.Errorf("network: decode cached tx %s: %w", txid, err)
		}
		entry = &e
		return nil
	})
	return entry, err
}

// store writes raw under txid after checking that it hashes to txid.
func (c *CachedService) store(txid string, raw []byte) error {
	sdkTx, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if got := sdkTx.TxID().String(); got != txid {
		return fmt.Errorf("txid mismatch: got %s", got)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cachedTx{Raw: raw, StoredAt: time.Now().Unix()}); err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRawTxs).Put([]byte(txid), buf.Bytes())
	})
}
