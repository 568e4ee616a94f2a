package network

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	hash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// WhatsOnChain API roots.
const (
	WOCMainnetURL = "https://api.whatsonchain.com/v1/bsv/main"
	WOCTestnetURL = "https://api.whatsonchain.com/v1/bsv/test"
)

// WOCConfig holds the connection parameters for the WhatsOnChain REST API.
type WOCConfig struct {
	// BaseURL overrides the network default (used by tests and mirrors).
	BaseURL string `json:"base_url"`
	Network string `json:"network"`
}

// WOCClient is a BlockchainService backed by the WhatsOnChain REST indexer.
type WOCClient struct {
	baseURL string
	client  *http.Client
}

var _ BlockchainService = (*WOCClient)(nil)

// wocUnspent is one element of the address and script unspent listings.
type wocUnspent struct {
	Height int64  `json:"height"`
	TxPos  uint32 `json:"tx_pos"`
	TxHash string `json:"tx_hash"`
	Value  uint64 `json:"value"`
}

// NewWOCClient creates a WhatsOnChain client. Without an explicit BaseURL
// the testnet root is used for "testnet" and the mainnet root otherwise.
func NewWOCClient(cfg WOCConfig) *WOCClient {
	base := cfg.BaseURL
	if base == "" {
		base = WOCMainnetURL
		if cfg.Network == "testnet" {
			base = WOCTestnetURL
		}
	}
	return &WOCClient{
		baseURL: strings.TrimRight(base, "/"),
		client:  newHTTPClient(),
	}
}

// do issues a request and returns the response body of a 2xx reply.
// A 404 maps to ErrTxNotFound; other failures keep the server's message.
func (c *WOCClient) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, 0, fmt.Errorf("network: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response: %w", ErrConnectionFailed, err)
	}
	return respBody, resp.StatusCode, nil
}

func (c *WOCClient) getUnspent(ctx context.Context, path string) ([]wocUnspent, error) {
	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, status, truncate(body, 1024))
	}
	var list []wocUnspent
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: decode unspent list: %w", ErrInvalidResponse, err)
	}
	return list, nil
}

// ListUnspent returns the unspent outputs of address in the order the indexer
// reports them. Amounts are already in satoshis.
func (c *WOCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	list, err := c.getUnspent(ctx, "/address/"+address+"/unspent")
	if err != nil {
		return nil, err
	}
	log.Debugf("woc unspent %s: %d outputs", address, len(list))

	utxos := make([]*UTXO, len(list))
	for i, u := range list {
		utxos[i] = &UTXO{
			TxID:    u.TxHash,
			Vout:    u.TxPos,
			Amount:  u.Value,
			Address: address,
		}
	}
	return utxos, nil
}

// GetUTXO resolves txid:vout and reports whether it is still unspent. The
// output's locking script is looked up in the source transaction and the
// script-hash unspent listing is searched for the outpoint.
func (c *WOCClient) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	raw, err := c.GetRawTx(ctx, txid)
	if err != nil {
		return nil, err
	}
	sdkTx, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse tx %s: %v", ErrInvalidResponse, txid, err)
	}
	if int(vout) >= len(sdkTx.Outputs) {
		return nil, fmt.Errorf("%w: %s has no output %d", ErrTxNotFound, txid, vout)
	}
	out := sdkTx.Outputs[vout]

	list, err := c.getUnspent(ctx, "/script/"+ScriptHash(out.LockingScript.Bytes())+"/unspent")
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		if u.TxHash == txid && u.TxPos == vout {
			return &UTXO{
				TxID:         txid,
				Vout:         vout,
				Amount:       out.Satoshis,
				ScriptPubKey: hex.EncodeToString(out.LockingScript.Bytes()),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: output %s is spent", ErrTxNotFound, outpoint(txid, vout))
}

// GetRawTx returns the raw transaction bytes for the given txid.
func (c *WOCClient) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/tx/"+txid+"/hex", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txid)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, status, truncate(body, 1024))
	}
	data, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tx hex: %v", ErrInvalidResponse, err)
	}
	return data, nil
}

// BroadcastTx posts a raw transaction and returns the txid the indexer
// reports. Rejections keep the server's message verbatim.
func (c *WOCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	payload, err := json.Marshal(struct {
		TxHex string `json:"txhex"`
	}{rawTxHex})
	if err != nil {
		return "", fmt.Errorf("network: marshal broadcast: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/tx/raw", payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, strings.TrimSpace(string(body)))
	}

	var txid string
	if err := json.Unmarshal(body, &txid); err != nil {
		txid = strings.Trim(strings.TrimSpace(string(body)), `"`)
	}
	if len(txid) != 64 {
		return "", fmt.Errorf("%w: unexpected broadcast reply %q", ErrInvalidResponse, truncate(body, 256))
	}
	log.Infof("broadcast %s via WhatsOnChain", txid)
	return txid, nil
}

// ScriptHash returns the Electrum-style script hash of a locking script:
// sha256 in reversed byte order, hex encoded.
func ScriptHash(lockingScript []byte) string {
	h := hash.Sha256(lockingScript)
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return hex.EncodeToString(h)
}
