package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// maxResponseBytes bounds a backend reply. Raw transactions carrying large
// inscriptions run to several megabytes of hex.
const maxResponseBytes = 64 << 20

// Node JSON-RPC error codes the marketplace reacts to.
const (
	RPCCodeNotFound       = -5  // RPC_INVALID_ADDRESS_OR_KEY: unknown tx
	RPCCodeVerifyError    = -25 // RPC_VERIFY_ERROR: missing or spent inputs
	RPCCodeVerifyRejected = -26 // RPC_VERIFY_REJECTED: policy or script failure
	RPCCodeAlreadyInChain = -27 // RPC_VERIFY_ALREADY_IN_CHAIN
)

// RPCError is an error object returned by the node. It matches
// ErrTxNotFound and ErrBroadcastRejected under errors.Is according to its
// code, so callers never inspect messages.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("network: rpc error %d: %s", e.Code, e.Message)
}

// Is maps node error codes onto the package sentinels.
func (e *RPCError) Is(target error) bool {
	switch target {
	case ErrTxNotFound:
		return e.Code == RPCCodeNotFound
	case ErrBroadcastRejected:
		return e.Code == RPCCodeVerifyError || e.Code == RPCCodeVerifyRejected ||
			e.Code == RPCCodeAlreadyInChain
	}
	return false
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCClient talks to a BSV node over JSON-RPC 1.0 and serves the
// BlockchainService contract from the node's wallet and mempool views.
type RPCClient struct {
	cfg  RPCConfig
	http *http.Client
	seq  atomic.Uint64
}

// NewRPCClient returns a client for the node described by cfg. Basic auth
// is sent when cfg.User is set.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	return &RPCClient{cfg: cfg, http: newHTTPClient()}
}

// newHTTPClient returns the pooled client shared by the REST and RPC backends.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Call invokes method with params and decodes the result into result,
// which may be nil. A JSON null result leaves result untouched.
//
// Transport failures are ErrConnectionFailed, rejected credentials
// ErrAuthFailed, undecodable replies ErrInvalidResponse, and node-side
// failures a *RPCError.
func (c *RPCClient) Call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	id := c.seq.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "1.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("network: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.User != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}

	log.Tracef("rpc %s #%d", method, id)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d", ErrAuthFailed, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s reply: %w", ErrConnectionFailed, method, err)
	}

	// Nodes report RPC failures with HTTP 500 and a regular error body.
	var reply rpcResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, truncate(raw, 1024))
		}
		return fmt.Errorf("%w: decode %s reply: %w", ErrInvalidResponse, method, err)
	}
	if reply.Error != nil {
		return reply.Error
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, truncate(raw, 1024))
	}
	if reply.ID != id {
		return fmt.Errorf("%w: %s reply id %d, want %d", ErrInvalidResponse, method, reply.ID, id)
	}

	if result == nil || len(reply.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Result, result); err != nil {
		return fmt.Errorf("%w: %s result: %w", ErrInvalidResponse, method, err)
	}
	return nil
}

// asRPCError returns the node error carried by err, or nil.
func asRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
