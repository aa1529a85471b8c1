package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/celoacademy/academy-backend/internal/logger"
	"github.com/celoacademy/academy-backend/internal/pkg/httpx"
)

// RPCClient is the JSON-RPC surface the badge implementations and the
// submitter need. Kept narrow so tests can fake it.
type RPCClient interface {
	EthCall(ctx context.Context, to Address, data []byte) ([]byte, error)
	SendRawTransaction(ctx context.Context, rawTx string) (string, error)
	TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
	ChainID(ctx context.Context) (uint64, error)
}

// Receipt is the subset of a transaction receipt the submitter cares
// about.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
}

func (r *Receipt) Succeeded() bool { return r != nil && r.Status == 1 }

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcClient struct {
	url        string
	httpClient *http.Client
	log        *logger.Logger
	nextID     atomic.Uint64
}

func NewRPCClient(url string, timeout time.Duration, baseLog *logger.Logger) RPCClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &rpcClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        baseLog.With("client", "RPCClient", "rpc_url", url),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (c *rpcClient) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	status, respBody, err := httpx.PostJSON(ctx, c.httpClient, c.url, body, nil, 3)
	if err != nil {
		c.log.Warn("RPC transport failed", "method", method, "error", err)
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if status != http.StatusOK {
		c.log.Warn("RPC unexpected status", "method", method, "status", status)
		return nil, fmt.Errorf("%s: unexpected status %d", method, status)
	}

	var resp rpcResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		c.log.Warn("RPC response decode failed", "method", method, "error", err)
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if resp.Error != nil {
		c.log.Debug("RPC node returned error", "method", method, "code", resp.Error.Code, "message", resp.Error.Message)
		return nil, fmt.Errorf("%s: %w", method, resp.Error)
	}
	return resp.Result, nil
}

func (c *rpcClient) EthCall(ctx context.Context, to Address, data []byte) ([]byte, error) {
	callObj := map[string]string{
		"to":   to.Hex(),
		"data": "0x" + hex.EncodeToString(data),
	}
	raw, err := c.call(ctx, "eth_call", callObj, "latest")
	if err != nil {
		return nil, err
	}
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return nil, fmt.Errorf("eth_call: decode result: %w", err)
	}
	return decodeHexBytes(hexResult)
}

// SendRawTransaction broadcasts a caller-signed transaction. The
// backend never holds user keys; the direct (non-sponsored) strategy
// receives the signed payload from the wallet and only relays it.
func (c *rpcClient) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	if !strings.HasPrefix(rawTx, "0x") {
		return "", fmt.Errorf("eth_sendRawTransaction: payload missing 0x prefix")
	}
	raw, err := c.call(ctx, "eth_sendRawTransaction", rawTx)
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(raw, &txHash); err != nil {
		return "", fmt.Errorf("eth_sendRawTransaction: decode: %w", err)
	}
	return txHash, nil
}

func (c *rpcClient) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	raw, err := c.call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		// Pending or unknown; the caller keeps polling.
		return nil, nil
	}
	var payload struct {
		TransactionHash string `json:"transactionHash"`
		Status          string `json:"status"`
		BlockNumber     string `json:"blockNumber"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: decode: %w", err)
	}
	status, err := parseHexUint(payload.Status)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: status: %w", err)
	}
	block, err := parseHexUint(payload.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: blockNumber: %w", err)
	}
	return &Receipt{
		TxHash:      payload.TransactionHash,
		Status:      status,
		BlockNumber: block,
	}, nil
}

func (c *rpcClient) ChainID(ctx context.Context) (uint64, error) {
	raw, err := c.call(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	var hexID string
	if err := json.Unmarshal(raw, &hexID); err != nil {
		return 0, fmt.Errorf("eth_chainId: decode: %w", err)
	}
	return parseHexUint(hexID)
}

func decodeHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func parseHexUint(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	return strconv.ParseUint(s, 16, 64)
}
