package relay

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/celoacademy/academy-backend/internal/chain"
	"github.com/celoacademy/academy-backend/internal/logger"
	"github.com/celoacademy/academy-backend/internal/pkg/httpx"
)

// ErrNotReady is returned when a sponsored send is attempted before
// Initialize has completed. Callers surface it as RELAY_NOT_READY and
// must not silently fall back to a user-pays path.
var ErrNotReady = errors.New("relay not initialized")

// Client is the gas-sponsoring relay the submitter uses for sponsored
// transactions. The relay is opaque: all this backend depends on is the
// readiness flag and the send contract.
type Client interface {
	Initialize(ctx context.Context) error
	Ready() bool
	SponsorAddress() chain.Address
	SendTransaction(ctx context.Context, to chain.Address, data []byte, value uint64) (string, error)
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string

	mu      sync.RWMutex
	ready   bool
	sponsor chain.Address
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimSpace(os.Getenv("RELAY_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing RELAY_URL")
	}
	return &client{
		log:        log.With("client", "RelayClient"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(os.Getenv("RELAY_API_KEY")),
	}, nil
}

// Initialize opens a sponsorship session. It must complete before any
// SendTransaction; it is safe to call again after a failure.
func (c *client) Initialize(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"purpose": "badge-actions"})
	if err != nil {
		return err
	}
	status, respBody, err := httpx.PostJSON(ctx, c.httpClient, c.baseURL+"/v1/session", body, c.headers(), 3)
	if err != nil {
		return fmt.Errorf("relay session: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("relay session: unexpected status %d", status)
	}

	var payload struct {
		SponsorAddress string `json:"sponsor_address"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return fmt.Errorf("relay session: decode: %w", err)
	}
	sponsor, err := chain.ParseAddress(payload.SponsorAddress)
	if err != nil {
		return fmt.Errorf("relay session: sponsor address: %w", err)
	}

	c.mu.Lock()
	c.ready = true
	c.sponsor = sponsor
	c.mu.Unlock()
	c.log.Info("Relay session established", "sponsor", sponsor.Hex())
	return nil
}

func (c *client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *client) SponsorAddress() chain.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sponsor
}

func (c *client) SendTransaction(ctx context.Context, to chain.Address, data []byte, value uint64) (string, error) {
	if !c.Ready() {
		return "", ErrNotReady
	}

	body, err := json.Marshal(map[string]interface{}{
		"to":    to.Hex(),
		"data":  "0x" + hex.EncodeToString(data),
		"value": value,
	})
	if err != nil {
		return "", err
	}
	status, respBody, err := httpx.PostJSON(ctx, c.httpClient, c.baseURL+"/v1/transactions", body, c.headers(), 1)
	if err != nil {
		return "", fmt.Errorf("relay send: %w", err)
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return "", fmt.Errorf("relay send: unexpected status %d", status)
	}

	var payload struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fmt.Errorf("relay send: decode: %w", err)
	}
	if payload.TxHash == "" {
		return "", fmt.Errorf("relay send: empty tx hash")
	}
	return payload.TxHash, nil
}

func (c *client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}
