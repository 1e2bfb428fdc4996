// Package keplrbridge adapts a local extension-host bridge to
// port.SigningCapability. The bridge fronts the browser wallet extension:
// it owns the key material and the user-approval UI; this client only
// forwards requests and never sees private keys.
package keplrbridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"lumera_wallet/internal/app/port"
	"lumera_wallet/internal/domain/entity"
	"lumera_wallet/internal/infrastructure/configloader"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks JSON over HTTP to the bridge.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	pollTimeout time.Duration
	logger      port.Logger
}

// NewClient creates a bridge client from configuration.
func NewClient(cfg configloader.SignerBridgeConfig, logger port.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{
			// Signing waits on the user approving in the extension popup.
			Timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		},
		pollTimeout: time.Duration(cfg.PollTimeoutSeconds) * time.Second,
		logger:      logger,
	}
}

var _ port.SigningCapability = (*Client)(nil)

type enableRequest struct {
	ChainID string `json:"chainId"`
}

type accountsResponse struct {
	Accounts []entity.Account `json:"accounts"`
}

type signRequest struct {
	Signer string      `json:"signer"`
	Msgs   []signedMsg `json:"msgs"`
	Fee    entity.Fee  `json:"fee"`
	Memo   string      `json:"memo"`
}

// signedMsg pairs a message payload with its type URL so the bridge can
// rebuild the typed message.
type signedMsg struct {
	Type  string `json:"@type"`
	Value any    `json:"value"`
}

type signResponse struct {
	TxBytes string `json:"txBytes"` // base64
}

// Available probes the bridge; an unreachable bridge means no wallet.
func (c *Client) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Enable asks the extension to unlock and authorize the chain.
func (c *Client) Enable(ctx context.Context, chainID string) error {
	return c.post(ctx, "/enable", enableRequest{ChainID: chainID}, nil)
}

// SuggestChain registers the network-parameter table with the extension.
func (c *Client) SuggestChain(ctx context.Context, def entity.ChainDefinition) error {
	return c.post(ctx, "/suggest-chain", def, nil)
}

// Accounts lists the accounts the extension exposes for the chain.
func (c *Client) Accounts(ctx context.Context, chainID string) ([]entity.Account, error) {
	var parsed accountsResponse
	endpoint := "/accounts?chainId=" + url.QueryEscape(chainID)
	if err := c.get(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}
	return parsed.Accounts, nil
}

// Sign forwards the messages for signing and returns the opaque signed
// transaction. A non-OK response is a user rejection or extension error.
func (c *Client) Sign(ctx context.Context, signer string, msgs []entity.Msg, fee entity.Fee, memo string) (entity.SignedTx, error) {
	payload := signRequest{Signer: signer, Fee: fee, Memo: memo}
	for _, m := range msgs {
		payload.Msgs = append(payload.Msgs, signedMsg{Type: m.MsgType(), Value: m})
	}

	var parsed signResponse
	if err := c.post(ctx, "/sign", payload, &parsed); err != nil {
		return entity.SignedTx{}, err
	}
	txBytes, err := base64.StdEncoding.DecodeString(parsed.TxBytes)
	if err != nil {
		return entity.SignedTx{}, fmt.Errorf("bridge returned malformed tx bytes: %w", err)
	}
	return entity.SignedTx{TxBytes: txBytes}, nil
}

// AccountChanges long-polls the bridge's keystore-change feed. Each 200
// means the selected account changed; 204 is a poll timeout. The returned
// channel closes when ctx is cancelled.
func (c *Client) AccountChanges(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			changed, err := c.pollKeystoreChange(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				c.logger.Warn("Keystore-change poll failed, backing off", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
				continue
			}
			if changed {
				select {
				case ch <- struct{}{}:
				default: // listener busy reconnecting, signal already pending
				}
			}
		}
	}()
	return ch, nil
}

func (c *Client) pollKeystoreChange(ctx context.Context) (bool, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout+10*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/events/keystore-change?timeoutSeconds=%d", c.baseURL, int(c.pollTimeout.Seconds()))
	req, err := http.NewRequestWithContext(pollCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNoContent:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected keystore-change status %d", resp.StatusCode)
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, endpoint string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal bridge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read bridge response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge %s returned status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal bridge response from %s: %w", req.URL.Path, err)
	}
	return nil
}
