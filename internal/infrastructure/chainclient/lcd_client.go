package chainclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lumera_wallet/internal/app/port"
	"lumera_wallet/internal/domain/entity"
	"lumera_wallet/internal/infrastructure/configloader"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// broadcastModeSync returns the hash after CheckTx, matching what the UI
// shows the user.
const broadcastModeSync = "BROADCAST_MODE_SYNC"

// LCDClient implements port.ChainGateway against a Cosmos SDK node's
// LCD (REST) API.
type LCDClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger

	historyPageSize int
}

// NewLCDClient creates an LCD gateway for the configured REST endpoint.
func NewLCDClient(baseURL string, cfg configloader.LCDClientConfig, logger *zap.Logger) *LCDClient {
	return &LCDClient{
		client:          &fasthttp.Client{},
		baseURL:         strings.TrimRight(baseURL, "/"),
		timeout:         time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		limiter:         rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstLimit),
		logger:          logger.Named("LCDClient"),
		historyPageSize: cfg.HistoryPageSize,
	}
}

var _ port.ChainGateway = (*LCDClient)(nil)

// GetBalance implements port.ChainGateway.
func (c *LCDClient) GetBalance(ctx context.Context, address, denom string) (entity.Coin, error) {
	requestURL := fmt.Sprintf("%s/cosmos/bank/v1beta1/balances/%s/by_denom?denom=%s",
		c.baseURL, address, url.QueryEscape(denom))

	body, err := c.doGet(ctx, requestURL)
	if err != nil {
		return entity.Coin{}, err
	}

	var parsed balanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return entity.Coin{}, fmt.Errorf("failed to unmarshal balance response: %w", err)
	}
	coin := entity.Coin{Denom: parsed.Balance.Denom, Amount: parsed.Balance.Amount}
	if coin.Denom == "" {
		// Node omits the balance object for accounts that never held the denom.
		coin = entity.Coin{Denom: denom, Amount: "0"}
	}
	return coin, nil
}

// GetAllBalances implements port.ChainGateway.
func (c *LCDClient) GetAllBalances(ctx context.Context, address string) ([]entity.Coin, error) {
	requestURL := fmt.Sprintf("%s/cosmos/bank/v1beta1/balances/%s", c.baseURL, address)

	body, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed allBalancesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balances response: %w", err)
	}
	coins := make([]entity.Coin, 0, len(parsed.Balances))
	for _, b := range parsed.Balances {
		coins = append(coins, entity.Coin{Denom: b.Denom, Amount: b.Amount})
	}
	return coins, nil
}

// GetTransactionHistory implements port.ChainGateway. The LCD has no single
// "transactions of address" query, so sent and received entries come from
// two event queries, merged, deduped by hash and ordered height-descending.
func (c *LCDClient) GetTransactionHistory(ctx context.Context, address string) ([]entity.RawTxEntry, error) {
	sent, err := c.queryTxs(ctx, fmt.Sprintf("message.sender='%s'", address))
	if err != nil {
		return nil, err
	}
	received, err := c.queryTxs(ctx, fmt.Sprintf("transfer.recipient='%s'", address))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(sent)+len(received))
	merged := make([]entity.RawTxEntry, 0, len(sent)+len(received))
	for _, e := range append(sent, received...) {
		if seen[e.Hash] {
			continue
		}
		seen[e.Hash] = true
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Height > merged[j].Height })

	c.logger.Debug("Transaction history fetched",
		zap.String("address", address),
		zap.Int("sent", len(sent)),
		zap.Int("received", len(received)),
		zap.Int("merged", len(merged)))
	return merged, nil
}

func (c *LCDClient) queryTxs(ctx context.Context, events string) ([]entity.RawTxEntry, error) {
	requestURL := fmt.Sprintf("%s/cosmos/tx/v1beta1/txs?events=%s&order_by=ORDER_BY_DESC&pagination.limit=%d",
		c.baseURL, url.QueryEscape(events), c.historyPageSize)

	body, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed txsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tx query response: %w", err)
	}

	entries := make([]entity.RawTxEntry, 0, len(parsed.TxResponses))
	for _, tr := range parsed.TxResponses {
		entries = append(entries, decodeTxResponse(tr))
	}
	return entries, nil
}

func decodeTxResponse(tr txResponseJSON) entity.RawTxEntry {
	height, _ := strconv.ParseInt(tr.Height, 10, 64)
	ts, _ := time.Parse(time.RFC3339, tr.Timestamp)

	entry := entity.RawTxEntry{
		Hash:      tr.TxHash,
		Height:    height,
		Timestamp: ts,
		Code:      tr.Code,
		Memo:      tr.Tx.Body.Memo,
	}
	for _, m := range tr.Tx.Body.Messages {
		entry.Messages = append(entry.Messages, entity.RawMessage{
			Type:             m.Type,
			FromAddress:      m.FromAddress,
			ToAddress:        m.ToAddress,
			DelegatorAddress: m.DelegatorAddress,
			ValidatorAddress: m.ValidatorAddress,
			Amounts:          decodeAmount(m.Amount),
		})
	}
	return entry
}

// decodeAmount accepts both coin payload shapes: bank sends carry an array,
// staking messages a single object. Unknown shapes yield no coins.
func decodeAmount(raw jsoniter.RawMessage) []entity.Coin {
	if len(raw) == 0 {
		return nil
	}
	var many []coinJSON
	if err := json.Unmarshal(raw, &many); err == nil {
		coins := make([]entity.Coin, 0, len(many))
		for _, c := range many {
			coins = append(coins, entity.Coin{Denom: c.Denom, Amount: c.Amount})
		}
		return coins
	}
	var one coinJSON
	if err := json.Unmarshal(raw, &one); err == nil && one.Denom != "" {
		return []entity.Coin{{Denom: one.Denom, Amount: one.Amount}}
	}
	return nil
}

// GetValidators implements port.ChainGateway. Only bonded validators are
// listed; ordering is whatever the node returns.
func (c *LCDClient) GetValidators(ctx context.Context) ([]entity.ValidatorDescriptor, error) {
	requestURL := fmt.Sprintf("%s/cosmos/staking/v1beta1/validators?status=BOND_STATUS_BONDED&pagination.limit=%d",
		c.baseURL, 100)

	body, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed validatorsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validators response: %w", err)
	}

	descriptors := make([]entity.ValidatorDescriptor, 0, len(parsed.Validators))
	for _, v := range parsed.Validators {
		descriptors = append(descriptors, entity.ValidatorDescriptor{
			OperatorAddress: v.OperatorAddress,
			Moniker:         v.Description.Moniker,
			CommissionRate:  v.Commission.CommissionRates.Rate,
		})
	}
	return descriptors, nil
}

// Broadcast implements port.ChainGateway. A non-zero CheckTx code is a
// rejection and surfaces as entity.BroadcastError.
func (c *LCDClient) Broadcast(ctx context.Context, tx entity.SignedTx) (string, error) {
	payload, err := json.Marshal(broadcastRequest{
		TxBytes: base64.StdEncoding.EncodeToString(tx.TxBytes),
		Mode:    broadcastModeSync,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal broadcast request: %w", err)
	}

	body, err := c.doPost(ctx, c.baseURL+"/cosmos/tx/v1beta1/txs", payload)
	if err != nil {
		return "", err
	}

	var parsed broadcastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal broadcast response: %w", err)
	}
	if parsed.TxResponse.Code != 0 {
		c.logger.Warn("Broadcast rejected by node",
			zap.Uint32("code", parsed.TxResponse.Code),
			zap.String("raw_log", parsed.TxResponse.RawLog))
		return "", &entity.BroadcastError{Code: parsed.TxResponse.Code, RawLog: parsed.TxResponse.RawLog}
	}
	return parsed.TxResponse.TxHash, nil
}

func (c *LCDClient) doGet(ctx context.Context, requestURL string) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, requestURL, nil)
}

func (c *LCDClient) doPost(ctx context.Context, requestURL string, payload []byte) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodPost, requestURL, payload)
}

func (c *LCDClient) do(ctx context.Context, method, requestURL string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if payload != nil {
		req.SetBody(payload)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Error("LCD request failed", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrNetworkUnreachable, requestURL, err)
	}

	// Body is only valid until the response is released.
	body := append([]byte(nil), resp.Body()...)

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("LCD request returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", body))
		return nil, fmt.Errorf("LCD request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(body))
	}
	return body, nil
}
