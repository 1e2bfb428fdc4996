package chainclient

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lumera_wallet/internal/domain/entity"
	"lumera_wallet/internal/infrastructure/configloader"
)

const testAddr = "lumera1selfxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

func newTestClient(t *testing.T, handler http.Handler) *LCDClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := configloader.LCDClientConfig{
		RequestTimeoutMillis: 5000,
		RateLimit:            1000,
		BurstLimit:           1000,
		HistoryPageSize:      50,
	}
	return NewLCDClient(srv.URL, cfg, zap.NewNop())
}

func TestGetBalance(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cosmos/bank/v1beta1/balances/"+testAddr+"/by_denom", r.URL.Path)
		assert.Equal(t, "ulume", r.URL.Query().Get("denom"))
		io.WriteString(w, `{"balance":{"denom":"ulume","amount":"1500000"}}`)
	}))

	coin, err := c.GetBalance(context.Background(), testAddr, "ulume")
	require.NoError(t, err)
	assert.Equal(t, entity.Coin{Denom: "ulume", Amount: "1500000"}, coin)
}

func TestGetBalanceNeverHeldDenom(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))

	coin, err := c.GetBalance(context.Background(), testAddr, "ulume")
	require.NoError(t, err)
	assert.Equal(t, entity.Coin{Denom: "ulume", Amount: "0"}, coin)
}

func TestGetAllBalances(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cosmos/bank/v1beta1/balances/"+testAddr, r.URL.Path)
		io.WriteString(w, `{"balances":[{"denom":"ulume","amount":"1500000"},{"denom":"ibc/ABCD","amount":"7"}]}`)
	}))

	coins, err := c.GetAllBalances(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, []entity.Coin{
		{Denom: "ulume", Amount: "1500000"},
		{Denom: "ibc/ABCD", Amount: "7"},
	}, coins)
}

func TestGetTransactionHistoryMergesAndDedupes(t *testing.T) {
	// Tx A appears in both the sender and the recipient query; the merged
	// history must carry it once, ordered height-descending.
	sentBody := `{"tx_responses":[
		{"height":"10","txhash":"A","timestamp":"2026-08-01T12:00:00Z","tx":{"body":{"memo":"hi","messages":[
			{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":"` + testAddr + `","to_address":"lumera1other","amount":[{"denom":"ulume","amount":"1000000"}]}
		]}}}
	]}`
	receivedBody := `{"tx_responses":[
		{"height":"10","txhash":"A","timestamp":"2026-08-01T12:00:00Z","tx":{"body":{"memo":"hi","messages":[
			{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":"` + testAddr + `","to_address":"lumera1other","amount":[{"denom":"ulume","amount":"1000000"}]}
		]}}},
		{"height":"12","txhash":"B","timestamp":"2026-08-02T12:00:00Z","tx":{"body":{"messages":[
			{"@type":"/cosmos.staking.v1beta1.MsgDelegate","delegator_address":"` + testAddr + `","validator_address":"lumeravaloper1x","amount":{"denom":"ulume","amount":"5000000"}}
		]}}}
	]}`
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cosmos/tx/v1beta1/txs", r.URL.Path)
		events := r.URL.Query().Get("events")
		switch {
		case strings.HasPrefix(events, "message.sender="):
			io.WriteString(w, sentBody)
		case strings.HasPrefix(events, "transfer.recipient="):
			io.WriteString(w, receivedBody)
		default:
			t.Errorf("unexpected events query %q", events)
		}
	}))

	entries, err := c.GetTransactionHistory(context.Background(), testAddr)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "B", entries[0].Hash)
	assert.Equal(t, int64(12), entries[0].Height)
	require.Len(t, entries[0].Messages, 1)
	assert.Equal(t, entity.MsgTypeDelegate, entries[0].Messages[0].Type)
	// Single-object amount shape of staking messages.
	assert.Equal(t, []entity.Coin{{Denom: "ulume", Amount: "5000000"}}, entries[0].Messages[0].Amounts)

	assert.Equal(t, "A", entries[1].Hash)
	assert.Equal(t, "hi", entries[1].Memo)
	require.Len(t, entries[1].Messages, 1)
	// Array amount shape of bank sends.
	assert.Equal(t, []entity.Coin{{Denom: "ulume", Amount: "1000000"}}, entries[1].Messages[0].Amounts)
}

func TestGetValidators(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cosmos/staking/v1beta1/validators", r.URL.Path)
		assert.Equal(t, "BOND_STATUS_BONDED", r.URL.Query().Get("status"))
		io.WriteString(w, `{"validators":[
			{"operator_address":"lumeravaloper1x","description":{"moniker":"node-one"},"commission":{"commission_rates":{"rate":"0.050000000000000000"}}}
		]}`)
	}))

	validators, err := c.GetValidators(context.Background())
	require.NoError(t, err)
	require.Len(t, validators, 1)
	assert.Equal(t, "lumeravaloper1x", validators[0].OperatorAddress)
	assert.Equal(t, "node-one", validators[0].Moniker)
	assert.Equal(t, "0.050000000000000000", validators[0].CommissionRate)
}

func TestBroadcastSuccess(t *testing.T) {
	txBytes := []byte("signed-tx")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/cosmos/tx/v1beta1/txs", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req broadcastRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(txBytes), req.TxBytes)
		assert.Equal(t, broadcastModeSync, req.Mode)
		io.WriteString(w, `{"tx_response":{"txhash":"CAFEBABE","code":0}}`)
	}))

	hash, err := c.Broadcast(context.Background(), entity.SignedTx{TxBytes: txBytes})
	require.NoError(t, err)
	assert.Equal(t, "CAFEBABE", hash)
}

func TestBroadcastRejection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"tx_response":{"txhash":"","code":13,"raw_log":"insufficient fee"}}`)
	}))

	_, err := c.Broadcast(context.Background(), entity.SignedTx{TxBytes: []byte("x")})
	var bErr *entity.BroadcastError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, uint32(13), bErr.Code)
	assert.Equal(t, "insufficient fee", bErr.RawLog)
}

func TestUnreachableNodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens on the URL anymore
	cfg := configloader.LCDClientConfig{RequestTimeoutMillis: 500, RateLimit: 1000, BurstLimit: 1000, HistoryPageSize: 50}
	c := NewLCDClient(srv.URL, cfg, zap.NewNop())

	_, err := c.GetAllBalances(context.Background(), testAddr)
	assert.ErrorIs(t, err, entity.ErrNetworkUnreachable)
}

func TestNonOKStatusIsError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))

	_, err := c.GetAllBalances(context.Background(), testAddr)
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrNetworkUnreachable)
}
