package keplrbridge

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumera_wallet/internal/domain/entity"
	"lumera_wallet/internal/infrastructure/configloader"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newTestBridge(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(configloader.SignerBridgeConfig{
		Endpoint:             srv.URL,
		RequestTimeoutMillis: 5000,
		PollTimeoutSeconds:   1,
	}, nopLogger{})
}

func TestAvailable(t *testing.T) {
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	assert.True(t, c.Available())
}

func TestAvailableBridgeDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	c := NewClient(configloader.SignerBridgeConfig{
		Endpoint:             srv.URL,
		RequestTimeoutMillis: 500,
		PollTimeoutSeconds:   1,
	}, nopLogger{})
	assert.False(t, c.Available())
}

func TestEnable(t *testing.T) {
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/enable", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"chainId":"lumera-mainnet-1"}`, string(body))
	}))
	require.NoError(t, c.Enable(context.Background(), "lumera-mainnet-1"))
}

func TestEnableRejected(t *testing.T) {
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown chain", http.StatusBadRequest)
	}))
	err := c.Enable(context.Background(), "lumera-mainnet-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chain")
}

func TestSuggestChainForwardsDefinition(t *testing.T) {
	var got entity.ChainDefinition
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/suggest-chain", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))

	def := entity.ChainDefinition{
		ChainID:       "lumera-mainnet-1",
		ChainName:     "Lumera",
		StakeCurrency: entity.CurrencyInfo{CoinDenom: "LUME", CoinMinimalDenom: "ulume", CoinDecimals: 6},
	}
	require.NoError(t, c.SuggestChain(context.Background(), def))
	assert.Equal(t, def.ChainID, got.ChainID)
	assert.Equal(t, def.StakeCurrency, got.StakeCurrency)
}

func TestAccounts(t *testing.T) {
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts", r.URL.Path)
		assert.Equal(t, "lumera-mainnet-1", r.URL.Query().Get("chainId"))
		io.WriteString(w, `{"accounts":[{"address":"lumera1abc"}]}`)
	}))

	accounts, err := c.Accounts(context.Background(), "lumera-mainnet-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "lumera1abc", accounts[0].Address)
}

func TestSign(t *testing.T) {
	txBytes := []byte{0xca, 0xfe}
	var got signRequest
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sign", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"txBytes":"`+base64.StdEncoding.EncodeToString(txBytes)+`"}`)
	}))

	msg := entity.MsgDelegate{
		DelegatorAddress: "lumera1abc",
		ValidatorAddress: "lumeravaloper1x",
		Amount:           entity.Coin{Denom: "ulume", Amount: "1000000"},
	}
	fee := entity.Fee{Amount: []entity.Coin{{Denom: "ulume", Amount: "5000"}}, GasLimit: 200000}

	signed, err := c.Sign(context.Background(), "lumera1abc", []entity.Msg{msg}, fee, "memo")
	require.NoError(t, err)
	assert.Equal(t, txBytes, signed.TxBytes)

	assert.Equal(t, "lumera1abc", got.Signer)
	assert.Equal(t, "memo", got.Memo)
	require.Len(t, got.Msgs, 1)
	assert.Equal(t, entity.MsgTypeDelegate, got.Msgs[0].Type)
}

func TestSignRejected(t *testing.T) {
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "request rejected", http.StatusForbidden)
	}))
	_, err := c.Sign(context.Background(), "lumera1abc", nil, entity.Fee{}, "")
	require.Error(t, err)
}

func TestAccountChanges(t *testing.T) {
	var polls atomic.Int32
	c := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events/keystore-change", r.URL.Path)
		if polls.Add(1) == 1 {
			w.WriteHeader(http.StatusOK) // account changed
			return
		}
		w.WriteHeader(http.StatusNoContent) // poll timeout, nothing happened
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := c.AccountChanges(ctx)
	require.NoError(t, err)

	select {
	case _, ok := <-ch:
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change signal from the first poll")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel closes on cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}
