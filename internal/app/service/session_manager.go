package service

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"lumera_wallet/internal/app/port"
	"lumera_wallet/internal/domain/entity"
	"lumera_wallet/internal/infrastructure/configloader"
	"lumera_wallet/internal/pkg/metrics"
	"lumera_wallet/internal/pkg/utils"
)

const (
	// DefaultGasLimit is the gas budget attached to every sign request.
	DefaultGasLimit = 200000

	// MaxValidators caps the validator listing; larger result sets are truncated.
	MaxValidators = 50

	validatorCacheKey = "validators"
)

// WalletSessionManagerImpl implements port.SessionManager. One instance owns
// the single wallet session of the process: connection state machine,
// periodic refresh scheduler, and the transaction submission pipeline.
type WalletSessionManagerImpl struct {
	signer  port.SigningCapability
	gateway port.ChainGateway
	store   port.SessionStore
	logger  port.Logger
	chain   entity.ChainDefinition

	refreshInterval time.Duration

	mu          sync.Mutex
	session     entity.Session
	balances    map[string]entity.Balance // replaced wholesale, never mutated in place
	primary     entity.Balance
	history     []entity.TransactionRecord
	lastErr     string
	lastWarning string

	schedulerCancel context.CancelFunc
	subCancel       context.CancelFunc

	// Per-kind in-flight dedup: a tick or manual refresh that finds the flag
	// set is skipped, not queued.
	balanceInFlight atomic.Bool
	historyInFlight atomic.Bool

	validatorCache *cache.Cache
}

// NewWalletSessionManager creates the session manager. The chain definition
// is the opaque network-parameter table from configuration.
func NewWalletSessionManager(
	signer port.SigningCapability,
	gateway port.ChainGateway,
	store port.SessionStore,
	l port.Logger,
	cfg *configloader.Config,
) *WalletSessionManagerImpl {
	interval := time.Duration(cfg.Refresh.IntervalMs) * time.Millisecond
	cacheTTL := time.Duration(cfg.Refresh.ValidatorCacheTTLMinutes) * time.Minute
	return &WalletSessionManagerImpl{
		signer:          signer,
		gateway:         gateway,
		store:           store,
		logger:          l,
		chain:           cfg.Chain,
		refreshInterval: interval,
		session:         entity.Session{Status: entity.StatusDisconnected},
		balances:        map[string]entity.Balance{},
		validatorCache:  cache.New(cacheTTL, 2*cacheTTL),
	}
}

var _ port.SessionManager = (*WalletSessionManagerImpl)(nil)

// Resume reads the persisted flag once at startup and auto-connects when the
// previous process shut down while connected. Failures surface exactly as a
// user-initiated Connect failure would.
func (m *WalletSessionManagerImpl) Resume(ctx context.Context) error {
	flag, err := m.store.LoadFlag()
	if err != nil {
		m.logger.Warn("Failed to read persisted session flag", "error", err)
		return nil
	}
	if !flag.WasConnected {
		m.logger.Debug("No persisted session, skipping auto-reconnect")
		return nil
	}
	m.logger.Info("Persisted session found, attempting auto-reconnect", "last_address", flag.LastAddress)
	return m.Connect(ctx)
}

// Connect drives the Disconnected/Connected state machine: acquire an
// account from the signing capability (registering the chain once if the
// extension rejects its id), persist the flag, start the scheduler and the
// account-change subscription, and run the initial data fetch.
//
// A Connect while already Connected is the account-change path: the previous
// address is replaced atomically.
func (m *WalletSessionManagerImpl) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.session.Status == entity.StatusConnecting {
		m.mu.Unlock()
		return entity.ErrAlreadyConnecting
	}
	// Повторный connect заменяет предыдущую сессию: старый планировщик и
	// подписка снимаются до любой I/O.
	schedulerCancel, subCancel := m.schedulerCancel, m.subCancel
	m.schedulerCancel, m.subCancel = nil, nil
	m.session = entity.Session{Status: entity.StatusConnecting}
	m.lastErr = ""
	m.lastWarning = ""
	m.mu.Unlock()

	cancelAll(schedulerCancel, subCancel)

	address, err := m.establish(ctx)
	if err != nil {
		m.failConnect(err)
		return err
	}

	m.mu.Lock()
	m.session = entity.Session{Status: entity.StatusConnected, Address: address}
	m.balances = map[string]entity.Balance{}
	m.primary = entity.Balance{}
	m.history = nil
	m.mu.Unlock()

	if err := m.store.SaveFlag(entity.PersistedFlag{WasConnected: true, LastAddress: address}); err != nil {
		m.logger.Warn("Failed to persist session flag", "error", err)
	}

	m.startScheduler()
	m.startAccountSubscription()
	metrics.ConnectTotal.WithLabelValues("success").Inc()
	m.logger.Info("Wallet connected", "address", address, "chain_id", m.chain.ChainID)

	// Initial fetch. A brand-new account with zero history must still connect:
	// query failures here stay non-fatal and only raise a soft warning.
	g, fetchCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.doRefreshBalance(fetchCtx) })
	g.Go(func() error { return m.doRefreshHistory(fetchCtx) })
	if err := g.Wait(); err != nil {
		m.logger.Warn("Initial data fetch failed, session stays connected with empty data", "error", err)
		m.mu.Lock()
		m.lastWarning = err.Error()
		m.mu.Unlock()
	}
	return nil
}

// establish runs the signing-capability handshake and returns the account
// address. Connection-establishment errors abort the attempt.
func (m *WalletSessionManagerImpl) establish(ctx context.Context) (string, error) {
	if !m.signer.Available() {
		return "", entity.ErrNoWalletInstalled
	}

	if err := m.signer.Enable(ctx, m.chain.ChainID); err != nil {
		// Unknown chain: register it from the static table and retry the
		// enable step exactly once.
		m.logger.Info("Chain not registered with wallet, suggesting it", "chain_id", m.chain.ChainID, "enable_error", err)
		if suggestErr := m.signer.SuggestChain(ctx, m.chain); suggestErr != nil {
			return "", fmt.Errorf("%w: %v", entity.ErrChainRegistrationFailed, suggestErr)
		}
		if retryErr := m.signer.Enable(ctx, m.chain.ChainID); retryErr != nil {
			return "", fmt.Errorf("%w: %v", entity.ErrChainRegistrationFailed, retryErr)
		}
	}

	accounts, err := m.signer.Accounts(ctx, m.chain.ChainID)
	if err != nil {
		return "", fmt.Errorf("failed to read wallet accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("%w: wallet exposed no accounts", entity.ErrNoWalletInstalled)
	}
	return accounts[0].Address, nil
}

// failConnect records a failed connection attempt: the persisted flag is
// cleared so the next startup does not silently retry, and the cause is
// retained for the UI banner.
func (m *WalletSessionManagerImpl) failConnect(cause error) {
	if err := m.store.ClearFlag(); err != nil {
		m.logger.Warn("Failed to clear persisted session flag", "error", err)
	}
	m.mu.Lock()
	m.session = entity.Session{Status: entity.StatusFailed}
	m.lastErr = cause.Error()
	m.mu.Unlock()
	metrics.ConnectTotal.WithLabelValues("failure").Inc()
	m.logger.Error("Wallet connection failed", "error", cause)
}

// Disconnect tears the session down. The periodic timer is cancelled before
// returning; a refresh already in flight completes but its result is
// discarded by the stale-address guard.
func (m *WalletSessionManagerImpl) Disconnect() {
	m.mu.Lock()
	schedulerCancel, subCancel := m.schedulerCancel, m.subCancel
	m.schedulerCancel, m.subCancel = nil, nil
	m.session = entity.Session{Status: entity.StatusDisconnected}
	m.balances = map[string]entity.Balance{}
	m.primary = entity.Balance{}
	m.history = nil
	m.lastErr = ""
	m.lastWarning = ""
	m.mu.Unlock()

	cancelAll(schedulerCancel, subCancel)

	if err := m.store.ClearFlag(); err != nil {
		m.logger.Warn("Failed to clear persisted session flag on disconnect", "error", err)
	}
	m.logger.Info("Wallet disconnected")
}

func cancelAll(cancels ...context.CancelFunc) {
	for _, c := range cancels {
		if c != nil {
			c()
		}
	}
}

// startScheduler launches the fixed-interval refresh loop. It lives until
// the session leaves Connected.
func (m *WalletSessionManagerImpl) startScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.schedulerCancel = cancel
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.RefreshBalance(ctx)
				m.RefreshHistory(ctx)
			}
		}
	}()
}

// startAccountSubscription registers the account-change listener once per
// session. A change while connected re-issues Connect, which replaces the
// address and this subscription.
func (m *WalletSessionManagerImpl) startAccountSubscription() {
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.subCancel = cancel
	m.mu.Unlock()

	go func() {
		ch, err := m.signer.AccountChanges(ctx)
		if err != nil {
			m.logger.Warn("Account-change subscription unavailable", "error", err)
			return
		}
		for range ch {
			m.mu.Lock()
			connected := m.session.Status == entity.StatusConnected
			m.mu.Unlock()
			if !connected {
				continue
			}
			m.logger.Info("Wallet account changed, reconnecting")
			if err := m.Connect(context.Background()); err != nil {
				m.logger.Error("Reconnect after account change failed", "error", err)
			}
		}
	}()
}

// RefreshBalance re-queries the primary balance and the full balance set for
// the current address and replaces the mapping atomically. No-op when
// disconnected or when a balance refresh is already in flight. Failures are
// logged and swallowed: stale data beats a cleared display.
func (m *WalletSessionManagerImpl) RefreshBalance(ctx context.Context) {
	if err := m.doRefreshBalance(ctx); err != nil {
		m.logger.Warn("Balance refresh failed, keeping last-good data", "error", err)
	}
}

func (m *WalletSessionManagerImpl) doRefreshBalance(ctx context.Context) error {
	addr := m.currentAddress()
	if addr == "" {
		return nil
	}
	if !m.balanceInFlight.CompareAndSwap(false, true) {
		metrics.RefreshSkippedTotal.WithLabelValues("balance").Inc()
		m.logger.Debug("Balance refresh already in flight, skipping tick")
		return nil
	}
	defer m.balanceInFlight.Store(false)

	stakeDenom := m.chain.StakeCurrency.CoinMinimalDenom
	primaryCoin, err := m.gateway.GetBalance(ctx, addr, stakeDenom)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("balance", "failure").Inc()
		return &entity.DataFetchError{Kind: "balance", Err: err}
	}
	coins, err := m.gateway.GetAllBalances(ctx, addr)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("balance", "failure").Inc()
		return &entity.DataFetchError{Kind: "balance", Err: err}
	}

	primary := m.decodeBalance(primaryCoin)
	next := make(map[string]entity.Balance, len(coins))
	for _, c := range coins {
		next[c.Denom] = m.decodeBalance(c)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Stale-response guard: the session may have disconnected or switched
	// accounts while the query was running.
	if m.session.Address != addr {
		m.logger.Debug("Discarding balance result for stale address", "stale_address", addr)
		return nil
	}
	m.primary = primary
	m.balances = next
	metrics.RefreshTotal.WithLabelValues("balance", "success").Inc()
	return nil
}

// RefreshHistory re-queries the transaction history, classifies every entry
// and replaces the list atomically. Same dedup and swallow policy as
// RefreshBalance.
func (m *WalletSessionManagerImpl) RefreshHistory(ctx context.Context) {
	if err := m.doRefreshHistory(ctx); err != nil {
		m.logger.Warn("History refresh failed, keeping last-good data", "error", err)
	}
}

func (m *WalletSessionManagerImpl) doRefreshHistory(ctx context.Context) error {
	addr := m.currentAddress()
	if addr == "" {
		return nil
	}
	if !m.historyInFlight.CompareAndSwap(false, true) {
		metrics.RefreshSkippedTotal.WithLabelValues("history").Inc()
		m.logger.Debug("History refresh already in flight, skipping tick")
		return nil
	}
	defer m.historyInFlight.Store(false)

	entries, err := m.gateway.GetTransactionHistory(ctx, addr)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("history", "failure").Inc()
		return &entity.DataFetchError{Kind: "history", Err: err}
	}

	records := make([]entity.TransactionRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, Classify(e, addr))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Address != addr {
		m.logger.Debug("Discarding history result for stale address", "stale_address", addr)
		return nil
	}
	m.history = records
	metrics.RefreshTotal.WithLabelValues("history", "success").Inc()
	return nil
}

// Transfer sends amount (display units) of the primary currency to recipient
// and returns the transaction hash.
func (m *WalletSessionManagerImpl) Transfer(ctx context.Context, recipient, amount, memo string) (string, error) {
	addr, err := m.requireConnected()
	if err != nil {
		return "", err
	}
	if err := m.validateAddress("recipient", recipient, m.chain.Bech32Config.Bech32PrefixAccAddr); err != nil {
		return "", err
	}
	coin, err := m.toMinimalCoin(amount)
	if err != nil {
		return "", err
	}
	msg := entity.MsgSend{FromAddress: addr, ToAddress: recipient, Amount: []entity.Coin{coin}}
	return m.submit(ctx, addr, msg, memo)
}

// Delegate stakes amount (display units) of the native token to a validator.
func (m *WalletSessionManagerImpl) Delegate(ctx context.Context, validator, amount string) (string, error) {
	addr, err := m.requireConnected()
	if err != nil {
		return "", err
	}
	if err := m.validateAddress("validator", validator, m.chain.Bech32Config.Bech32PrefixValAddr); err != nil {
		return "", err
	}
	coin, err := m.toMinimalCoin(amount)
	if err != nil {
		return "", err
	}
	msg := entity.MsgDelegate{DelegatorAddress: addr, ValidatorAddress: validator, Amount: coin}
	return m.submit(ctx, addr, msg, "")
}

// Undelegate unstakes amount (display units) of the native token from a validator.
func (m *WalletSessionManagerImpl) Undelegate(ctx context.Context, validator, amount string) (string, error) {
	addr, err := m.requireConnected()
	if err != nil {
		return "", err
	}
	if err := m.validateAddress("validator", validator, m.chain.Bech32Config.Bech32PrefixValAddr); err != nil {
		return "", err
	}
	coin, err := m.toMinimalCoin(amount)
	if err != nil {
		return "", err
	}
	msg := entity.MsgUndelegate{DelegatorAddress: addr, ValidatorAddress: validator, Amount: coin}
	return m.submit(ctx, addr, msg, "")
}

// submit runs the shared tail of the submission pipeline: sign, broadcast,
// then one balance refresh. History is left to the next scheduled tick.
// Broadcast failures are returned to the caller and never retried here:
// resubmitting without idempotency guarantees could double-spend.
func (m *WalletSessionManagerImpl) submit(ctx context.Context, addr string, msg entity.Msg, memo string) (string, error) {
	signed, err := m.signer.Sign(ctx, addr, []entity.Msg{msg}, m.buildFee(), memo)
	if err != nil {
		metrics.BroadcastTotal.WithLabelValues(msg.MsgType(), "sign_rejected").Inc()
		return "", fmt.Errorf("%w: %v", entity.ErrSigningRejected, err)
	}

	hash, err := m.gateway.Broadcast(ctx, signed)
	if err != nil {
		metrics.BroadcastTotal.WithLabelValues(msg.MsgType(), "failure").Inc()
		m.logger.Error("Broadcast failed", "msg_type", msg.MsgType(), "error", err)
		return "", err
	}
	metrics.BroadcastTotal.WithLabelValues(msg.MsgType(), "success").Inc()
	m.logger.Info("Transaction broadcast", "msg_type", msg.MsgType(), "tx_hash", hash)

	m.RefreshBalance(ctx)
	return hash, nil
}

// ListValidators returns at most MaxValidators descriptors in gateway order,
// served from the TTL cache when fresh.
func (m *WalletSessionManagerImpl) ListValidators(ctx context.Context) ([]entity.ValidatorDescriptor, error) {
	if cached, ok := m.validatorCache.Get(validatorCacheKey); ok {
		return cached.([]entity.ValidatorDescriptor), nil
	}

	validators, err := m.gateway.GetValidators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load validators: %w", err)
	}
	if len(validators) > MaxValidators {
		validators = validators[:MaxValidators]
	}
	m.validatorCache.Set(validatorCacheKey, validators, cache.DefaultExpiration)
	m.logger.Debug("Validators loaded", "count", len(validators))
	return validators, nil
}

// Snapshot returns an immutable copy of the read model.
func (m *WalletSessionManagerImpl) Snapshot() port.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]entity.Balance, 0, len(m.balances))
	for _, b := range m.balances {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Denom < all[j].Denom })

	history := make([]entity.TransactionRecord, len(m.history))
	copy(history, m.history)

	return port.Snapshot{
		Status:         m.session.Status,
		Address:        m.session.Address,
		PrimaryBalance: m.primary,
		AllBalances:    all,
		History:        history,
		TxCount:        len(history),
		LastError:      m.lastErr,
		LastWarning:    m.lastWarning,
	}
}

func (m *WalletSessionManagerImpl) currentAddress() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Address
}

func (m *WalletSessionManagerImpl) requireConnected() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Status != entity.StatusConnected {
		return "", &entity.ValidationError{Field: "session", Reason: "no active wallet session"}
	}
	return m.session.Address, nil
}

func (m *WalletSessionManagerImpl) validateAddress(field, value, prefix string) error {
	if strings.TrimSpace(value) == "" {
		return &entity.ValidationError{Field: field, Reason: "address is required"}
	}
	if prefix != "" && !strings.HasPrefix(value, prefix) {
		return &entity.ValidationError{Field: field, Reason: fmt.Sprintf("address must start with %q", prefix)}
	}
	return nil
}

// toMinimalCoin converts a display amount of the primary currency into a
// minimal-unit coin, rejecting non-positive and malformed values.
func (m *WalletSessionManagerImpl) toMinimalCoin(amount string) (entity.Coin, error) {
	minimal, err := utils.ToMinimal(amount, m.chain.StakeCurrency.CoinDecimals)
	if err != nil {
		return entity.Coin{}, &entity.ValidationError{Field: "amount", Reason: err.Error()}
	}
	if minimal.Sign() <= 0 {
		return entity.Coin{}, &entity.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return entity.Coin{Denom: m.chain.StakeCurrency.CoinMinimalDenom, Amount: minimal.String()}, nil
}

// buildFee prices DefaultGasLimit at the average configured gas-price step.
func (m *WalletSessionManagerImpl) buildFee() entity.Fee {
	feeAmount := uint64(math.Ceil(m.chain.GasPriceStep.Average * float64(DefaultGasLimit)))
	return entity.Fee{
		Amount: []entity.Coin{{
			Denom:  m.chain.FeeCurrency.CoinMinimalDenom,
			Amount: fmt.Sprintf("%d", feeAmount),
		}},
		GasLimit: DefaultGasLimit,
	}
}

// decodeBalance attaches the display rendering to a wire coin. An amount the
// chain hands us that fails to parse is kept raw rather than dropped.
func (m *WalletSessionManagerImpl) decodeBalance(c entity.Coin) entity.Balance {
	b := entity.Balance{Denom: c.Denom, FormattedBalance: c.Amount}
	amount, ok := new(big.Int).SetString(c.Amount, 10)
	if !ok {
		m.logger.Warn("Unparseable balance amount from gateway", "denom", c.Denom, "amount", c.Amount)
		return b
	}
	b.Amount = amount
	if display, err := utils.ToDisplay(amount, m.decimalsFor(c.Denom)); err == nil {
		b.FormattedBalance = display
	}
	return b
}

// decimalsFor resolves a denom's precision from the configured currency
// table; unknown denoms (e.g. IBC vouchers) render in minimal units.
func (m *WalletSessionManagerImpl) decimalsFor(denom string) int {
	for _, c := range m.chain.Currencies {
		if c.CoinMinimalDenom == denom {
			return c.CoinDecimals
		}
	}
	if m.chain.StakeCurrency.CoinMinimalDenom == denom {
		return m.chain.StakeCurrency.CoinDecimals
	}
	return 0
}
