package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"lumera_wallet/internal/app/service"
	"lumera_wallet/internal/infrastructure/chainclient"
	"lumera_wallet/internal/infrastructure/configloader"
	"lumera_wallet/internal/infrastructure/keplrbridge"
	"lumera_wallet/internal/infrastructure/sessionstore"
	"lumera_wallet/internal/pkg/logger"
	"lumera_wallet/internal/pkg/metrics"
)

func main() {
	// Предварительный zap-логгер для самой ранней загрузки конфига.
	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}

	// Весь slog-вывод идёт через zap.
	slogHandler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(slogHandler))

	logger.Info("Wallet session service starting",
		"chain_id", cfg.Chain.ChainID, "rest", cfg.Chain.RESTEndpoint)

	appLogger := logger.NewSlogAdapter()
	metrics.MustRegisterMetrics()

	store, err := sessionstore.NewPebbleStore(cfg.Store.Path)
	if err != nil {
		logger.Fatal("Failed to open session store", "path", cfg.Store.Path, "error", err)
	}
	defer store.Close()

	gateway := chainclient.NewLCDClient(cfg.Chain.RESTEndpoint, cfg.LCDClient, zapLogger)
	signer := keplrbridge.NewClient(cfg.Signer, appLogger)
	manager := service.NewWalletSessionManager(signer, gateway, store, appLogger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Auto-reconnect from the persisted flag; otherwise a fresh connect.
	if err := manager.Resume(ctx); err != nil {
		logger.Warn("Auto-reconnect failed", "error", err)
	}
	if snap := manager.Snapshot(); snap.Status.Disconnected() {
		if err := manager.Connect(ctx); err != nil {
			logger.Fatal("Wallet connection failed", "error", err)
		}
	}

	printSnapshot(manager)

	validators, err := manager.ListValidators(ctx)
	if err != nil {
		logger.Warn("Validator listing failed", "error", err)
	} else {
		logger.Info("Validators available for delegation", "count", len(validators))
	}

	interval := time.Duration(cfg.Refresh.IntervalMs) * time.Millisecond
	logger.Info("Session active, refreshing in background. Press Ctrl+C to stop.",
		"refresh_interval", interval.String())

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	// Ctrl+C is a shutdown, not a user disconnect: the persisted flag stays
	// so the next run auto-reconnects.
	logger.Info("Shutdown signal received")
	cancel()
	logger.Info("Wallet session service stopped")
}

func printSnapshot(manager *service.WalletSessionManagerImpl) {
	snap := manager.Snapshot()
	logger.Info("Session snapshot",
		"status", snap.Status.String(),
		"address", snap.Address,
		"primary_balance", snap.PrimaryBalance.FormattedBalance,
		"denoms", len(snap.AllBalances),
		"tx_count", snap.TxCount,
	)
	for _, b := range snap.AllBalances {
		logger.Info("  Balance", "denom", b.Denom, "formatted", b.FormattedBalance)
	}
	for _, tx := range snap.History {
		logger.Info("  Transaction",
			"hash", tx.Hash,
			"category", tx.Category.String(),
			"amount", tx.Amount,
			"denom", tx.Denom,
			"height", tx.Height,
		)
	}
	if snap.LastWarning != "" {
		logger.Warn("Data may be stale", "warning", snap.LastWarning)
	}
}
