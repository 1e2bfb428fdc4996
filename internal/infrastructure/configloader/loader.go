package configloader

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"lumera_wallet/internal/domain/entity"
)

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RefreshConfig holds the periodic refresh schedule parameters.
type RefreshConfig struct {
	IntervalMs               int64 `yaml:"intervalMs"`
	ValidatorCacheTTLMinutes int   `yaml:"validatorCacheTTLMinutes"`
}

// StoreConfig holds the durable session store location.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SignerBridgeConfig points at the local extension-host bridge that fronts
// the browser wallet.
type SignerBridgeConfig struct {
	Endpoint             string `yaml:"endpoint"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	PollTimeoutSeconds   int    `yaml:"pollTimeoutSeconds"`
}

// LCDClientConfig holds timeouts and rate limits for the chain node client.
type LCDClientConfig struct {
	RequestTimeoutMillis int64 `yaml:"requestTimeoutMillis"`
	RateLimit            int   `yaml:"rateLimit"`
	BurstLimit           int   `yaml:"burstLimit"`
	HistoryPageSize      int   `yaml:"historyPageSize"`
}

// Config is the top-level configuration structure.
type Config struct {
	Chain     entity.ChainDefinition `yaml:"chain"`
	Refresh   RefreshConfig          `yaml:"refresh"`
	Store     StoreConfig            `yaml:"store"`
	Signer    SignerBridgeConfig     `yaml:"signer"`
	LCDClient LCDClientConfig        `yaml:"lcdClient"`
	Logging   LoggingConfig          `yaml:"logging"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and applies defaults for everything the file leaves out.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if cfg.Chain.ChainID == "" {
		return nil, fmt.Errorf("config %s: chain.chainId is required", path)
	}
	if cfg.Chain.RESTEndpoint == "" {
		return nil, fmt.Errorf("config %s: chain.rest is required", path)
	}
	if cfg.Chain.StakeCurrency.CoinMinimalDenom == "" {
		return nil, fmt.Errorf("config %s: chain.stakeCurrency is required", path)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Refresh.IntervalMs <= 0 {
		cfg.Refresh.IntervalMs = 30000 // 30 seconds
	}
	if cfg.Refresh.ValidatorCacheTTLMinutes <= 0 {
		cfg.Refresh.ValidatorCacheTTLMinutes = 5
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/session"
	}
	if cfg.Signer.Endpoint == "" {
		cfg.Signer.Endpoint = "http://127.0.0.1:8584"
	}
	if cfg.Signer.RequestTimeoutMillis <= 0 {
		cfg.Signer.RequestTimeoutMillis = 60000 // signing waits on the user
	}
	if cfg.Signer.PollTimeoutSeconds <= 0 {
		cfg.Signer.PollTimeoutSeconds = 30
	}
	if cfg.LCDClient.RequestTimeoutMillis <= 0 {
		cfg.LCDClient.RequestTimeoutMillis = 10000
	}
	if cfg.LCDClient.RateLimit <= 0 {
		cfg.LCDClient.RateLimit = 10
	}
	if cfg.LCDClient.BurstLimit <= 0 {
		cfg.LCDClient.BurstLimit = 20
	}
	if cfg.LCDClient.HistoryPageSize <= 0 {
		cfg.LCDClient.HistoryPageSize = 50
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Chain.FeeCurrency.CoinMinimalDenom == "" {
		cfg.Chain.FeeCurrency = cfg.Chain.StakeCurrency
	}
	if cfg.Chain.GasPriceStep == (entity.GasPriceStep{}) {
		cfg.Chain.GasPriceStep = entity.GasPriceStep{Low: 0.01, Average: 0.025, High: 0.04}
	}
}
