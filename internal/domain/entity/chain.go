package entity

// GasPriceStep holds the three gas price tiers offered to the signer.
type GasPriceStep struct {
	Low     float64 `json:"low" yaml:"low"`
	Average float64 `json:"average" yaml:"average"`
	High    float64 `json:"high" yaml:"high"`
}

// CurrencyInfo describes one denomination of the chain.
type CurrencyInfo struct {
	CoinDenom        string `json:"coinDenom" yaml:"coinDenom"`
	CoinMinimalDenom string `json:"coinMinimalDenom" yaml:"coinMinimalDenom"`
	CoinDecimals     int    `json:"coinDecimals" yaml:"coinDecimals"`
}

// Bech32Config is the address-prefix table of the chain.
type Bech32Config struct {
	Bech32PrefixAccAddr  string `json:"bech32PrefixAccAddr" yaml:"bech32PrefixAccAddr"`
	Bech32PrefixAccPub   string `json:"bech32PrefixAccPub" yaml:"bech32PrefixAccPub"`
	Bech32PrefixValAddr  string `json:"bech32PrefixValAddr" yaml:"bech32PrefixValAddr"`
	Bech32PrefixValPub   string `json:"bech32PrefixValPub" yaml:"bech32PrefixValPub"`
	Bech32PrefixConsAddr string `json:"bech32PrefixConsAddr" yaml:"bech32PrefixConsAddr"`
	Bech32PrefixConsPub  string `json:"bech32PrefixConsPub" yaml:"bech32PrefixConsPub"`
}

// ChainDefinition is the static network-parameter table. It is supplied as
// opaque configuration and forwarded verbatim to the signing capability
// when the chain has to be registered there.
type ChainDefinition struct {
	ChainID       string         `json:"chainId" yaml:"chainId"`
	ChainName     string         `json:"chainName" yaml:"chainName"`
	RPCEndpoint   string         `json:"rpc" yaml:"rpc"`
	RESTEndpoint  string         `json:"rest" yaml:"rest"`
	CoinType      int            `json:"coinType" yaml:"coinType"`
	Bech32Config  Bech32Config   `json:"bech32Config" yaml:"bech32Config"`
	Currencies    []CurrencyInfo `json:"currencies" yaml:"currencies"`
	StakeCurrency CurrencyInfo   `json:"stakeCurrency" yaml:"stakeCurrency"`
	FeeCurrency   CurrencyInfo   `json:"feeCurrency" yaml:"feeCurrency"`
	GasPriceStep  GasPriceStep   `json:"gasPriceStep" yaml:"gasPriceStep"`
	Features      []string       `json:"features" yaml:"features"`
}
