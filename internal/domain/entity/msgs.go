package entity

// Msg is a transaction message to be signed and broadcast. Implementations
// mirror the chain's message shapes; the signing capability serializes them.
type Msg interface {
	MsgType() string
}

// MsgSend transfers coins between two accounts.
type MsgSend struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      []Coin `json:"amount"`
}

func (MsgSend) MsgType() string { return MsgTypeSend }

// MsgDelegate stakes an amount of the native token to a validator.
type MsgDelegate struct {
	DelegatorAddress string `json:"delegator_address"`
	ValidatorAddress string `json:"validator_address"`
	Amount           Coin   `json:"amount"`
}

func (MsgDelegate) MsgType() string { return MsgTypeDelegate }

// MsgUndelegate unstakes an amount of the native token from a validator.
type MsgUndelegate struct {
	DelegatorAddress string `json:"delegator_address"`
	ValidatorAddress string `json:"validator_address"`
	Amount           Coin   `json:"amount"`
}

func (MsgUndelegate) MsgType() string { return MsgTypeUndelegate }

// Fee is the fee attached to a sign request, built from the configured
// gas-price steps.
type Fee struct {
	Amount   []Coin `json:"amount"`
	GasLimit uint64 `json:"gas"`
}

// SignedTx is an opaque signed transaction produced by the signing
// capability, ready for broadcast. The module never inspects its contents.
type SignedTx struct {
	TxBytes []byte
}

// ValidatorDescriptor describes a validator available for delegation.
type ValidatorDescriptor struct {
	OperatorAddress string `json:"operatorAddress"`
	Moniker         string `json:"moniker"`
	CommissionRate  string `json:"commissionRate"`
}
