package entity

import "time"

// Cosmos SDK message type URLs recognized by the classifier.
const (
	MsgTypeSend           = "/cosmos.bank.v1beta1.MsgSend"
	MsgTypeDelegate       = "/cosmos.staking.v1beta1.MsgDelegate"
	MsgTypeUndelegate     = "/cosmos.staking.v1beta1.MsgUndelegate"
	MsgTypeWithdrawReward = "/cosmos.distribution.v1beta1.MsgWithdrawDelegatorReward"
)

// TxCategory is the semantic category assigned to a ledger transaction.
type TxCategory int

const (
	CategoryOther TxCategory = iota
	CategorySend
	CategoryReceive
	CategoryDelegate
	CategoryUndelegate
	CategoryClaimReward
)

// String returns a human-readable representation of the category.
func (c TxCategory) String() string {
	switch c {
	case CategorySend:
		return "send"
	case CategoryReceive:
		return "receive"
	case CategoryDelegate:
		return "delegate"
	case CategoryUndelegate:
		return "undelegate"
	case CategoryClaimReward:
		return "claim_reward"
	default:
		return "other"
	}
}

// TxStatus is the execution outcome of a transaction on chain.
type TxStatus int

const (
	TxStatusSuccess TxStatus = iota
	TxStatusFailed
)

// RawMessage is one message of a raw ledger entry, flattened across the
// message shapes the classifier cares about. Fields not present in a given
// message type are left empty.
type RawMessage struct {
	Type             string
	FromAddress      string
	ToAddress        string
	DelegatorAddress string
	ValidatorAddress string
	Amounts          []Coin
}

// RawTxEntry is a ledger transaction as returned by the chain gateway,
// before classification.
type RawTxEntry struct {
	Hash      string
	Height    int64
	Timestamp time.Time
	Code      uint32 // 0 means the transaction succeeded
	Memo      string
	Messages  []RawMessage
}

// TransactionRecord is the classified, immutable view of a ledger entry.
// Records are recomputed on every history fetch and never persisted.
type TransactionRecord struct {
	Hash         string     `json:"hash"`
	Height       int64      `json:"height"`
	Timestamp    time.Time  `json:"timestamp"`
	Category     TxCategory `json:"category"`
	Status       TxStatus   `json:"status"`
	Amount       string     `json:"amount,omitempty"`
	Denom        string     `json:"denom,omitempty"`
	Counterparty string     `json:"counterpartyAddress,omitempty"`
	Validator    string     `json:"validatorAddress,omitempty"`
	Memo         string     `json:"memo,omitempty"`
}
