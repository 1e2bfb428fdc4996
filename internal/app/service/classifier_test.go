package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lumera_wallet/internal/domain/entity"
)

const (
	selfAddr  = "lumera1selfxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	otherAddr = "lumera1otherxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	valAddr   = "lumeravaloper1validatorxxxxxxxxxxxxxxxxxxxx"
)

func coins(denom, amount string) []entity.Coin {
	return []entity.Coin{{Denom: denom, Amount: amount}}
}

func TestClassifySendVersusReceive(t *testing.T) {
	entry := entity.RawTxEntry{
		Hash:      "AAA",
		Height:    100,
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Messages: []entity.RawMessage{{
			Type:        entity.MsgTypeSend,
			FromAddress: selfAddr,
			ToAddress:   otherAddr,
			Amounts:     coins("ulume", "1000000"),
		}},
	}

	sent := Classify(entry, selfAddr)
	assert.Equal(t, entity.CategorySend, sent.Category)
	assert.Equal(t, otherAddr, sent.Counterparty)
	assert.Equal(t, "1000000", sent.Amount)
	assert.Equal(t, "ulume", sent.Denom)
	assert.Equal(t, entity.TxStatusSuccess, sent.Status)

	received := Classify(entry, otherAddr)
	assert.Equal(t, entity.CategoryReceive, received.Category)
	assert.Equal(t, selfAddr, received.Counterparty)
}

func TestClassifyDelegateOutranksFeeSend(t *testing.T) {
	// A delegate transaction whose first message is the bank-send paying for
	// it must still classify as Delegate.
	entry := entity.RawTxEntry{
		Hash:   "BBB",
		Height: 200,
		Messages: []entity.RawMessage{
			{
				Type:        entity.MsgTypeSend,
				FromAddress: selfAddr,
				ToAddress:   otherAddr,
				Amounts:     coins("ulume", "2500"),
			},
			{
				Type:             entity.MsgTypeDelegate,
				DelegatorAddress: selfAddr,
				ValidatorAddress: valAddr,
				Amounts:          coins("ulume", "5000000"),
			},
		},
	}

	record := Classify(entry, selfAddr)
	assert.Equal(t, entity.CategoryDelegate, record.Category)
	assert.Equal(t, valAddr, record.Validator)
	assert.Equal(t, "5000000", record.Amount)
}

func TestClassifyPriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		typ  string
		want entity.TxCategory
	}{
		{"claim reward", entity.MsgTypeWithdrawReward, entity.CategoryClaimReward},
		{"undelegate", entity.MsgTypeUndelegate, entity.CategoryUndelegate},
		{"delegate", entity.MsgTypeDelegate, entity.CategoryDelegate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := entity.RawTxEntry{
				Hash: "CCC",
				Messages: []entity.RawMessage{
					{Type: entity.MsgTypeSend, FromAddress: selfAddr, ToAddress: otherAddr},
					{Type: tc.typ, DelegatorAddress: selfAddr, ValidatorAddress: valAddr},
				},
			}
			assert.Equal(t, tc.want, Classify(entry, selfAddr).Category)
		})
	}
}

func TestClassifyUnknownMessageIsOther(t *testing.T) {
	entry := entity.RawTxEntry{
		Hash: "DDD",
		Messages: []entity.RawMessage{{
			Type: "/cosmos.gov.v1beta1.MsgVote",
		}},
	}

	record := Classify(entry, selfAddr)
	assert.Equal(t, entity.CategoryOther, record.Category)
	assert.Empty(t, record.Amount)
	assert.Empty(t, record.Denom)
	assert.Empty(t, record.Counterparty)
}

func TestClassifyUnrelatedSendIsOther(t *testing.T) {
	// A send between two strangers that only mentions us in events.
	entry := entity.RawTxEntry{
		Hash: "EEE",
		Messages: []entity.RawMessage{{
			Type:        entity.MsgTypeSend,
			FromAddress: otherAddr,
			ToAddress:   "lumera1thirdxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		}},
	}
	assert.Equal(t, entity.CategoryOther, Classify(entry, selfAddr).Category)
}

func TestClassifyFailedTransaction(t *testing.T) {
	entry := entity.RawTxEntry{
		Hash: "FFF",
		Code: 5,
		Memo: "oops",
		Messages: []entity.RawMessage{{
			Type:        entity.MsgTypeSend,
			FromAddress: selfAddr,
			ToAddress:   otherAddr,
			Amounts:     coins("ulume", "1"),
		}},
	}

	record := Classify(entry, selfAddr)
	assert.Equal(t, entity.TxStatusFailed, record.Status)
	assert.Equal(t, entity.CategorySend, record.Category)
	assert.Equal(t, "oops", record.Memo)
}
