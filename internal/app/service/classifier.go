package service

import (
	"lumera_wallet/internal/domain/entity"
)

// classifyRule pairs a category with its message predicate. Rules are applied
// in priority order over the whole message list: a delegate message outranks
// the bank-send that pays its fee even when the send appears first.
type classifyRule struct {
	category entity.TxCategory
	matches  func(msg entity.RawMessage, sessionAddr string) bool
}

var classifyRules = []classifyRule{
	{entity.CategoryClaimReward, func(m entity.RawMessage, _ string) bool {
		return m.Type == entity.MsgTypeWithdrawReward
	}},
	{entity.CategoryUndelegate, func(m entity.RawMessage, _ string) bool {
		return m.Type == entity.MsgTypeUndelegate
	}},
	{entity.CategoryDelegate, func(m entity.RawMessage, _ string) bool {
		return m.Type == entity.MsgTypeDelegate
	}},
	{entity.CategorySend, func(m entity.RawMessage, addr string) bool {
		return m.Type == entity.MsgTypeSend && m.FromAddress == addr
	}},
	{entity.CategoryReceive, func(m entity.RawMessage, addr string) bool {
		return m.Type == entity.MsgTypeSend && m.ToAddress == addr
	}},
}

// Classify maps a raw ledger entry to its semantic TransactionRecord for the
// given session address. Pure function: no I/O, no state.
func Classify(entry entity.RawTxEntry, sessionAddr string) entity.TransactionRecord {
	record := entity.TransactionRecord{
		Hash:      entry.Hash,
		Height:    entry.Height,
		Timestamp: entry.Timestamp,
		Category:  entity.CategoryOther,
		Status:    entity.TxStatusSuccess,
		Memo:      entry.Memo,
	}
	if entry.Code != 0 {
		record.Status = entity.TxStatusFailed
	}

	for _, rule := range classifyRules {
		for _, msg := range entry.Messages {
			if !rule.matches(msg, sessionAddr) {
				continue
			}
			record.Category = rule.category
			fillFromMessage(&record, msg, sessionAddr)
			return record
		}
	}
	return record
}

// fillFromMessage copies the normalized fields of the matched message.
// Amount/denom stay empty when the message carries no coin payload.
func fillFromMessage(record *entity.TransactionRecord, msg entity.RawMessage, sessionAddr string) {
	if len(msg.Amounts) > 0 {
		record.Amount = msg.Amounts[0].Amount
		record.Denom = msg.Amounts[0].Denom
	}
	record.Validator = msg.ValidatorAddress

	switch record.Category {
	case entity.CategorySend:
		record.Counterparty = msg.ToAddress
	case entity.CategoryReceive:
		record.Counterparty = msg.FromAddress
	}
}
