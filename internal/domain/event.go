package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEventType names what happened to a transaction.
type LedgerEventType string

// Ledger event types.
const (
	EventTransactionCreated LedgerEventType = "transaction.created"
	EventTransactionUpdated LedgerEventType = "transaction.updated"
	EventTransactionDeleted LedgerEventType = "transaction.deleted"
)

// LedgerEvent is emitted after a ledger change has been committed.
type LedgerEvent struct {
	Type            LedgerEventType `json:"type"`
	TransactionID   int64           `json:"transaction_id"`
	UserID          int32           `json:"user_id"`
	Concept         string          `json:"concept"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
	Balance         decimal.Decimal `json:"balance"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
