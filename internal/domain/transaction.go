package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates a non-positive amount, one with more than two decimals
	// or one that does not fit the stored precision.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidTransactionType indicates a type other than Ingreso or Egreso.
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	// ErrTransactionNotFound indicates that the transaction does not exist for the given owner.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionType tells whether a transaction credits or debits the balance.
type TransactionType string

// Supported transaction types.
const (
	Income  TransactionType = "Ingreso"
	Expense TransactionType = "Egreso"
)

// Valid reports whether t is a supported transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// AmountScale is the number of decimals a money amount may carry.
const AmountScale = 2

// MaxAmount is the largest magnitude a NUMERIC(18, 2) column holds.
var MaxAmount = decimal.New(1, 16).Sub(decimal.New(1, -AmountScale))

// ValidateAmount checks that amount is a positive money value.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Round(AmountScale)) {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}

	return nil
}

// ValidateBalance checks that balance can be stored.
func ValidateBalance(balance decimal.Decimal) error {
	if balance.Abs().GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}

	return nil
}

// SignedAmount returns +amount for Income and -amount for Expense.
func SignedAmount(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == Expense {
		return amount.Neg()
	}

	return amount
}

// TransactionOwner is the short user data attached to every transaction.
type TransactionOwner struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// Transaction holds one ledger entry of a user.
//
// Amount is always the positive magnitude, the sign comes from Type.
type Transaction struct {
	ID        int64            `json:"id"`
	UserID    int32            `json:"user_id"`
	Concept   string           `json:"concept"`
	Amount    decimal.Decimal  `json:"amount"`
	Type      TransactionType  `json:"transaction_type"`
	Date      time.Time        `json:"date"`
	CreatedAt time.Time        `json:"created_at"`
	User      TransactionOwner `json:"user"`
}

// SignedAmount returns the effect of the transaction on the owner's balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	return SignedAmount(t.Type, t.Amount)
}

// CreateTransactionParams is the input data to record a transaction.
type CreateTransactionParams struct {
	UserID  int32           `json:"user_id"`
	Concept string          `json:"concept"`
	Amount  decimal.Decimal `json:"amount"`
	Type    TransactionType `json:"transaction_type"`
	Date    time.Time       `json:"date"`
}

// UpdateTransactionParams is a partial update of a transaction. Nil fields keep their value.
type UpdateTransactionParams struct {
	ID      int64
	UserID  int32
	Concept *string
	Amount  *decimal.Decimal
	Type    *TransactionType
	Date    *time.Time
}

// Apply returns t with the patch fields set.
func (p UpdateTransactionParams) Apply(t Transaction) Transaction {
	if p.Concept != nil {
		t.Concept = *p.Concept
	}

	if p.Amount != nil {
		t.Amount = *p.Amount
	}

	if p.Type != nil {
		t.Type = *p.Type
	}

	if p.Date != nil {
		t.Date = *p.Date
	}

	return t
}
