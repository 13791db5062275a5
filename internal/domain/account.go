// Package domain provides defenitions of all entities.
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account owning the ledger is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientFunds indicates that the operation would drive the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConflict indicates that a concurrent write prevented the operation. The caller may retry.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrBalanceMismatch indicates that the stored balance differs from the sum of its entries.
	ErrBalanceMismatch = errors.New("balance does not match ledger entries")
)

// Account is the ledger view of a user: the running balance kept next to the user record.
type Account struct {
	ID      int32           `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}
