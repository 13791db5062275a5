package transactiondelivery

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
)

// Validation tags registered on the gin binding engine.
const (
	AmountTag          = "amount"
	TransactionTypeTag = "transaction_type"
)

// ValidAmount validates that the field holds a positive money amount with at most two decimals
// that fits the stored precision.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	amount, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	return domain.ValidateAmount(amount) == nil
}

// ValidTransactionType validates whether the transaction type is supported.
var ValidTransactionType validator.Func = func(fl validator.FieldLevel) bool {
	return domain.TransactionType(fl.Field().String()).Valid()
}

// RegisterValidations adds the transaction validators to v.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation(AmountTag, ValidAmount); err != nil {
		return err
	}

	return v.RegisterValidation(TransactionTypeTag, ValidTransactionType)
}
