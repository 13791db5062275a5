package test

import (
	"time"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/pkg/randompkg"
)

// RandomCreateTransactionParams returns a random transaction of the given user.
func RandomCreateTransactionParams(userID int32) domain.CreateTransactionParams {
	return domain.CreateTransactionParams{
		UserID:  userID,
		Concept: randompkg.Concept(),
		Amount:  randompkg.MoneyAmountBetween(100, 10_000),
		Type:    domain.TransactionType(randompkg.TransactionType()),
		Date:    time.Now().UTC().Truncate(24 * time.Hour),
	}
}
