// Package test provides shared test helpers.
package test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/eventpkg"
	"github.com/go-petr/pet-finance/internal/rolerepo"
	"github.com/go-petr/pet-finance/internal/transactionrepo"
	"github.com/go-petr/pet-finance/internal/transactionservice"
	"github.com/go-petr/pet-finance/internal/userrepo"
	"github.com/go-petr/pet-finance/pkg/dbpkg"
	"github.com/go-petr/pet-finance/pkg/passpkg"
	"github.com/go-petr/pet-finance/pkg/randompkg"
)

// SeedRole creates a role with a random name inside a test transaction.
func SeedRole(t *testing.T, tx dbpkg.SQLInterface) domain.Role {
	t.Helper()

	name := randompkg.String(12)

	role, err := rolerepo.NewRepoPGS(tx).Create(context.Background(), name)
	if err != nil {
		t.Fatalf("roleRepo.Create(context.Background(), %v) returned error: %v", name, err)
	}

	return role
}

// SeedUserWithRole creates random User with the given built-in role and the returned password.
func SeedUserWithRole(t *testing.T, tx dbpkg.SQLInterface, roleName string) (domain.User, string) {
	t.Helper()

	role, err := rolerepo.NewRepoPGS(tx).GetByName(context.Background(), roleName)
	if err != nil {
		t.Fatalf("roleRepo.GetByName(context.Background(), %v) returned error: %v", roleName, err)
	}

	password := randompkg.String(10)

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		t.Fatalf("passpkg.Hash(%v) returned error: %v", password, err)
	}

	arg := domain.CreateUserParams{
		Name:           randompkg.Owner(),
		Email:          randompkg.Email(),
		Phone:          randompkg.Phone(),
		HashedPassword: hashedPassword,
		RoleID:         role.ID,
	}

	user, err := userrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user, password
}

// SeedUser creates random User with the default role inside a test transaction.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	user, _ := SeedUserWithRole(t, tx, domain.RoleUser)

	return user
}

// SeedTransaction records a transaction through the ledger so the owner's balance follows it.
func SeedTransaction(t *testing.T, tx dbpkg.SQLInterface, userID int32, amount string, typ domain.TransactionType) domain.Transaction {
	t.Helper()

	ledger := transactionservice.New(transactionrepo.NewTxRepoPGS(tx), eventpkg.NopPublisher{})

	arg := domain.CreateTransactionParams{
		UserID:  userID,
		Concept: randompkg.Concept(),
		Amount:  decimal.RequireFromString(amount),
		Type:    typ,
		Date:    time.Now().UTC().Truncate(24 * time.Hour),
	}

	transaction, err := ledger.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("ledger.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return transaction
}

// SeedUserWith1000Balance creates random User whose balance is a single 1000 income.
func SeedUserWith1000Balance(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	user := SeedUser(t, tx)
	SeedTransaction(t, tx, user.ID, "1000", domain.Income)

	user.Balance = decimal.NewFromInt(1000)

	return user
}
