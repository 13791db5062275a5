// Package transactionservice manages business logic layer of the ledger.
//
// Every mutation locks the owner's account first, computes the next balance and
// writes the entry together with the balance in one repository transaction.
package transactionservice

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
)

// Tx provides the data access operations available inside a repository transaction.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice
type Tx interface {
	LockAccount(ctx context.Context, userID int32) (domain.Account, error)
	SetBalance(ctx context.Context, userID int32, balance decimal.Decimal) (domain.Account, error)
	Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	GetForUpdate(ctx context.Context, id int64, userID int32) (domain.Transaction, error)
	Update(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	Delete(ctx context.Context, id int64, userID int32) error
	List(ctx context.Context, userID int32) ([]domain.Transaction, error)
}

// Repo provides data access layer interface needed by transaction service layer.
type Repo interface {
	// ExecTx runs fn inside a single transaction. Any error returned by fn rolls it back.
	ExecTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, id int64, userID int32) (domain.Transaction, error)
	List(ctx context.Context, userID int32) ([]domain.Transaction, error)
}

// Publisher delivers ledger events after they have been committed.
type Publisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}

// Service facilitates transaction service layer logic.
type Service struct {
	repo      Repo
	publisher Publisher
	now       func() time.Time
}

// New returns transaction service struct to manage the ledger business logic.
func New(repo Repo, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// nextBalance returns the balance after replacing the effect remove with add.
func nextBalance(balance, remove, add decimal.Decimal) decimal.Decimal {
	return balance.Sub(remove).Add(add)
}

func validateTransaction(amount decimal.Decimal, t domain.TransactionType) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	if !t.Valid() {
		return domain.ErrInvalidTransactionType
	}

	return nil
}

// Create records a new transaction and applies it to the owner's balance.
//
// An expense larger than the current balance fails with ErrInsufficientFunds.
func (s *Service) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if err := validateTransaction(arg.Amount, arg.Type); err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	var (
		t   domain.Transaction
		acc domain.Account
	)

	err := s.repo.ExecTx(ctx, func(tx Tx) error {
		var err error

		acc, err = tx.LockAccount(ctx, arg.UserID)
		if err != nil {
			return err
		}

		balance := nextBalance(acc.Balance, decimal.Zero, domain.SignedAmount(arg.Type, arg.Amount))
		if balance.IsNegative() {
			return domain.ErrInsufficientFunds
		}

		if err = domain.ValidateBalance(balance); err != nil {
			return err
		}

		t, err = tx.Create(ctx, arg)
		if err != nil {
			return err
		}

		acc, err = tx.SetBalance(ctx, acc.ID, balance)

		return err
	})
	if err != nil {
		logFailure(l, err)
		return domain.Transaction{}, err
	}

	t.User = domain.TransactionOwner{ID: acc.ID, Name: acc.Name}
	s.publish(ctx, domain.EventTransactionCreated, t, acc.Balance)

	return t, nil
}

// Update applies a partial change to the transaction owned by arg.UserID.
//
// The old effect is reversed and the new one applied in a single balance write.
func (s *Service) Update(ctx context.Context, arg domain.UpdateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if arg.Amount != nil {
		if err := domain.ValidateAmount(*arg.Amount); err != nil {
			l.Info().Err(err).Send()
			return domain.Transaction{}, err
		}
	}

	if arg.Type != nil && !arg.Type.Valid() {
		l.Info().Err(domain.ErrInvalidTransactionType).Send()
		return domain.Transaction{}, domain.ErrInvalidTransactionType
	}

	var (
		t   domain.Transaction
		acc domain.Account
	)

	err := s.repo.ExecTx(ctx, func(tx Tx) error {
		var err error

		acc, err = lockOwner(ctx, tx, arg.UserID)
		if err != nil {
			return err
		}

		old, err := tx.GetForUpdate(ctx, arg.ID, arg.UserID)
		if err != nil {
			return err
		}

		updated := arg.Apply(old)

		balance := nextBalance(acc.Balance, old.SignedAmount(), updated.SignedAmount())
		if balance.IsNegative() {
			return domain.ErrInsufficientFunds
		}

		if err = domain.ValidateBalance(balance); err != nil {
			return err
		}

		t, err = tx.Update(ctx, updated)
		if err != nil {
			return err
		}

		acc, err = tx.SetBalance(ctx, acc.ID, balance)

		return err
	})
	if err != nil {
		logFailure(l, err)
		return domain.Transaction{}, err
	}

	t.User = domain.TransactionOwner{ID: acc.ID, Name: acc.Name}
	s.publish(ctx, domain.EventTransactionUpdated, t, acc.Balance)

	return t, nil
}

// Delete removes the transaction owned by userID and reverses its effect on the balance.
//
// Deleting is never refused because of the resulting balance.
func (s *Service) Delete(ctx context.Context, id int64, userID int32) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var (
		t   domain.Transaction
		acc domain.Account
	)

	err := s.repo.ExecTx(ctx, func(tx Tx) error {
		var err error

		acc, err = lockOwner(ctx, tx, userID)
		if err != nil {
			return err
		}

		t, err = tx.GetForUpdate(ctx, id, userID)
		if err != nil {
			return err
		}

		balance := nextBalance(acc.Balance, t.SignedAmount(), decimal.Zero)

		if err = tx.Delete(ctx, id, userID); err != nil {
			return err
		}

		acc, err = tx.SetBalance(ctx, acc.ID, balance)

		return err
	})
	if err != nil {
		logFailure(l, err)
		return domain.Transaction{}, err
	}

	t.User = domain.TransactionOwner{ID: acc.ID, Name: acc.Name}
	s.publish(ctx, domain.EventTransactionDeleted, t, acc.Balance)

	return t, nil
}

// Get returns the transaction with the given id if it belongs to userID.
func (s *Service) Get(ctx context.Context, id int64, userID int32) (domain.Transaction, error) {
	t, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		logFailure(zerolog.Ctx(ctx), err)
		return domain.Transaction{}, err
	}

	return t, nil
}

// List returns all transactions of userID ordered by date.
func (s *Service) List(ctx context.Context, userID int32) ([]domain.Transaction, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		logFailure(zerolog.Ctx(ctx), err)
		return nil, err
	}

	return items, nil
}

// lockOwner locks the account of userID. A missing account cannot own any
// transaction, so it is reported as ErrTransactionNotFound.
func lockOwner(ctx context.Context, tx Tx, userID int32) (domain.Account, error) {
	acc, err := tx.LockAccount(ctx, userID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return acc, domain.ErrTransactionNotFound
	}

	return acc, err
}

func (s *Service) publish(ctx context.Context, eventType domain.LedgerEventType, t domain.Transaction, balance decimal.Decimal) {
	event := domain.LedgerEvent{
		Type:            eventType,
		TransactionID:   t.ID,
		UserID:          t.UserID,
		Concept:         t.Concept,
		Amount:          t.Amount,
		TransactionType: t.Type,
		Balance:         balance,
		OccurredAt:      s.now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event", string(eventType)).
			Int64("transaction_id", t.ID).
			Msg("cannot publish ledger event")
	}
}

// logFailure logs expected domain errors at info level and everything else as errors.
func logFailure(l *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrConflict):
		l.Info().Err(err).Send()
	default:
		l.Error().Err(err).Send()
	}
}
